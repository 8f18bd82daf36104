package game

import (
	"context"
	"fmt"
	"strings"

	"samgame/internal/srd"
)

// actionRoute is one (predicate, handler) pair of the dispatch table.
// Routes are evaluated in order; the first match wins.
type actionRoute struct {
	name   string
	match  func(folded string) bool
	handle func(ctx context.Context, state *GameState, player, raw, folded string) (*ActionResult, error)
}

func prefix(p string) func(string) bool {
	return func(folded string) bool {
		return folded == p || strings.HasPrefix(folded, p+" ")
	}
}

func anyPrefix(ps ...string) func(string) bool {
	return func(folded string) bool {
		for _, p := range ps {
			if folded == p || strings.HasPrefix(folded, p+" ") {
				return true
			}
		}
		return false
	}
}

func (e *Engine) buildRoutes() []actionRoute {
	return []actionRoute{
		{name: "combat", match: prefix("combat"), handle: e.handleCombat},
		{name: "explore", match: anyPrefix("explore", "investigate"), handle: e.handleExplore},
		{name: "rest", match: prefix("rest"), handle: e.handleRest},
		{name: "spell", match: func(f string) bool { return strings.HasPrefix(f, "spell ") }, handle: e.handleSpell},
		{name: "monster", match: func(f string) bool { return strings.HasPrefix(f, "monster ") }, handle: e.handleMonster},
		{name: "generic", match: func(string) bool { return true }, handle: e.handleGeneric},
	}
}

// handleCombat sizes an encounter for the party. Encounter generation is a
// required dependency here: its failure propagates as a hard error.
func (e *Engine) handleCombat(ctx context.Context, state *GameState, player, raw, folded string) (*ActionResult, error) {
	difficulty := "medium"
	if fields := strings.Fields(folded); len(fields) > 1 {
		difficulty = fields[1]
	}

	enc, err := e.rules.GenerateEncounter(ctx, state.PartyLevels, difficulty)
	if err != nil {
		return nil, fmt.Errorf("generate encounter: %w", err)
	}

	payload := encounterPayload(enc)
	state.LastEncounter = payload
	state.Scene = sceneBattlefield
	state.Story.Objective = fmt.Sprintf("Survive the %s encounter", difficulty)
	state.Story.EventsCompleted++

	story := state.Story
	return &ActionResult{
		Player:       player,
		Action:       raw,
		Scene:        state.Scene,
		MonsterCount: len(enc.Monsters),
		Encounter:    payload,
		Story:        &story,
	}, nil
}

func (e *Engine) handleExplore(_ context.Context, state *GameState, player, raw, _ string) (*ActionResult, error) {
	state.Scene = sceneExploration
	state.Story.Objective = "Scout the surrounding lands"
	state.Story.EventsCompleted++

	story := state.Story
	return &ActionResult{
		Player: player,
		Action: raw,
		Scene:  state.Scene,
		Result: "You move forward warily. The wind carries distant sounds and the smell of damp earth; something out here does not want to be found.",
		Story:  &story,
	}, nil
}

func (e *Engine) handleRest(_ context.Context, state *GameState, player, raw, _ string) (*ActionResult, error) {
	state.Scene = sceneCamp
	state.Story.Objective = "Recover strength at camp"
	state.Story.EventsCompleted++

	story := state.Story
	return &ActionResult{
		Player: player,
		Action: raw,
		Scene:  state.Scene,
		Result: "The party makes camp. The fire crackles, watches are set, and for a while the night feels almost safe.",
		Story:  &story,
	}, nil
}

func (e *Engine) handleSpell(ctx context.Context, state *GameState, player, raw, folded string) (*ActionResult, error) {
	name := strings.TrimSpace(strings.TrimPrefix(folded, "spell "))
	return e.lookupResult(player, raw, "spell:"+name, e.rules.Spell(ctx, name)), nil
}

func (e *Engine) handleMonster(ctx context.Context, state *GameState, player, raw, folded string) (*ActionResult, error) {
	name := strings.TrimSpace(strings.TrimPrefix(folded, "monster "))
	return e.lookupResult(player, raw, "monster:"+name, e.rules.Monster(ctx, name)), nil
}

// lookupResult downgrades lookup failures to structured not-found results;
// lookups never surface transport errors to the caller.
func (e *Engine) lookupResult(player, raw, query string, res srd.LookupResult) *ActionResult {
	result := &ActionResult{Player: player, Action: raw, Query: query}
	switch res.Status {
	case srd.LookupOK:
		result.Data = res.Data
	case srd.LookupNotFound:
		result.Error = "not found"
	default:
		result.Error = "rules service unavailable"
	}
	return result
}

// handleGeneric echoes unclassified actions. The log append has already
// happened; no further mutation, no persistence.
func (e *Engine) handleGeneric(_ context.Context, state *GameState, player, raw, _ string) (*ActionResult, error) {
	story := state.Story
	return &ActionResult{
		Player: player,
		Action: raw,
		Scene:  state.Scene,
		Story:  &story,
	}, nil
}
