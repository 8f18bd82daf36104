package game

import (
	"context"
	"strings"

	"samgame/internal/narrator"
)

// historyWindow is the number of prior turns fed back to the narrator.
const historyWindow = 3

// narratorName is the author of injected event turns. Those turns do not
// count toward the every-5th-turn trigger cadence.
const narratorName = "narrator"

var explorationKeywords = []string{"explore", "investigate", "walk", "advance", "travel"}

// narrate is the narration-mode turn: every action goes through the
// gateway, and a dynamic event may additionally be injected into the
// transcript on top of the ordinary narration.
func (e *Engine) narrate(ctx context.Context, state *GameState, player, raw string, mode narrator.Mode, folded string) (*ActionResult, error) {
	if mode != narrator.ModeDialogue {
		mode = narrator.ModeAction
	}

	text := e.gw.Interpret(ctx, player, raw, mode, e.narratorContext(state))
	state.History = append(state.History, TurnRecord{Player: player, Action: raw, Response: text})
	if err := e.persist(state); err != nil {
		return nil, err
	}

	result := &ActionResult{Player: player, Action: raw, Result: text}

	if e.shouldTrigger(folded, playerTurns(state.History)) {
		record := e.events.Generate(map[string]string{"scene": state.Scene})
		narration := e.gw.Interpret(ctx, narratorName, record.Description, narrator.ModeAction, e.narratorContext(state))
		state.History = append(state.History, TurnRecord{Player: narratorName, Action: record.Title, Response: narration})
		if err := e.persist(state); err != nil {
			return nil, err
		}
		result.Event = &EventResult{
			Title:       record.Title,
			Type:        string(record.Type),
			Description: record.Description,
			Narration:   narration,
		}
	}

	return result, nil
}

// playerTurns counts the player-authored entries in the transcript.
func playerTurns(history []TurnRecord) int {
	n := 0
	for _, turn := range history {
		if turn.Player != narratorName {
			n++
		}
	}
	return n
}

// shouldTrigger decides whether a dynamic event fires this turn: every 5th
// player turn deterministically, otherwise a 10% draw, plus a 30% draw when
// the action reads as exploration.
func (e *Engine) shouldTrigger(folded string, turns int) bool {
	if turns%5 == 0 {
		return true
	}
	if e.rand() < 0.10 {
		return true
	}
	for _, kw := range explorationKeywords {
		if strings.Contains(folded, kw) {
			return e.rand() < 0.30
		}
	}
	return false
}

// narratorContext rebuilds the continuity window from the durable history
// on every call; nothing is cached between turns.
func (e *Engine) narratorContext(state *GameState) narrator.Context {
	history := state.History
	if saved, found, err := e.store.Load(state.SessionID); err == nil && found {
		history = saved.History
	}

	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	recent := make([]narrator.Turn, 0, historyWindow)
	for _, turn := range history[start:] {
		recent = append(recent, narrator.Turn{Player: turn.Player, Action: turn.Action, Response: turn.Response})
	}

	return narrator.Context{
		Scene:       state.Scene,
		Description: state.Description,
		Recent:      recent,
	}
}
