// Package game holds the session orchestrator: the state machine that maps
// player input to state transitions, external service calls and persisted
// session snapshots.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"

	"samgame/internal/events"
	"samgame/internal/narrator"
	"samgame/internal/srd"
	"samgame/internal/storage"

	"github.com/google/uuid"
)

// Mode selects the orchestration style.
type Mode string

const (
	// ModeRules classifies actions into mechanical branches backed by the
	// SRD service.
	ModeRules Mode = "rules"
	// ModeNarration sends every action through the narrator and may inject
	// dynamic events into the transcript.
	ModeNarration Mode = "narration"
)

// RulesService is the external rules/encounter collaborator.
type RulesService interface {
	Health(ctx context.Context) (string, error)
	GenerateEncounter(ctx context.Context, partyLevels []int, difficulty string) (*srd.Encounter, error)
	Spell(ctx context.Context, name string) srd.LookupResult
	Monster(ctx context.Context, name string) srd.LookupResult
}

// Narrator converts structured turn context into narrative text. It always
// returns displayable text, never an error.
type Narrator interface {
	Interpret(ctx context.Context, player, action string, mode narrator.Mode, gctx narrator.Context) string
}

const (
	sceneIntro       = "intro"
	sceneBattlefield = "battlefield"
	sceneExploration = "exploration"
	sceneCamp        = "camp"

	startLocation  = "Valley of Pelvuria"
	startObjective = "Begin the adventure"
	startScene     = "A freezing wind sweeps down over the valley of Pelvuria. The road ahead disappears into mist."
)

const legacyStateKey = "game_state"

// Engine is the game orchestrator. It owns the in-memory session registry
// and delegates persistence to the session store. One mutex per session is
// held for the duration of a HandleAction call, so read-modify-write of a
// session is atomic even under concurrent requests.
type Engine struct {
	mu       sync.Mutex // guards sessions and activeID
	sessions map[string]*GameState
	activeID string
	locks    sync.Map // map[string]*sync.Mutex

	store  *SessionStore
	kv     *storage.Store
	rules  RulesService
	gw     Narrator
	events *events.Generator
	mode   Mode

	rand   func() float64
	routes []actionRoute
}

// New creates an engine with injected dependencies.
func New(kv *storage.Store, rules RulesService, gw Narrator, gen *events.Generator, mode Mode) *Engine {
	e := &Engine{
		sessions: make(map[string]*GameState),
		store:    NewSessionStore(kv),
		kv:       kv,
		rules:    rules,
		gw:       gw,
		events:   gen,
		mode:     mode,
		rand:     rand.Float64,
	}
	e.routes = e.buildRoutes()
	return e
}

// Start begins a new session. An empty party defaults to a single level-1
// member. The SRD health probe is the one unrecoverable dependency check:
// its failure propagates as an error.
func (e *Engine) Start(ctx context.Context, partyLevels []int) (*StartResult, error) {
	if len(partyLevels) == 0 {
		partyLevels = []int{1}
	}
	for _, lvl := range partyLevels {
		if lvl < 1 {
			return nil, fmt.Errorf("invalid party level %d", lvl)
		}
	}

	state := &GameState{
		Running:     true,
		Scene:       sceneIntro,
		Description: startScene,
		PartyLevels: partyLevels,
		SessionID:   uuid.New().String(),
		Story: StoryState{
			Location:  startLocation,
			Objective: startObjective,
		},
		LastActions: make(map[string]string),
		Log:         []string{"session started"},
	}

	if err := e.persist(state); err != nil {
		return nil, err
	}

	status, err := e.rules.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("rules service health: %w", err)
	}
	state.Log = append(state.Log, "rules service status: "+status)
	if err := e.persist(state); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sessions[state.SessionID] = state
	e.activeID = state.SessionID
	e.mu.Unlock()

	slog.Info("session started", "session", state.SessionID, "party", partyLevels)

	return &StartResult{
		Message:            "Game started.",
		SessionID:          state.SessionID,
		PartyLevels:        partyLevels,
		RulesServiceStatus: status,
	}, nil
}

// HandleAction processes one player action or line of dialogue. The
// returned error is reserved for hard failures (combat encounter
// generation, storage writes); everything else lands inside the result.
func (e *Engine) HandleAction(ctx context.Context, player, action string, mode narrator.Mode) (*ActionResult, error) {
	folded := strings.ToLower(strings.TrimSpace(action))

	state, ok := e.resolveSession(player)
	if !ok {
		return &ActionResult{Player: player, Error: "no active session"}, nil
	}

	lock := e.sessionLock(state.SessionID)
	lock.Lock()
	defer lock.Unlock()

	state.Log = append(state.Log, fmt.Sprintf("%s: %s", player, folded))
	state.LastActions[player] = folded
	if err := e.bindPlayer(player, state.SessionID); err != nil {
		slog.Warn("failed to bind player", "player", player, "error", err)
	}

	if e.mode == ModeNarration {
		return e.narrate(ctx, state, player, action, mode, folded)
	}

	for _, route := range e.routes {
		if !route.match(folded) {
			continue
		}
		result, err := route.handle(ctx, state, player, action, folded)
		if err != nil {
			return nil, err
		}
		if route.name != "generic" {
			if err := e.persist(state); err != nil {
				return nil, err
			}
		}
		return result, nil
	}
	// Unreachable: the generic route matches everything.
	return &ActionResult{Player: player, Error: "unclassified action"}, nil
}

// State returns a read-only view of the active session. It neither mutates
// nor persists anything.
func (e *Engine) State() StateView {
	e.mu.Lock()
	state, ok := e.sessions[e.activeID]
	e.mu.Unlock()
	if !ok {
		return StateView{}
	}

	lock := e.sessionLock(state.SessionID)
	lock.Lock()
	defer lock.Unlock()

	logView := state.Log
	if len(logView) > 10 {
		logView = logView[len(logView)-10:]
	}

	view := StateView{
		Running:     state.Running,
		Scene:       state.Scene,
		PartyLevels: append([]int(nil), state.PartyLevels...),
		Story:       state.Story,
		LastActions: make(map[string]string, len(state.LastActions)),
		Log:         append([]string(nil), logView...),
		SessionID:   state.SessionID,
	}
	for k, v := range state.LastActions {
		view.LastActions[k] = v
	}
	return view
}

// resolveSession finds the session for player: the in-memory active
// session if one is running, otherwise the player's durable binding
// rehydrated from the session store.
func (e *Engine) resolveSession(player string) (*GameState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if state, ok := e.sessions[e.activeID]; ok {
		return state, true
	}

	id, bound, err := e.store.PlayerSession(player)
	if err != nil || !bound {
		return nil, false
	}
	state, found, err := e.store.Load(id)
	if err != nil || !found {
		return nil, false
	}
	if state.LastActions == nil {
		state.LastActions = make(map[string]string)
	}
	e.sessions[id] = state
	e.activeID = id
	slog.Info("session rehydrated", "session", id, "player", player)
	return state, true
}

func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// bindPlayer writes the durable binding only when it changed.
func (e *Engine) bindPlayer(player, sessionID string) error {
	current, bound, err := e.store.PlayerSession(player)
	if err != nil {
		return err
	}
	if bound && current == sessionID {
		return nil
	}
	return e.store.BindPlayer(player, sessionID)
}

// persist writes the session snapshot and the legacy single-state document.
func (e *Engine) persist(state *GameState) error {
	if err := e.store.Save(state); err != nil {
		return err
	}
	if err := e.kv.WriteJSON(legacyStateKey, state); err != nil {
		return err
	}
	return nil
}
