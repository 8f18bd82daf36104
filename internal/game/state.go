package game

import "samgame/internal/srd"

// StoryState is the small set of narratively meaningful fields, distinct
// from the raw transcript.
type StoryState struct {
	Location        string `json:"location"`
	Objective       string `json:"objective"`
	EventsCompleted int    `json:"events_completed"`
}

// TurnRecord is one exchange in the narrative transcript.
type TurnRecord struct {
	Player   string `json:"player"`
	Action   string `json:"action"`
	Response string `json:"response"`
}

// GameState is the mutable aggregate for one session. The engine owns
// in-memory mutation; the session store owns persistence.
type GameState struct {
	Running     bool              `json:"running"`
	Scene       string            `json:"scene"`
	Description string            `json:"description"`
	PartyLevels []int             `json:"party_levels"`
	Log         []string          `json:"log"`
	SessionID   string            `json:"session_id"`
	Story       StoryState        `json:"story_state"`
	LastActions map[string]string `json:"last_actions"`

	// Rules mode only.
	LastEncounter map[string]any `json:"last_encounter,omitempty"`

	// Narration mode only.
	History []TurnRecord `json:"history,omitempty"`
}

// StateView is the read-only snapshot returned to callers. The log is
// truncated to the last 10 entries in the view only, never in storage.
type StateView struct {
	Running     bool              `json:"running"`
	Scene       string            `json:"scene"`
	PartyLevels []int             `json:"party_levels"`
	Story       StoryState        `json:"story_state"`
	LastActions map[string]string `json:"last_actions"`
	Log         []string          `json:"log"`
	SessionID   string            `json:"session_id"`
}

// StartResult is returned by Start.
type StartResult struct {
	Message            string `json:"message"`
	SessionID          string `json:"session_id"`
	PartyLevels        []int  `json:"party_levels"`
	RulesServiceStatus string `json:"rules_service_status"`
}

// EventResult describes a dynamic event injected into a turn.
type EventResult struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Narration   string `json:"narration"`
}

// ActionResult is the structured outcome of one HandleAction call. Branch
// failures land in Error; they are never raised to the transport layer
// except for the two hard-failure points (start health probe, combat
// encounter generation).
type ActionResult struct {
	Player       string         `json:"player,omitempty"`
	Action       string         `json:"action,omitempty"`
	Scene        string         `json:"scene,omitempty"`
	Result       string         `json:"result,omitempty"`
	Story        *StoryState    `json:"story_state,omitempty"`
	Encounter    map[string]any `json:"encounter,omitempty"`
	MonsterCount int            `json:"monster_count,omitempty"`
	Query        string         `json:"query,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
	Event        *EventResult   `json:"event,omitempty"`
	Error        string         `json:"error,omitempty"`
}

func encounterPayload(enc *srd.Encounter) map[string]any {
	if enc.Raw != nil {
		return enc.Raw
	}
	return map[string]any{"monsters": enc.Monsters, "difficulty": enc.Difficulty}
}
