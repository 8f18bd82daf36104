package game

import (
	"fmt"

	"samgame/internal/storage"
)

const (
	sessionsKey = "sessions"
	playersKey  = "players"
)

// SessionStore persists session snapshots and player bindings as two
// independent documents. Writes are last-writer-wins whole-document
// overwrites; there is no locking beyond the store's own file mutex.
type SessionStore struct {
	store *storage.Store
}

// NewSessionStore creates a session store over st.
func NewSessionStore(st *storage.Store) *SessionStore {
	return &SessionStore{store: st}
}

// Save overwrites the durable snapshot for state's session id.
func (s *SessionStore) Save(state *GameState) error {
	sessions := map[string]*GameState{}
	if err := s.store.ReadJSON(sessionsKey, &sessions); err != nil {
		return err
	}
	sessions[state.SessionID] = state
	if err := s.store.WriteJSON(sessionsKey, sessions); err != nil {
		return fmt.Errorf("save session %s: %w", state.SessionID, err)
	}
	return nil
}

// Load returns the snapshot for sessionID, or found=false if absent.
func (s *SessionStore) Load(sessionID string) (*GameState, bool, error) {
	sessions := map[string]*GameState{}
	if err := s.store.ReadJSON(sessionsKey, &sessions); err != nil {
		return nil, false, err
	}
	state, ok := sessions[sessionID]
	if !ok || state == nil {
		return nil, false, nil
	}
	return state, true, nil
}

// BindPlayer records player as belonging to sessionID.
func (s *SessionStore) BindPlayer(player, sessionID string) error {
	players := map[string]string{}
	if err := s.store.ReadJSON(playersKey, &players); err != nil {
		return err
	}
	players[player] = sessionID
	if err := s.store.WriteJSON(playersKey, players); err != nil {
		return fmt.Errorf("bind player %s: %w", player, err)
	}
	return nil
}

// PlayerSession returns the session id bound to player, if any.
func (s *SessionStore) PlayerSession(player string) (string, bool, error) {
	players := map[string]string{}
	if err := s.store.ReadJSON(playersKey, &players); err != nil {
		return "", false, err
	}
	id, ok := players[player]
	return id, ok && id != "", nil
}
