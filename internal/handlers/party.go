package handlers

import (
	"fmt"
	"net/http"
	"slices"
)

const partyKey = "party"

type partyDoc struct {
	Players []string `json:"players"`
}

func (a *App) readParty() (partyDoc, error) {
	var doc partyDoc
	err := a.store.ReadJSON(partyKey, &doc)
	return doc, err
}

type playerRequest struct {
	Player string `json:"player"`
}

func (a *App) decodePlayer(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body playerRequest
	if err := decodeBody(r, &body); err != nil || body.Player == "" {
		writeError(w, 400, "player is required")
		return "", false
	}
	return body.Player, true
}

// GetParty handles GET /party.
func (a *App) GetParty(w http.ResponseWriter, r *http.Request) {
	doc, err := a.readParty()
	if err != nil {
		writeError(w, 500, "failed to read party")
		return
	}
	if doc.Players == nil {
		doc.Players = []string{}
	}
	writeJSON(w, 200, map[string]any{"party": doc.Players})
}

// JoinParty handles POST /party/join. Duplicate joins are rejected.
func (a *App) JoinParty(w http.ResponseWriter, r *http.Request) {
	player, ok := a.decodePlayer(w, r)
	if !ok {
		return
	}

	doc, err := a.readParty()
	if err != nil {
		writeError(w, 500, "failed to read party")
		return
	}
	if slices.Contains(doc.Players, player) {
		writeError(w, 400, "player is already in the party")
		return
	}

	doc.Players = append(doc.Players, player)
	if err := a.store.WriteJSON(partyKey, doc); err != nil {
		writeError(w, 500, "failed to save party")
		return
	}
	writeJSON(w, 200, map[string]any{
		"message": fmt.Sprintf("%s joined the party.", player),
		"party":   doc.Players,
	})
}

// LeaveParty handles POST /party/leave.
func (a *App) LeaveParty(w http.ResponseWriter, r *http.Request) {
	a.removePlayer(w, r, "%s left the party.")
}

// KickPlayer handles POST /party/kick.
func (a *App) KickPlayer(w http.ResponseWriter, r *http.Request) {
	a.removePlayer(w, r, "%s was kicked from the party.")
}

func (a *App) removePlayer(w http.ResponseWriter, r *http.Request, messageFmt string) {
	player, ok := a.decodePlayer(w, r)
	if !ok {
		return
	}

	doc, err := a.readParty()
	if err != nil {
		writeError(w, 500, "failed to read party")
		return
	}
	idx := slices.Index(doc.Players, player)
	if idx < 0 {
		writeError(w, 404, "player is not in the party")
		return
	}

	doc.Players = slices.Delete(doc.Players, idx, idx+1)
	if err := a.store.WriteJSON(partyKey, doc); err != nil {
		writeError(w, 500, "failed to save party")
		return
	}
	writeJSON(w, 200, map[string]any{
		"message": fmt.Sprintf(messageFmt, player),
		"party":   doc.Players,
	})
}

// ResetParty handles POST /party/reset.
func (a *App) ResetParty(w http.ResponseWriter, r *http.Request) {
	if err := a.store.WriteJSON(partyKey, partyDoc{Players: []string{}}); err != nil {
		writeError(w, 500, "failed to save party")
		return
	}
	writeJSON(w, 200, map[string]any{"message": "Party cleared.", "party": []string{}})
}
