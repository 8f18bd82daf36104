package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"

	"samgame/internal/game"
	"samgame/internal/narrator"
	"samgame/internal/storage"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// unsafeHrefRe matches href/src attributes with dangerous URL schemes in goldmark output.
var unsafeHrefRe = regexp.MustCompile(`(?i)(href|src)="(?:javascript|vbscript|data):[^"]*"`)

// App holds the HTTP handlers and their dependencies.
type App struct {
	engine *game.Engine
	store  *storage.Store
	md     goldmark.Markdown
}

// NewApp creates the handler set.
func NewApp(engine *game.Engine, store *storage.Store) *App {
	return &App{
		engine: engine,
		store:  store,
		md: goldmark.New(
			goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
		),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// renderMarkdown converts narration markdown to HTML, scrubbing unsafe
// URL schemes.
func (a *App) renderMarkdown(s string) string {
	var buf bytes.Buffer
	if err := a.md.Convert([]byte(s), &buf); err != nil {
		return ""
	}
	return unsafeHrefRe.ReplaceAllString(buf.String(), `$1="#"`)
}

// Health handles GET /health.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"message": "API online", "status": "ready"})
}

// StartGame handles POST /game/start.
func (a *App) StartGame(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PartyLevels []int `json:"party_levels"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, 400, "invalid request body")
		return
	}

	result, err := a.engine.Start(r.Context(), body.PartyLevels)
	if err != nil {
		slog.Error("start game failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to start game: "+err.Error())
		return
	}
	writeJSON(w, 200, result)
}

type actionResponse struct {
	*game.ActionResult
	ResultHTML string `json:"result_html,omitempty"`
}

// Action handles POST /game/action.
func (a *App) Action(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Player string `json:"player"`
		Action string `json:"action"`
		Mode   string `json:"mode"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, 400, "invalid request body")
		return
	}
	if body.Player == "" || body.Action == "" {
		writeError(w, 400, "player and action are required")
		return
	}

	mode := narrator.ModeAction
	if body.Mode == string(narrator.ModeDialogue) {
		mode = narrator.ModeDialogue
	}

	result, err := a.engine.HandleAction(r.Context(), body.Player, body.Action, mode)
	if err != nil {
		slog.Error("action failed", "player", body.Player, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := actionResponse{ActionResult: result}
	if result.Result != "" {
		resp.ResultHTML = a.renderMarkdown(result.Result)
	}
	writeJSON(w, 200, resp)
}

// GameState handles GET /game/state.
func (a *App) GameState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, a.engine.State())
}

// decodeBody decodes a JSON request body, treating an empty body as an
// empty document.
func decodeBody(r *http.Request, target any) error {
	err := json.NewDecoder(r.Body).Decode(target)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
