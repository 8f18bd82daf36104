package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"samgame/internal/events"
	"samgame/internal/game"
	"samgame/internal/narrator"
	"samgame/internal/srd"
	"samgame/internal/storage"
)

type stubRules struct{ monsters int }

func (s *stubRules) Health(context.Context) (string, error) { return "ready", nil }

func (s *stubRules) GenerateEncounter(_ context.Context, _ []int, difficulty string) (*srd.Encounter, error) {
	monsters := make([]map[string]any, s.monsters)
	for i := range monsters {
		monsters[i] = map[string]any{"name": "goblin"}
	}
	return &srd.Encounter{Monsters: monsters, Difficulty: difficulty}, nil
}

func (s *stubRules) Spell(context.Context, string) srd.LookupResult {
	return srd.LookupResult{Status: srd.LookupNotFound}
}

func (s *stubRules) Monster(context.Context, string) srd.LookupResult {
	return srd.LookupResult{Status: srd.LookupNotFound}
}

type stubNarrator struct{}

func (stubNarrator) Interpret(_ context.Context, _, action string, _ narrator.Mode, _ narrator.Context) string {
	return "**narrated:** " + action
}

func testApp(t *testing.T) *App {
	t.Helper()
	kv := storage.New(t.TempDir())
	catalog, err := events.LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	engine := game.New(kv, &stubRules{monsters: 2}, stubNarrator{}, events.NewGenerator(kv, catalog), game.ModeRules)
	return NewApp(engine, kv)
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	var parsed map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON response (%d): %s", rec.Code, rec.Body.String())
	}
	return rec, parsed
}

func TestHealth(t *testing.T) {
	app := testApp(t)
	rec, body := doJSON(t, app.Health, "GET", "")
	if rec.Code != 200 || body["status"] != "ready" {
		t.Errorf("unexpected health response: %d %v", rec.Code, body)
	}
}

func TestStartGame(t *testing.T) {
	app := testApp(t)
	rec, body := doJSON(t, app.StartGame, "POST", `{"party_levels":[2,3]}`)
	if rec.Code != 200 {
		t.Fatalf("start: %d %v", rec.Code, body)
	}
	if body["session_id"] == "" {
		t.Error("expected session id")
	}
	if body["rules_service_status"] != "ready" {
		t.Errorf("expected rules status ready, got %v", body["rules_service_status"])
	}
}

func TestStartGameEmptyBody(t *testing.T) {
	app := testApp(t)
	rec, body := doJSON(t, app.StartGame, "POST", "")
	if rec.Code != 200 {
		t.Fatalf("start with empty body: %d %v", rec.Code, body)
	}
	levels, ok := body["party_levels"].([]any)
	if !ok || len(levels) != 1 {
		t.Errorf("expected default party levels, got %v", body["party_levels"])
	}
}

func TestActionRequiresFields(t *testing.T) {
	app := testApp(t)
	rec, _ := doJSON(t, app.Action, "POST", `{"player":"ana"}`)
	if rec.Code != 400 {
		t.Errorf("expected 400 for missing action, got %d", rec.Code)
	}
}

func TestActionWithoutSessionIsStructured(t *testing.T) {
	app := testApp(t)
	rec, body := doJSON(t, app.Action, "POST", `{"player":"ana","action":"explore"}`)
	if rec.Code != 200 {
		t.Fatalf("expected structured payload, got transport failure %d", rec.Code)
	}
	if body["error"] != "no active session" {
		t.Errorf("expected no-active-session error, got %v", body)
	}
}

func TestActionFlow(t *testing.T) {
	app := testApp(t)
	doJSON(t, app.StartGame, "POST", `{"party_levels":[3]}`)

	rec, body := doJSON(t, app.Action, "POST", `{"player":"ana","action":"explore the ruins"}`)
	if rec.Code != 200 {
		t.Fatalf("action: %d %v", rec.Code, body)
	}
	if body["scene"] != "exploration" {
		t.Errorf("expected exploration scene, got %v", body["scene"])
	}
	story, ok := body["story_state"].(map[string]any)
	if !ok || story["events_completed"].(float64) != 1 {
		t.Errorf("unexpected story state: %v", body["story_state"])
	}
	if html, _ := body["result_html"].(string); !strings.Contains(html, "<p>") {
		t.Errorf("expected rendered result_html, got %v", body["result_html"])
	}
}

func TestActionCombatReturnsEncounter(t *testing.T) {
	app := testApp(t)
	doJSON(t, app.StartGame, "POST", `{"party_levels":[3,3,4]}`)

	rec, body := doJSON(t, app.Action, "POST", `{"player":"ana","action":"combat hard"}`)
	if rec.Code != 200 {
		t.Fatalf("combat: %d %v", rec.Code, body)
	}
	if body["monster_count"].(float64) != 2 {
		t.Errorf("expected monster_count 2, got %v", body["monster_count"])
	}
	if body["scene"] != "battlefield" {
		t.Errorf("expected battlefield, got %v", body["scene"])
	}
}

func TestGameStateView(t *testing.T) {
	app := testApp(t)
	doJSON(t, app.StartGame, "POST", `{}`)

	rec, body := doJSON(t, app.GameState, "GET", "")
	if rec.Code != 200 {
		t.Fatalf("state: %d", rec.Code)
	}
	if body["running"] != true {
		t.Errorf("expected running session, got %v", body)
	}
}

func TestRenderMarkdownScrubsUnsafeLinks(t *testing.T) {
	app := testApp(t)
	html := app.renderMarkdown(`[click](javascript:alert(1))`)
	if strings.Contains(html, "javascript:") {
		t.Errorf("unsafe scheme survived: %s", html)
	}
}
