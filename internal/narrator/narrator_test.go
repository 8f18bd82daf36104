package narrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testModels = Models{Default: "cheap", Dialogue: "fancy", Fallback: "backup"}

// fakeProvider is a chat-completions endpoint that replies per model.
func fakeProvider(t *testing.T, handle func(model string, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		handle(req.Model, w)
	}))
}

func reply(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	json.NewEncoder(w).Encode(resp)
}

func TestInterpretSuccess(t *testing.T) {
	srv := fakeProvider(t, func(model string, w http.ResponseWriter) {
		if model != "cheap" {
			t.Errorf("expected default tier, got %s", model)
		}
		reply(w, "The door creaks open.")
	})
	defer srv.Close()

	n := New(NewClient(srv.URL, "key", time.Second), testModels)
	got := n.Interpret(context.Background(), "ana", "open the door", ModeAction, Context{Scene: "hall"})
	if got != "The door creaks open." {
		t.Errorf("unexpected narration: %q", got)
	}
}

func TestInterpretDialogueUsesExpressiveTier(t *testing.T) {
	var used string
	srv := fakeProvider(t, func(model string, w http.ResponseWriter) {
		used = model
		reply(w, "ok")
	})
	defer srv.Close()
	n := New(NewClient(srv.URL, "key", time.Second), testModels)

	n.Interpret(context.Background(), "ana", "hello there", ModeDialogue, Context{})
	if used != "fancy" {
		t.Errorf("dialogue mode: expected fancy, got %s", used)
	}

	n.Interpret(context.Background(), "ana", "negotiate with the guard", ModeAction, Context{})
	if used != "fancy" {
		t.Errorf("conversational keyword: expected fancy, got %s", used)
	}

	n.Interpret(context.Background(), "ana", "climb the wall", ModeAction, Context{})
	if used != "cheap" {
		t.Errorf("plain action: expected cheap, got %s", used)
	}
}

func TestInterpretRetriesFallbackTier(t *testing.T) {
	srv := fakeProvider(t, func(model string, w http.ResponseWriter) {
		if model == "backup" {
			reply(w, "The narrator recovers.")
			return
		}
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	defer srv.Close()

	n := New(NewClient(srv.URL, "key", time.Second), testModels)
	got := n.Interpret(context.Background(), "ana", "look around", ModeAction, Context{})
	if got != "The narrator recovers." {
		t.Errorf("expected fallback narration, got %q", got)
	}
}

func TestInterpretBothTiersFail(t *testing.T) {
	srv := fakeProvider(t, func(model string, w http.ResponseWriter) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	defer srv.Close()

	n := New(NewClient(srv.URL, "key", time.Second), testModels)
	got := n.Interpret(context.Background(), "ana", "look around", ModeAction, Context{})
	if got != apologyReply {
		t.Errorf("expected apology, got %q", got)
	}
}

func TestInterpretEmptyFallbackPauses(t *testing.T) {
	srv := fakeProvider(t, func(model string, w http.ResponseWriter) {
		if model == "backup" {
			reply(w, "   ")
			return
		}
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	defer srv.Close()

	n := New(NewClient(srv.URL, "key", time.Second), testModels)
	got := n.Interpret(context.Background(), "ana", "look around", ModeAction, Context{})
	if got != pausedReply {
		t.Errorf("expected paused reply, got %q", got)
	}
}

func TestBuildUserPromptIncludesRecentTurns(t *testing.T) {
	prompt := buildUserPrompt("ana", "run", ModeAction, Context{
		Scene:       "forest",
		Description: "dark trees",
		Recent: []Turn{
			{Player: "bruno", Action: "hide", Response: "Bruno slips behind a trunk."},
		},
	})
	for _, want := range []string{"Player: ana", "Current scene: forest", "bruno: hide"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
