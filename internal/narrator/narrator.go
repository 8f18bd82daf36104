package narrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Mode distinguishes free-form actions from spoken dialogue.
type Mode string

const (
	ModeAction   Mode = "action"
	ModeDialogue Mode = "dialogue"
)

// Turn is one prior exchange fed back to the narrator as short-term memory.
type Turn struct {
	Player   string
	Action   string
	Response string
}

// Context carries the scene and a bounded window of recent turns. It is
// rebuilt from the durable history on every call, never cached.
type Context struct {
	Scene       string
	Description string
	Recent      []Turn
}

// Models names the model tiers the narrator chooses between.
type Models struct {
	Default  string
	Dialogue string
	Fallback string
}

const systemPrompt = `You are S.A.M. (Storytelling AI Module), an autonomous Dungeon Master for a fantasy tabletop campaign.

Style:
- Narrate in third person with visual, auditory and emotional detail.
- Keep an epic tone with touches of humor or sarcasm, except in solemn scenes.
- Never break the fourth wall or mention being an AI.

Mechanics:
- Do not roll dice or compute numeric results; external modules handle that.
  Instead, name the check the player should make (for example: "Make an Athletics (Strength) check, DC 15").
- Refer to challenge and reward indirectly ("a moderate challenge for heroes of your caliber").

Interaction:
- If the player's message reads as dialogue, answer conversationally, voicing the relevant NPCs.
- If it is an action, narrate consequences, risks and likely outcomes.
- Keep continuity with the recent events provided in context.
- When it fits, end with a narrative hook or a question that pushes the story forward.`

// Conversational keywords that bump an action to the expressive tier.
var dialogueKeywords = []string{"talk", "negotiate", "discuss", "ask"}

const (
	pausedReply  = "S.A.M. pauses awkwardly, lost for words, then gestures for you to try that again."
	apologyReply = "S.A.M. offers an apologetic shrug; the story escapes him for a moment. Give him a breath and try once more."
)

// Narrator turns player input into narrative text. It never returns an
// error: on provider failure it retries once on the fallback tier, then
// falls back to a displayable sentence.
type Narrator struct {
	client *Client
	models Models
}

// New creates a narrator over client with the given model tiers.
func New(client *Client, models Models) *Narrator {
	return &Narrator{client: client, models: models}
}

// Interpret produces narration for one player action or line of dialogue.
func (n *Narrator) Interpret(ctx context.Context, player, action string, mode Mode, gctx Context) string {
	model := n.selectModel(action, mode)
	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(player, action, mode, gctx)},
	}

	text, err := n.client.Complete(ctx, model, messages)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	if err != nil {
		slog.Warn("narrator call failed, retrying on fallback tier", "model", model, "error", err)
	}

	text, fallbackErr := n.client.Complete(ctx, n.models.Fallback, messages)
	if fallbackErr == nil {
		if strings.TrimSpace(text) == "" {
			return pausedReply
		}
		return strings.TrimSpace(text)
	}
	slog.Error("narrator fallback failed", "model", n.models.Fallback, "error", fallbackErr)
	return apologyReply
}

// selectModel picks the expressive tier for dialogue or for actions that
// read conversationally, and the cheaper default tier otherwise.
func (n *Narrator) selectModel(action string, mode Mode) string {
	if mode == ModeDialogue {
		return n.models.Dialogue
	}
	folded := strings.ToLower(action)
	for _, kw := range dialogueKeywords {
		if strings.Contains(folded, kw) {
			return n.models.Dialogue
		}
	}
	return n.models.Default
}

func buildUserPrompt(player, action string, mode Mode, gctx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s\nType: %s\nAction: %s\n\n", player, mode, action)
	if gctx.Scene != "" || gctx.Description != "" {
		fmt.Fprintf(&b, "Current scene: %s\nDescription: %s\n", gctx.Scene, gctx.Description)
	}
	if len(gctx.Recent) > 0 {
		b.WriteString("\nRecent events:\n")
		for _, turn := range gctx.Recent {
			fmt.Fprintf(&b, "- %s: %s -> %s\n", turn.Player, turn.Action, turn.Response)
		}
	}
	b.WriteString("\nRespond as the Dungeon Master, following the system instructions.")
	return b.String()
}
