package chat_test

import (
	"testing"
	"time"

	"github.com/mattxslv/phoenix/internal/domain/chat"
)

func turnAt(id string, offset time.Duration) *chat.Turn {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &chat.Turn{
		ID:         id,
		UserPrompt: "prompt " + id,
		AIResponse: "response " + id,
		CreatedAt:  base.Add(offset),
	}
}

func TestBuildContext(t *testing.T) {
	turns := []*chat.Turn{
		turnAt("turn_a", 0),
		turnAt("turn_b", time.Second),
		turnAt("turn_c", 2*time.Second),
	}

	tests := []struct {
		name    string
		editing string
		wantIDs []string
	}{
		{name: "no edit keeps everything", editing: "", wantIDs: []string{"turn_a", "turn_b", "turn_c"}},
		{name: "editing first excludes all", editing: "turn_a", wantIDs: nil},
		{name: "editing middle keeps prefix", editing: "turn_b", wantIDs: []string{"turn_a"}},
		{name: "editing last keeps all prior", editing: "turn_c", wantIDs: []string{"turn_a", "turn_b"}},
		{name: "unknown id keeps everything", editing: "turn_x", wantIDs: []string{"turn_a", "turn_b", "turn_c"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := chat.BuildContext(turns, tc.editing)
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("context length = %d, want %d", len(got), len(tc.wantIDs))
			}
			for i, id := range tc.wantIDs {
				if got[i].ID != id {
					t.Fatalf("context[%d] = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestBuildContextEmpty(t *testing.T) {
	if got := chat.BuildContext(nil, ""); len(got) != 0 {
		t.Fatalf("empty history context = %v", got)
	}
}

func TestContextExchanges(t *testing.T) {
	turns := []*chat.Turn{turnAt("turn_a", 0), turnAt("turn_b", time.Second)}
	exchanges := chat.ContextExchanges(turns)

	if len(exchanges) != 2 {
		t.Fatalf("exchanges = %d, want 2", len(exchanges))
	}
	if exchanges[0].UserPrompt != "prompt turn_a" || exchanges[0].AIResponse != "response turn_a" {
		t.Fatalf("exchanges[0] = %+v", exchanges[0])
	}
}
