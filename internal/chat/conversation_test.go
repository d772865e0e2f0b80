package chat

import (
	"strings"
	"testing"
)

func TestNewConversationSeedsGreeting(t *testing.T) {
	conv := NewConversation("Hello!")
	turns := conv.Turns()
	if len(turns) != 1 {
		t.Fatalf("len(turns) = %d", len(turns))
	}
	if turns[0].Role != RoleAssistant {
		t.Fatalf("seed role = %q", turns[0].Role)
	}
	if turns[0].Text != "Hello!" {
		t.Fatalf("seed text = %q", turns[0].Text)
	}
}

func TestAppendGrowsMonotonicallyAndPreservesOrder(t *testing.T) {
	conv := NewConversation("hi")
	questions := []string{"first", "second", "third"}
	for i, q := range questions {
		before := conv.Len()
		conv.Append(UserTurn(q))
		conv.Append(AssistantTurn("answer " + q))
		if conv.Len() != before+2 {
			t.Fatalf("Len() = %d after exchange %d", conv.Len(), i)
		}
	}

	turns := conv.Turns()
	if turns[1].Text != "first" || turns[3].Text != "second" || turns[5].Text != "third" {
		t.Fatalf("unexpected ordering: %#v", turns)
	}
	for i := 1; i < len(turns); i += 2 {
		if turns[i].Role != RoleUser {
			t.Fatalf("turn %d role = %q, want user", i, turns[i].Role)
		}
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	conv := NewConversation("hi")
	turns := conv.Turns()
	turns[0] = UserTurn("mutated")
	if conv.Turns()[0].Text != "hi" {
		t.Fatal("Turns() must not expose internal state")
	}
}

func TestFormatHistory(t *testing.T) {
	got := FormatHistory([]Turn{
		AssistantTurn("Hello!"),
		UserTurn("Name 10 artists"),
	})
	want := "Assistant: Hello!\nUser: Name 10 artists"
	if got != want {
		t.Fatalf("FormatHistory() = %q, want %q", got, want)
	}
}

func TestFormatHistoryEmpty(t *testing.T) {
	got := FormatHistory(nil)
	if !strings.Contains(got, "no prior messages") {
		t.Fatalf("FormatHistory(nil) = %q", got)
	}
}
