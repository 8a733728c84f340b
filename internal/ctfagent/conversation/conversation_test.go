package conversation

import (
	"strings"
	"testing"

	"github.com/nyu-llm-ctf/agentcore/pkg/models"
)

func TestNextRoundAdvancesIndex(t *testing.T) {
	c := New()
	c.AppendSystem("sys")
	c.NextRound()
	c.AppendUser("hi")

	msgs := c.Messages()
	if msgs[0].Index != 0 {
		t.Errorf("system message index = %d, want 0", msgs[0].Index)
	}
	if msgs[1].Index != 1 {
		t.Errorf("user message index = %d, want 1", msgs[1].Index)
	}
}

func TestAppendObservationTruncatesLongResult(t *testing.T) {
	c := New(WithTruncateContent(100))
	call := models.ToolCall{ID: "call-1", Name: "run_command"}
	c.AppendAssistant("", &call)
	long := strings.Repeat("a", 500)
	c.AppendObservation(models.ToolResult{ID: "call-1", Name: "run_command", Result: long})

	msgs := c.Messages()
	result, ok := msgs[1].ToolResult.Result.(string)
	if !ok {
		t.Fatalf("result is not a string: %T", msgs[1].ToolResult.Result)
	}
	if len(result) > 100 {
		t.Errorf("truncated result length = %d, want <= 100", len(result))
	}
	if !strings.HasSuffix(result, truncationSuffix) {
		t.Errorf("truncated result %q missing suffix %q", result, truncationSuffix)
	}
}

func TestAppendObservationTruncatesMapStrings(t *testing.T) {
	c := New(WithTruncateContent(50))
	long := strings.Repeat("b", 200)
	c.AppendObservation(models.ToolResult{ID: "call-1", Name: "run_command", Result: map[string]any{
		"stdout":     long,
		"returncode": 0,
	}})

	result := c.Messages()[0].ToolResult.Result.(map[string]any)
	stdout := result["stdout"].(string)
	if len(stdout) > 50 {
		t.Errorf("truncated stdout length = %d, want <= 50", len(stdout))
	}
	if result["returncode"] != 0 {
		t.Errorf("non-string fields must be left alone, got %v", result["returncode"])
	}
}

func TestMessagesWindowDropsOldObservationsKeepsThoughts(t *testing.T) {
	c := New(WithLenObservations(1))

	c.AppendSystem("sys")
	for i := 0; i < 3; i++ {
		c.NextRound()
		call := models.ToolCall{ID: "call", Name: "run_command"}
		c.AppendAssistant("thinking", &call)
		c.AppendObservation(models.ToolResult{ID: "call", Name: "run_command", Result: "ok"})
	}

	msgs := c.Messages()
	oldRound := 2 // round - len_observations = 3 - 1 = 2, so round 2 and earlier is old
	for _, m := range msgs {
		if m.Role == models.RoleObservation && m.Index <= oldRound {
			t.Errorf("observation from round %d should have been dropped by the window", m.Index)
		}
		if m.Role == models.RoleAssistant && m.Index <= oldRound && m.ToolCall != nil {
			t.Errorf("assistant message from round %d should have had tool_data dropped", m.Index)
		}
		if m.Role == models.RoleAssistant && m.Content == "" {
			t.Errorf("assistant message from round %d must keep its thought content", m.Index)
		}
	}
}

func TestDumpIsStableJSONShape(t *testing.T) {
	c := New()
	c.AppendSystem("sys")
	c.NextRound()
	c.AppendUser("hi")

	dump := c.Dump()
	if len(dump) != 2 {
		t.Fatalf("dump length = %d, want 2", len(dump))
	}
	if dump[0].Role != models.RoleSystem || dump[1].Role != models.RoleUser {
		t.Errorf("unexpected role ordering in dump: %+v", dump)
	}
}
