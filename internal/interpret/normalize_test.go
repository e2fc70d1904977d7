package interpret

import (
	"testing"

	"sentinel/internal/types"
)

func TestNormalize_BareActionObject(t *testing.T) {
	interp := Normalize(map[string]any{
		"action":  "search_web",
		"payload": map[string]any{"query": "go generics"},
	})
	if interp == nil || len(interp.Actions) != 1 {
		t.Fatalf("interp = %+v", interp)
	}
	if interp.Actions[0].Kind != types.ActionSearchWeb {
		t.Errorf("kind = %s", interp.Actions[0].Kind)
	}
}

func TestNormalize_MissingPayloadBecomesEmptyMap(t *testing.T) {
	interp := Normalize(map[string]any{"action": "order_pizza"})
	if interp == nil {
		t.Fatal("nil interpretation")
	}
	if interp.Actions[0].Payload == nil {
		t.Error("payload must be an empty map, not nil")
	}
}

func TestNormalize_ActionsEnvelope(t *testing.T) {
	interp := Normalize(map[string]any{
		"actions": []any{
			map[string]any{"action": "search_web", "payload": map[string]any{"query": "x"}},
			map[string]any{"payload": map[string]any{}}, // no action key, dropped
			"not an object",                             // dropped
			map[string]any{"action": "answer_question"},
		},
	})
	if interp == nil {
		t.Fatal("nil interpretation")
	}
	if len(interp.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(interp.Actions))
	}
	if interp.Actions[1].Kind != types.ActionAnswerQuestion {
		t.Errorf("second kind = %s", interp.Actions[1].Kind)
	}
}

func TestNormalize_ListShape(t *testing.T) {
	interp := Normalize([]any{
		map[string]any{"action": "send_email", "payload": map[string]any{"to": "a@b.co"}},
	})
	if interp == nil || len(interp.Actions) != 1 {
		t.Fatalf("interp = %+v", interp)
	}
}

func TestNormalize_Clarifications(t *testing.T) {
	interp := Normalize(map[string]any{
		"actions": []any{},
		"clarifications": []any{
			map[string]any{
				"action": "send_email",
				"field":  "to",
				"prompt": "Who should receive this?",
			},
		},
	})
	if interp == nil {
		t.Fatal("nil interpretation")
	}
	if len(interp.Clarifications) != 1 {
		t.Fatalf("clarifications = %d", len(interp.Clarifications))
	}
	c := interp.Clarifications[0]
	if c.Kind != types.ActionSendEmail || c.Field != "to" || c.Prompt != "Who should receive this?" {
		t.Errorf("clarification = %+v", c)
	}
}

func TestNormalize_RejectsUnusableShapes(t *testing.T) {
	for _, v := range []any{
		nil,
		"just text",
		42.0,
		map[string]any{"payload": map[string]any{}},
		map[string]any{"actions": []any{"noise"}},
		[]any{},
	} {
		if interp := Normalize(v); interp != nil {
			t.Errorf("Normalize(%#v) = %+v, want nil", v, interp)
		}
	}
}

func TestDecodeModelReply_CodeFence(t *testing.T) {
	reply := "```json\n{\"action\":\"search_web\",\"payload\":{\"query\":\"q\"}}\n```"
	interp := DecodeModelReply(reply)
	if interp == nil || len(interp.Actions) != 1 {
		t.Fatalf("interp = %+v", interp)
	}
	if interp.Actions[0].Kind != types.ActionSearchWeb {
		t.Errorf("kind = %s", interp.Actions[0].Kind)
	}
}

func TestDecodeModelReply_PlainJSONAndGarbage(t *testing.T) {
	if interp := DecodeModelReply(`{"action":"answer_question","payload":{"question":"q"}}`); interp == nil {
		t.Error("plain JSON rejected")
	}
	if interp := DecodeModelReply("I think you want to search the web."); interp != nil {
		t.Errorf("prose accepted: %+v", interp)
	}
	if interp := DecodeModelReply(""); interp != nil {
		t.Errorf("empty accepted: %+v", interp)
	}
}
