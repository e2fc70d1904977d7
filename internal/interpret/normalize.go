package interpret

import (
	"encoding/json"
	"strings"

	"sentinel/internal/types"
)

// Interpretation is the normalized outcome of parsing one instruction:
// the actions to dispatch plus any clarification requests raised by a
// model instead of an action.
type Interpretation struct {
	Actions        []types.Action
	Clarifications []types.Clarification
}

// Normalize coerces the loosely-shaped structures a model (or a raw
// JSON instruction) may produce into an Interpretation. Accepted
// shapes: a bare object carrying an "action" key, a list of such
// objects, or an envelope object carrying "actions" and optionally
// "clarifications". Anything else yields nil.
func Normalize(parsed any) *Interpretation {
	switch v := parsed.(type) {
	case map[string]any:
		if rawActions, ok := v["actions"]; ok {
			interp := &Interpretation{
				Actions:        coerceActions(rawActions),
				Clarifications: coerceClarifications(v["clarifications"]),
			}
			if len(interp.Actions) == 0 && len(interp.Clarifications) == 0 {
				return nil
			}
			return interp
		}
		if action, ok := coerceAction(v); ok {
			return &Interpretation{Actions: []types.Action{action}}
		}
		return nil
	case []any:
		actions := coerceActions(v)
		if len(actions) == 0 {
			return nil
		}
		return &Interpretation{Actions: actions}
	default:
		return nil
	}
}

// DecodeModelReply parses a model's text reply as JSON, tolerating a
// markdown code fence around the payload, and normalizes it. Nil when
// the reply is not usable JSON in any accepted shape.
func DecodeModelReply(reply string) *Interpretation {
	text := stripCodeFence(reply)
	if text == "" {
		return nil
	}
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil
	}
	return Normalize(parsed)
}

func coerceActions(raw any) []types.Action {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var actions []types.Action
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if action, ok := coerceAction(obj); ok {
			actions = append(actions, action)
		}
	}
	return actions
}

func coerceAction(obj map[string]any) (types.Action, bool) {
	name, ok := obj["action"].(string)
	if !ok || name == "" {
		return types.Action{}, false
	}
	payload, ok := obj["payload"].(map[string]any)
	if !ok {
		payload = map[string]any{}
	}
	return types.Action{Kind: types.ActionKind(name), Payload: payload}, true
}

func coerceClarifications(raw any) []types.Clarification {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	var clarifications []types.Clarification
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		c := types.Clarification{}
		if s, ok := obj["action"].(string); ok {
			c.Kind = types.ActionKind(s)
		}
		if s, ok := obj["field"].(string); ok {
			c.Field = s
		}
		if s, ok := obj["prompt"].(string); ok {
			c.Prompt = s
		} else if s, ok := obj["question"].(string); ok {
			c.Prompt = s
		}
		c.Payload = obj["payload"]
		if c.Prompt == "" && c.Field == "" {
			continue
		}
		clarifications = append(clarifications, c)
	}
	return clarifications
}

// stripCodeFence removes a surrounding markdown code fence, with or
// without a language tag, and returns the trimmed inner text.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		first := strings.TrimSpace(text[:idx])
		// A language tag occupies the rest of the fence line.
		if first == "" || !strings.ContainsAny(first, " \t{[") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
