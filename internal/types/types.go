// Package types defines the canonical action model shared by the
// interpreter, the validator, and the dispatcher.
package types

// ActionKind names one supported operation. The set is closed: any
// other value is rejected outright, never coerced.
type ActionKind string

const (
	ActionSendEmail       ActionKind = "send_email"
	ActionScheduleMeeting ActionKind = "schedule_meeting"
	ActionSearchWeb       ActionKind = "search_web"
	ActionOrderPizza      ActionKind = "order_pizza"
	ActionPDFQuestion     ActionKind = "pdf_question"
	ActionAnswerQuestion  ActionKind = "answer_question"
)

// AllActionKinds lists the closed kind set in a stable order.
var AllActionKinds = []ActionKind{
	ActionSendEmail,
	ActionScheduleMeeting,
	ActionSearchWeb,
	ActionOrderPizza,
	ActionPDFQuestion,
	ActionAnswerQuestion,
}

// ValidKind reports whether kind is one of the six allowed values.
func ValidKind(kind ActionKind) bool {
	for _, k := range AllActionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Action is a canonical, validated instruction to perform one supported
// operation.
type Action struct {
	Kind    ActionKind     `json:"action"`
	Payload map[string]any `json:"payload"`
}

// Clarification is a structured request for a missing or invalid field,
// produced instead of an Action. The echoed payload is always redacted
// before it reaches an external caller.
type Clarification struct {
	Kind    ActionKind `json:"action"`
	Field   string     `json:"field"`
	Prompt  string     `json:"prompt"`
	Payload any        `json:"payload,omitempty"`
}

// ActionResult pairs an executed action with the (redacted) result its
// executor returned.
type ActionResult struct {
	Kind    ActionKind     `json:"action"`
	Payload any            `json:"payload"`
	Result  any            `json:"result"`
}

// Result is the outcome of one interpretation call: ready actions,
// clarifications for the remainder, or both. For non-empty input at
// least one of the two lists is non-empty.
type Result struct {
	ID             string          `json:"id"`
	Actions        []Action        `json:"actions,omitempty"`
	Clarifications []Clarification `json:"clarifications,omitempty"`
}
