package dispatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"sentinel/internal/types"
)

// Per-kind payload shape schemas. They are deliberately permissive
// about which values are coercible (a recipient list, a scalar
// attendee) and strict about everything else. Shape errors surface as
// clarifications, never as panics downstream.
var payloadSchemas = map[types.ActionKind]*jsonschema.Schema{
	types.ActionSendEmail: jsonschema.MustCompileString("send_email.json", `{
		"type": "object",
		"properties": {
			"to": {"type": ["string", "array"]},
			"subject": {"type": "string"},
			"body": {"type": "string"}
		}
	}`),
	types.ActionScheduleMeeting: jsonschema.MustCompileString("schedule_meeting.json", `{
		"type": "object",
		"properties": {
			"attendees": {"type": ["array", "string"]},
			"start_time": {"type": "string"},
			"end_time": {"type": "string"},
			"duration_minutes": {"type": ["number", "string"]},
			"title": {"type": "string"},
			"description": {"type": "string"}
		}
	}`),
	types.ActionSearchWeb: jsonschema.MustCompileString("search_web.json", `{
		"type": "object",
		"properties": {
			"query": {"type": "string"},
			"num_results": {"type": ["number", "string"]}
		}
	}`),
	types.ActionOrderPizza: jsonschema.MustCompileString("order_pizza.json", `{
		"type": "object",
		"properties": {
			"customer": {"type": "object"},
			"address": {"type": "object"},
			"items": {"type": "array"},
			"special_instructions": {"type": "string"},
			"payment": {"type": "object"}
		}
	}`),
	types.ActionPDFQuestion: jsonschema.MustCompileString("pdf_question.json", `{
		"type": "object",
		"properties": {
			"question": {"type": "string"},
			"documents": {"type": "array"}
		}
	}`),
	types.ActionAnswerQuestion: jsonschema.MustCompileString("answer_question.json", `{
		"type": "object",
		"properties": {
			"question": {"type": "string"},
			"context": {"type": ["string", "array"]}
		}
	}`),
}

var customerRequired = []string{"email", "first_name", "last_name", "phone"}
var addressRequired = []string{"city", "postal_code", "region", "street"}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ActionContext carries results of earlier actions in the same request
// so later ones can borrow defaults: an email after a meeting gets a
// summary body, an email after a pizza order gets the order summary.
type ActionContext struct {
	LastMeeting    map[string]any
	LastPizzaOrder map[string]any
}

// Validator checks an action against the closed kind set, the per-kind
// required fields in their fixed order, and the payload shape schema.
// It asks about exactly one problem at a time: the first failed check
// wins and the rest are not evaluated.
type Validator struct {
	sanitizer *Sanitizer
}

// NewValidator returns a validator that redacts echoed payloads with
// the given sanitizer.
func NewValidator(sanitizer *Sanitizer) *Validator {
	return &Validator{sanitizer: sanitizer}
}

// Validate checks one action without cross-action context.
func (v *Validator) Validate(action types.Action) (types.Action, *types.Clarification, error) {
	return v.ValidateWith(action, nil)
}

// ValidateWith checks one action, borrowing defaults from the context
// when one is given. On success the returned action carries the
// normalized payload; otherwise the clarification names the first
// missing or invalid field with a redacted payload echo.
func (v *Validator) ValidateWith(action types.Action, actx *ActionContext) (types.Action, *types.Clarification, error) {
	if !types.ValidKind(action.Kind) {
		return types.Action{}, nil, fmt.Errorf("unsupported action: %q", action.Kind)
	}
	payload := action.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	normalized, clarification := v.check(action.Kind, payload, actx)
	if clarification != nil {
		return types.Action{}, clarification, nil
	}
	if err := payloadSchemas[action.Kind].Validate(payload); err != nil {
		return types.Action{}, v.clarify(action.Kind, "payload", fmt.Sprintf(
			"The %s request has the wrong shape: %v. Please restate it.", action.Kind, err), payload), nil
	}
	return types.Action{Kind: action.Kind, Payload: normalized}, nil, nil
}

// check runs the per-kind field checks in their fixed order and builds
// the normalized payload. It never mutates the input.
func (v *Validator) check(kind types.ActionKind, payload map[string]any, actx *ActionContext) (map[string]any, *types.Clarification) {
	switch kind {
	case types.ActionSendEmail:
		return v.checkSendEmail(payload, actx)
	case types.ActionScheduleMeeting:
		return v.checkScheduleMeeting(payload)
	case types.ActionSearchWeb:
		return v.checkSearchWeb(payload)
	case types.ActionOrderPizza:
		return v.checkOrderPizza(payload)
	case types.ActionPDFQuestion:
		return v.checkPDFQuestion(payload)
	default:
		return v.checkAnswerQuestion(payload)
	}
}

func (v *Validator) checkSendEmail(payload map[string]any, actx *ActionContext) (map[string]any, *types.Clarification) {
	to := payload["to"]
	if list, ok := to.([]any); ok {
		to = nil
		if len(list) > 0 {
			to = list[0]
		}
	}
	toStr, _ := to.(string)
	if toStr == "" || !strings.Contains(toStr, "@") {
		return nil, v.clarify(types.ActionSendEmail, "to",
			"Please provide the recipient's email address.", payload)
	}

	subject := asString(payload["subject"])
	if subject == "" {
		subject = "No subject"
	}

	body := asString(payload["body"])
	if body == "" && actx != nil {
		body = actx.emailBodyDefault()
	}
	if body == "" {
		return nil, v.clarify(types.ActionSendEmail, "body",
			"Please supply the email body so the assistant can send your message.", payload)
	}

	out := clonePayload(payload)
	out["to"] = toStr
	out["subject"] = subject
	out["body"] = body
	return out, nil
}

func (v *Validator) checkScheduleMeeting(payload map[string]any) (map[string]any, *types.Clarification) {
	attendees, ok := payload["attendees"].([]any)
	if !ok && payload["attendees"] != nil {
		attendees = []any{payload["attendees"]}
	}
	if len(attendees) == 0 {
		return nil, v.clarify(types.ActionScheduleMeeting, "attendees",
			"Whom should I invite to this meeting? Provide one or more attendee emails.", payload)
	}

	startRaw := asString(payload["start_time"])
	if startRaw == "" {
		return nil, v.clarify(types.ActionScheduleMeeting, "start_time",
			"When should the meeting start? (Include date and time).", payload)
	}
	start, err := parseEventTime(startRaw)
	if err != nil {
		return nil, v.clarify(types.ActionScheduleMeeting, "start_time", fmt.Sprintf(
			"Invalid start_time: %s. Please provide an ISO 8601 datetime string such as 2024-10-20T12:45:00-05:00.",
			startRaw), payload)
	}

	duration := 30
	if endRaw := asString(payload["end_time"]); endRaw != "" {
		end, err := parseEventTime(endRaw)
		if err != nil {
			return nil, v.clarify(types.ActionScheduleMeeting, "end_time", fmt.Sprintf(
				"Invalid end_time: %s. Please provide an ISO 8601 datetime string such as 2024-10-20T12:45:00-05:00.",
				endRaw), payload)
		}
		duration = int(end.Sub(start).Minutes())
	} else if raw, present := payload["duration_minutes"]; present {
		duration = asInt(raw, 0)
	}
	if duration <= 0 {
		return nil, v.clarify(types.ActionScheduleMeeting, "duration_minutes",
			"Meeting duration must be a positive number of minutes. Please provide it again.", payload)
	}

	title := asString(payload["title"])
	if title == "" {
		title = "Untitled Meeting"
	}

	out := clonePayload(payload)
	out["attendees"] = attendees
	out["start_time"] = start.Format(time.RFC3339)
	out["duration_minutes"] = duration
	out["title"] = title
	out["description"] = asString(payload["description"])
	return out, nil
}

func (v *Validator) checkSearchWeb(payload map[string]any) (map[string]any, *types.Clarification) {
	query := asString(payload["query"])
	if query == "" {
		return nil, v.clarify(types.ActionSearchWeb, "query",
			"What would you like me to search for?", payload)
	}
	out := clonePayload(payload)
	out["query"] = query
	out["num_results"] = asInt(payload["num_results"], 5)
	return out, nil
}

func (v *Validator) checkOrderPizza(payload map[string]any) (map[string]any, *types.Clarification) {
	var missing []string
	for _, key := range []string{"customer", "address", "items"} {
		if _, ok := payload[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, v.clarify(types.ActionOrderPizza, "order_details", fmt.Sprintf(
			"Missing %s details for the order.", strings.Join(missing, ", ")), payload)
	}

	customer, _ := payload["customer"].(map[string]any)
	if prompt := missingFieldsPrompt("Customer", customerRequired, customer); prompt != "" {
		return nil, v.clarify(types.ActionOrderPizza, "order_details", prompt, payload)
	}
	address, _ := payload["address"].(map[string]any)
	if prompt := missingFieldsPrompt("Address", addressRequired, address); prompt != "" {
		return nil, v.clarify(types.ActionOrderPizza, "order_details", prompt, payload)
	}

	items, _ := payload["items"].([]any)
	if len(items) == 0 {
		return nil, v.clarify(types.ActionOrderPizza, "order_details",
			"Add at least one Domino's menu code to items.", payload)
	}
	for _, item := range items {
		obj, _ := item.(map[string]any)
		if strings.TrimSpace(asString(obj["code"])) == "" {
			return nil, v.clarify(types.ActionOrderPizza, "order_details",
				"Each item needs a Domino's menu or coupon code.", payload)
		}
	}
	return clonePayload(payload), nil
}

func (v *Validator) checkPDFQuestion(payload map[string]any) (map[string]any, *types.Clarification) {
	question := strings.TrimSpace(asString(payload["question"]))
	if question == "" {
		return nil, v.clarify(types.ActionPDFQuestion, "question",
			"Please provide the question you would like answered from the PDFs.", payload)
	}
	documents, _ := payload["documents"].([]any)
	if len(documents) == 0 {
		return nil, v.clarify(types.ActionPDFQuestion, "documents",
			"Please provide one or more PDF documents (paths or base64 data) to analyze.", payload)
	}
	out := clonePayload(payload)
	out["question"] = question
	return out, nil
}

func (v *Validator) checkAnswerQuestion(payload map[string]any) (map[string]any, *types.Clarification) {
	question := strings.TrimSpace(asString(payload["question"]))
	if question == "" {
		return nil, v.clarify(types.ActionAnswerQuestion, "question",
			"Please provide the question you want answered.", payload)
	}
	out := clonePayload(payload)
	out["question"] = question
	return out, nil
}

func (v *Validator) clarify(kind types.ActionKind, field, prompt string, payload map[string]any) *types.Clarification {
	return &types.Clarification{
		Kind:    kind,
		Field:   field,
		Prompt:  prompt,
		Payload: v.sanitizer.Sanitize(clonePayload(payload)),
	}
}

// emailBodyDefault builds a body from the most recent meeting or pizza
// order in the same request, or returns empty when there is neither.
func (a *ActionContext) emailBodyDefault() string {
	if a.LastMeeting != nil {
		m := a.LastMeeting
		var attendees []string
		if list, ok := m["attendees"].([]any); ok {
			for _, entry := range list {
				attendees = append(attendees, asString(entry))
			}
		}
		title := asString(m["title"])
		if title == "" {
			title = "Meeting"
		}
		return fmt.Sprintf(
			"Hello,\n\nOur meeting %q is scheduled.\nStart: %s\nEnd: %s\nAttendees: %s\n\nLooking forward to it.\n",
			title, asString(m["start"]), asString(m["end"]), strings.Join(attendees, ", "))
	}
	if a.LastPizzaOrder != nil {
		order := a.LastPizzaOrder
		lines := []string{"Hello,", "", "Thanks for placing your Domino's order. Here's the summary:"}
		if items, ok := order["items"].([]any); ok {
			for _, entry := range items {
				item, _ := entry.(map[string]any)
				quantity := asInt(item["quantity"], 1)
				code := asString(item["code"])
				if code == "" {
					code = "item"
				}
				lines = append(lines, fmt.Sprintf("- %d x %s", quantity, code))
			}
		}
		if total := asString(order["total"]); total != "" {
			currency := asString(order["currency"])
			if currency == "" {
				currency = "USD"
			}
			lines = append(lines, "", fmt.Sprintf("Total: %s %s", total, currency))
		}
		lines = append(lines, "\nEnjoy your meal!")
		return strings.Join(lines, "\n")
	}
	return ""
}

func missingFieldsPrompt(label string, required []string, obj map[string]any) string {
	var missing []string
	for _, key := range required {
		if _, ok := obj[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	sort.Strings(missing)
	return fmt.Sprintf("%s details missing: %s.", label, strings.Join(missing, ", "))
}

func clonePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, val := range payload {
		out[k] = val
	}
	return out
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return fmt.Sprint(s)
	}
}

func asInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return parsed
		}
	}
	return fallback
}

func parseEventTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", value)
}
