package interpret

import (
	"encoding/json"
	"regexp"
	"strings"

	"sentinel/internal/privacy"
	"sentinel/internal/types"
)

// Extraction patterns for the deterministic parser. Heuristic order in
// Parse is a deliberate priority, not alphabetical.
var (
	queryPattern   = regexp.MustCompile(`(?i)(?:search|look up|find)(?: for)?\s+(.*)`)
	subjectPattern = regexp.MustCompile(`(?i)\b(?:subject|about)\b\s*[:\-]?\s*(.+)`)
	bodyPattern    = regexp.MustCompile(`(?is)\b(?:body|message|saying|content)\b\s*[:\-]?\s*(.+)`)
)

// Parser is the rule-based instruction-to-action mapping used when no
// model is available or model output is unusable. It never fails: any
// non-empty instruction produces at least an answer_question action.
type Parser struct{}

// NewParser returns a deterministic parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse maps an instruction to an interpretation. Nil only for empty
// input. A well-formed JSON instruction is used verbatim; otherwise
// keyword heuristics pick exactly one action.
func (p *Parser) Parse(instruction string) *Interpretation {
	text := strings.TrimSpace(instruction)
	if text == "" {
		return nil
	}

	// An instruction that is already a JSON object with an action (or
	// an actions list) is taken verbatim, filtering entries without an
	// action key.
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		var parsed any
		if err := json.Unmarshal([]byte(text), &parsed); err == nil {
			if interp := Normalize(parsed); interp != nil {
				return interp
			}
		}
	}

	lowered := strings.ToLower(text)
	emailMatch := privacy.EmailPattern.FindString(text)

	if strings.Contains(lowered, "pizza") {
		return single(types.ActionOrderPizza, map[string]any{})
	}

	if strings.Contains(lowered, "pdf") &&
		(strings.Contains(lowered, "question") || strings.Contains(lowered, "ask")) {
		return single(types.ActionPDFQuestion, map[string]any{
			"question":  text,
			"documents": []any{},
		})
	}

	if strings.Contains(lowered, "search") || strings.Contains(lowered, "look up") {
		query := text
		if m := queryPattern.FindStringSubmatch(text); m != nil {
			query = strings.TrimSpace(m[1])
		}
		return single(types.ActionSearchWeb, map[string]any{"query": query})
	}

	if strings.Contains(lowered, "meeting") || strings.Contains(lowered, "schedule") {
		return single(types.ActionScheduleMeeting, map[string]any{})
	}

	if strings.Contains(lowered, "email") || strings.Contains(lowered, "mail") || emailMatch != "" {
		subject := ""
		body := ""
		// The subject clause ends where a body marker begins, so the
		// body match is located first and the subject search is
		// restricted to the text before it.
		subjectSource := text
		if loc := bodyPattern.FindStringSubmatchIndex(text); loc != nil {
			body = strings.TrimSpace(text[loc[2]:loc[3]])
			subjectSource = text[:loc[0]]
		}
		if m := subjectPattern.FindStringSubmatch(subjectSource); m != nil {
			subject = strings.TrimSpace(m[1])
		}
		if body == "" {
			body = text
		}
		return single(types.ActionSendEmail, map[string]any{
			"to":      emailMatch,
			"subject": subject,
			"body":    body,
		})
	}

	return single(types.ActionAnswerQuestion, map[string]any{"question": text})
}

func single(kind types.ActionKind, payload map[string]any) *Interpretation {
	return &Interpretation{
		Actions: []types.Action{{Kind: kind, Payload: payload}},
	}
}
