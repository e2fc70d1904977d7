package interpret

import (
	"testing"

	"sentinel/internal/types"
)

func firstAction(t *testing.T, interp *Interpretation) types.Action {
	t.Helper()
	if interp == nil {
		t.Fatal("nil interpretation")
	}
	if len(interp.Actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(interp.Actions))
	}
	return interp.Actions[0]
}

func TestParser_EmptyInput(t *testing.T) {
	p := NewParser()
	if got := p.Parse(""); got != nil {
		t.Errorf("Parse(\"\") = %+v, want nil", got)
	}
	if got := p.Parse("   \n "); got != nil {
		t.Errorf("whitespace input = %+v, want nil", got)
	}
}

func TestParser_SearchQueryExtraction(t *testing.T) {
	p := NewParser()
	action := firstAction(t, p.Parse("search for rust ownership"))
	if action.Kind != types.ActionSearchWeb {
		t.Fatalf("kind = %s", action.Kind)
	}
	if q := action.Payload["query"]; q != "rust ownership" {
		t.Errorf("query = %v", q)
	}
}

func TestParser_LookUpKeyword(t *testing.T) {
	p := NewParser()
	action := firstAction(t, p.Parse("look up the weather in Austin"))
	if action.Kind != types.ActionSearchWeb {
		t.Fatalf("kind = %s", action.Kind)
	}
	if q := action.Payload["query"]; q != "the weather in Austin" {
		t.Errorf("query = %v", q)
	}
}

func TestParser_EmailExtraction(t *testing.T) {
	p := NewParser()
	action := firstAction(t, p.Parse("email jane@example.com about lunch saying let's meet at noon"))
	if action.Kind != types.ActionSendEmail {
		t.Fatalf("kind = %s", action.Kind)
	}
	if to := action.Payload["to"]; to != "jane@example.com" {
		t.Errorf("to = %v", to)
	}
	if subject := action.Payload["subject"]; subject != "lunch" {
		t.Errorf("subject = %v", subject)
	}
	if body := action.Payload["body"]; body != "let's meet at noon" {
		t.Errorf("body = %v", body)
	}
}

func TestParser_EmailBodyDefaultsToInstruction(t *testing.T) {
	p := NewParser()
	text := "mail bob@corp.io the quarterly numbers"
	action := firstAction(t, p.Parse(text))
	if action.Kind != types.ActionSendEmail {
		t.Fatalf("kind = %s", action.Kind)
	}
	if body := action.Payload["body"]; body != text {
		t.Errorf("body = %v, want full instruction", body)
	}
}

func TestParser_KeywordPriority(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		text string
		want types.ActionKind
	}{
		{"pizza beats everything", "order a pizza and email me the receipt", types.ActionOrderPizza},
		{"pdf with question", "ask a question about this pdf", types.ActionPDFQuestion},
		{"pdf without question falls through", "print the pdf", types.ActionAnswerQuestion},
		{"search beats meeting", "search for meeting room ideas", types.ActionSearchWeb},
		{"meeting", "schedule a meeting with the team", types.ActionScheduleMeeting},
		{"plain question", "what is the capital of France", types.ActionAnswerQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := firstAction(t, p.Parse(tt.text))
			if action.Kind != tt.want {
				t.Errorf("Parse(%q) kind = %s, want %s", tt.text, action.Kind, tt.want)
			}
		})
	}
}

func TestParser_JSONInstructionVerbatim(t *testing.T) {
	p := NewParser()
	action := firstAction(t, p.Parse(`{"action":"search_web","payload":{"query":"golang"}}`))
	if action.Kind != types.ActionSearchWeb {
		t.Fatalf("kind = %s", action.Kind)
	}
	if q := action.Payload["query"]; q != "golang" {
		t.Errorf("query = %v", q)
	}
}

func TestParser_MalformedJSONFallsBackToHeuristics(t *testing.T) {
	p := NewParser()
	interp := p.Parse(`{"action": broken json}`)
	if interp == nil || len(interp.Actions) == 0 {
		t.Fatal("malformed JSON must still produce an action")
	}
	if interp.Actions[0].Kind != types.ActionAnswerQuestion {
		t.Errorf("kind = %s", interp.Actions[0].Kind)
	}
}

func TestParser_AnswerQuestionCarriesText(t *testing.T) {
	p := NewParser()
	action := firstAction(t, p.Parse("how tall is Everest"))
	if action.Payload["question"] != "how tall is Everest" {
		t.Errorf("question = %v", action.Payload["question"])
	}
}
