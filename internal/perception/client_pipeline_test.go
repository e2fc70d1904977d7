package perception

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPipelineAdapter_InitPicksUpCheckpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"model_id":"distilgpt2"}`))
	}))
	defer server.Close()

	a := NewPipelineAdapter(PipelineConfig{BaseURL: server.URL})
	if a.Descriptor() != "<unknown checkpoint>" {
		t.Errorf("pre-init Descriptor = %q", a.Descriptor())
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if a.Descriptor() != "distilgpt2" {
		t.Errorf("Descriptor = %q", a.Descriptor())
	}
}

func TestPipelineAdapter_GenerateStripsEchoedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body pipelineRequest
		json.NewDecoder(r.Body).Decode(&body)
		if !strings.HasSuffix(body.Inputs, "Assistant:") {
			t.Errorf("prompt does not end with delimiter: %q", body.Inputs)
		}
		if body.Parameters.DoSample {
			t.Error("do_sample set for zero temperature")
		}
		// The server echoes the whole prompt before the reply.
		resp := pipelineResponse{GeneratedText: body.Inputs + " the actual reply"}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := NewPipelineAdapter(PipelineConfig{BaseURL: server.URL})
	reply, err := a.Generate(context.Background(), "be helpful", "hi", 32, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "the actual reply" {
		t.Errorf("reply = %q", reply)
	}
}

func TestPipelineAdapter_GenerateSplitsAtFirstDelimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"generated_text":"prompt Assistant: reply mentioning Assistant: again"}`))
	}))
	defer server.Close()

	a := NewPipelineAdapter(PipelineConfig{BaseURL: server.URL})
	reply, err := a.Generate(context.Background(), "s", "u", 32, 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// Only the first delimiter is the prompt boundary.
	if reply != "reply mentioning Assistant: again" {
		t.Errorf("reply = %q", reply)
	}
}

func TestPipelineAdapter_GenerateArrayResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"generated_text":"Assistant: array style"}]`))
	}))
	defer server.Close()

	a := NewPipelineAdapter(PipelineConfig{BaseURL: server.URL})
	reply, err := a.Generate(context.Background(), "s", "u", 32, 0.5)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "array style" {
		t.Errorf("reply = %q", reply)
	}
}
