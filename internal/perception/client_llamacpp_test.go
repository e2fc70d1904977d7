package perception

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLlamaCppAdapter_InitHealthOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	a := NewLlamaCppAdapter(LlamaCppConfig{BaseURL: server.URL, Model: "ggml-model.gguf"})
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if a.Descriptor() != "ggml-model.gguf" {
		t.Errorf("Descriptor = %q", a.Descriptor())
	}
}

func TestLlamaCppAdapter_InitNotReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"loading model"}`))
	}))
	defer server.Close()

	a := NewLlamaCppAdapter(LlamaCppConfig{BaseURL: server.URL})
	if err := a.Init(context.Background()); err == nil {
		t.Fatal("expected not-ready error")
	}
}

func TestLlamaCppAdapter_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"local reply"}}]}`))
	}))
	defer server.Close()

	a := NewLlamaCppAdapter(LlamaCppConfig{BaseURL: server.URL})
	reply, err := a.Generate(context.Background(), "sys", "user", 32, 0.2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "local reply" {
		t.Errorf("reply = %q", reply)
	}
}

func TestLlamaCppAdapter_DescriptorPlaceholder(t *testing.T) {
	a := NewLlamaCppAdapter(LlamaCppConfig{BaseURL: "http://127.0.0.1:1"})
	if a.Descriptor() != "<unknown GGUF>" {
		t.Errorf("Descriptor = %q", a.Descriptor())
	}
}
