package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"sentinel/internal/dispatch"
	"sentinel/internal/interpret"
	"sentinel/internal/types"
)

// newRegistry binds executors for every supported kind. The question
// kinds run through the interpreter; connector-backed kinds (email,
// calendar, search, pizza) are dry-run in this deployment and report
// the validated action instead of performing it.
func newRegistry(interpreter *interpret.Interpreter) *dispatch.Registry {
	registry := dispatch.NewRegistry()

	registry.Register(types.ActionSendEmail, dispatch.DryRunExecutor(types.ActionSendEmail))
	registry.Register(types.ActionScheduleMeeting, dispatch.DryRunExecutor(types.ActionScheduleMeeting))
	registry.Register(types.ActionSearchWeb, dispatch.DryRunExecutor(types.ActionSearchWeb))
	registry.Register(types.ActionOrderPizza, dispatch.DryRunExecutor(types.ActionOrderPizza))

	registry.Register(types.ActionAnswerQuestion, dispatch.ExecutorFunc(
		func(ctx context.Context, payload map[string]any) (map[string]any, error) {
			question, _ := payload["question"].(string)
			var answer string
			var err error
			if docs := contextDocuments(payload["context"]); len(docs) > 0 {
				answer, err = interpreter.AnswerFromDocuments(ctx, question, docs)
			} else {
				answer, err = interpreter.Complete(ctx, question, 256)
			}
			if err != nil {
				return nil, err
			}
			return map[string]any{"answer": answer}, nil
		}))

	registry.Register(types.ActionPDFQuestion, dispatch.ExecutorFunc(
		func(ctx context.Context, payload map[string]any) (map[string]any, error) {
			question, _ := payload["question"].(string)
			documents, _ := payload["documents"].([]any)

			var texts []string
			var summaries []map[string]any
			for idx, doc := range documents {
				text, name, err := documentText(doc, idx+1)
				if err != nil {
					return nil, err
				}
				texts = append(texts, text)
				summaries = append(summaries, map[string]any{
					"name":   name,
					"length": len(text),
				})
			}

			answer, err := interpreter.AnswerFromDocuments(ctx, question, texts)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"question":  question,
				"answer":    answer,
				"documents": summaries,
			}, nil
		}))

	return registry
}

// contextDocuments coerces the optional answer_question context field
// to a list of document strings.
func contextDocuments(raw any) []string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var docs []string
		for _, entry := range v {
			if s, ok := entry.(string); ok && s != "" {
				docs = append(docs, s)
			}
		}
		return docs
	default:
		return nil
	}
}

// documentText resolves one document entry to its text. An entry is
// either a path string or an object with inline base64 data or a path.
func documentText(doc any, ordinal int) (text, name string, err error) {
	var data, path string
	switch v := doc.(type) {
	case string:
		path = v
	case map[string]any:
		data, _ = v["data"].(string)
		path, _ = v["path"].(string)
		name, _ = v["name"].(string)
	default:
		return "", "", fmt.Errorf("document %d is in an unsupported format", ordinal)
	}

	if data != "" {
		decoded, decodeErr := base64.StdEncoding.DecodeString(data)
		if decodeErr != nil {
			return "", "", fmt.Errorf("document %d has invalid base64 data: %w", ordinal, decodeErr)
		}
		if name == "" {
			name = fmt.Sprintf("Document %d", ordinal)
		}
		return string(decoded), name, nil
	}

	if path == "" {
		return "", "", fmt.Errorf("document %d missing path or data", ordinal)
	}
	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		return "", "", fmt.Errorf("document %d not found at path: %s", ordinal, path)
	}
	if name == "" {
		name = path
	}
	return string(raw), name, nil
}
