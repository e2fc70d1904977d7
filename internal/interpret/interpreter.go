package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sentinel/internal/logging"
	"sentinel/internal/perception"
	"sentinel/internal/privacy"
	"sentinel/internal/types"
)

// ErrEmptyInstruction is returned when an instruction is empty or
// whitespace-only.
var ErrEmptyInstruction = errors.New("instruction is empty")

// errStillSensitive marks a sanitized text that the classifier still
// flags. Such text never leaves the machine; the caller must take the
// local path with the original input.
var errStillSensitive = errors.New("sanitized text still contains sensitive content")

// ActionValidator checks one action against the closed kind set and its
// per-kind field requirements. It returns either a validated action or
// a clarification; an error means the action is not one of the
// supported kinds at all.
type ActionValidator interface {
	Validate(action types.Action) (types.Action, *types.Clarification, error)
}

// Interpreter turns natural-language instructions into validated
// actions, routing each one to the local or cloud backend based on its
// privacy classification.
type Interpreter struct {
	classifier *privacy.Classifier
	vault      *privacy.Vault
	parser     *Parser
	router     *perception.Router
	cloud      *perception.CloudClient
	validator  ActionValidator
	records    *perception.CallRecordStore
}

// NewInterpreter wires an interpreter from its collaborators.
func NewInterpreter(
	classifier *privacy.Classifier,
	vault *privacy.Vault,
	router *perception.Router,
	cloud *perception.CloudClient,
	validator ActionValidator,
	records *perception.CallRecordStore,
) *Interpreter {
	return &Interpreter{
		classifier: classifier,
		vault:      vault,
		parser:     NewParser(),
		router:     router,
		cloud:      cloud,
		validator:  validator,
		records:    records,
	}
}

// Records exposes the call record store for status reporting.
func (i *Interpreter) Records() *perception.CallRecordStore {
	return i.records
}

// Router exposes the local backend router for status reporting and
// explicit reinitialization.
func (i *Interpreter) Router() *perception.Router {
	return i.router
}

// Interpret maps one instruction to a Result. Sensitive instructions
// are interpreted locally with the original text; public instructions
// are sanitized and, when a cloud backend is configured, interpreted
// there with placeholders restored afterwards. Every produced action is
// validated; for non-empty input the result always carries at least one
// action or clarification.
func (i *Interpreter) Interpret(ctx context.Context, instruction string) (*types.Result, error) {
	id, interp, err := i.Plan(ctx, instruction)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(instruction)

	result := &types.Result{ID: id}
	if interp != nil {
		result.Clarifications = append(result.Clarifications, interp.Clarifications...)
		for _, action := range interp.Actions {
			validated, clarification, err := i.validator.Validate(action)
			if err != nil {
				logging.Interpret("[%s] dropping unsupported action %q: %v", id, action.Kind, err)
				continue
			}
			if clarification != nil {
				result.Clarifications = append(result.Clarifications, *clarification)
				continue
			}
			result.Actions = append(result.Actions, validated)
		}
	}

	// A model may emit nothing usable (or only unsupported kinds). The
	// deterministic parser guarantees a non-empty result for non-empty
	// input.
	if len(result.Actions) == 0 && len(result.Clarifications) == 0 {
		logging.Interpret("[%s] no usable model output, using deterministic parser", id)
		fallback := i.parser.Parse(text)
		for _, action := range fallback.Actions {
			validated, clarification, err := i.validator.Validate(action)
			if err != nil {
				continue
			}
			if clarification != nil {
				result.Clarifications = append(result.Clarifications, *clarification)
				continue
			}
			result.Actions = append(result.Actions, validated)
		}
	}

	return result, nil
}

// Plan routes one instruction and returns its raw, unvalidated
// interpretation together with the call ID. Callers that carry
// cross-action state validate the actions themselves; Interpret wraps
// Plan with context-free validation. For non-empty input the returned
// interpretation is never empty.
func (i *Interpreter) Plan(ctx context.Context, instruction string) (string, *Interpretation, error) {
	text := strings.TrimSpace(instruction)
	if text == "" {
		return "", nil, ErrEmptyInstruction
	}
	id := uuid.NewString()
	return id, i.route(ctx, id, text), nil
}

// route picks the backend for one instruction and returns its raw
// interpretation, falling through cloud failure modes to the local
// path. The local path itself falls back to the deterministic parser.
func (i *Interpreter) route(ctx context.Context, id, text string) *Interpretation {
	if i.classifier.ContainsPrivate(text) {
		logging.Routing("[%s] instruction classified private, staying local", id)
		return i.interpretLocal(ctx, id, text, "private_instruction")
	}

	sanitized, placeholders, err := i.sanitizeForCloud(text)
	if err != nil {
		logging.Routing("[%s] %v, staying local with original text", id, err)
		return i.interpretLocal(ctx, id, text, "sanitization_insufficient")
	}

	if !i.cloud.Configured() {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallCloudUnconfigured,
			Reason:   "interpret_instruction",
		})
		return i.interpretLocal(ctx, id, text, "cloud_unconfigured")
	}

	reply, err := i.cloud.Interpret(ctx, interpretCloudPrompt, sanitized)
	if err != nil {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallCloudError,
			Engine:   i.cloud.Model(),
			Reason:   err.Error(),
		})
		logging.Routing("[%s] cloud interpretation failed: %v", id, err)
		return i.interpretLocal(ctx, id, text, "cloud_error")
	}

	interp := DecodeModelReply(reply)
	if interp == nil {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallCloudError,
			Engine:   i.cloud.Model(),
			Reason:   "unusable cloud reply",
		})
		logging.Routing("[%s] cloud reply was not usable JSON", id)
		return i.interpretLocal(ctx, id, text, "cloud_unusable_reply")
	}

	i.restore(interp, placeholders)
	i.records.Set(perception.CallRecord{
		ID:       id,
		Provider: perception.CallCloud,
		Engine:   i.cloud.Model(),
		Reason:   "interpret_instruction",
	})
	return interp
}

// interpretLocal runs instruction interpretation on the local backend,
// falling back to the deterministic parser when no backend is available
// or the model output is unusable.
func (i *Interpreter) interpretLocal(ctx context.Context, id, text, reason string) *Interpretation {
	if i.router.IsAvailable(ctx) {
		reply, err := i.router.Generate(ctx, interpretLocalPrompt, text, 400, 0)
		if err == nil {
			if interp := DecodeModelReply(reply); interp != nil {
				i.records.Set(perception.CallRecord{
					ID:       id,
					Provider: perception.CallLocal,
					Engine:   i.router.Descriptor(),
					Reason:   reason,
				})
				return interp
			}
			logging.Routing("[%s] local reply was not usable JSON", id)
		} else {
			logging.Routing("[%s] local generation failed: %v", id, err)
		}
	}
	i.records.Set(perception.CallRecord{
		ID:       id,
		Provider: perception.CallLocalUnavailable,
		Reason:   i.router.AvailabilityMessage(),
	})
	return i.parser.Parse(text)
}

// Complete runs a free-form completion with the same routing rules as
// Interpret: sensitive prompts stay local, public prompts go to the
// cloud when configured, and cloud failures fall back to the local
// backend with the original prompt.
func (i *Interpreter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	text := strings.TrimSpace(prompt)
	if text == "" {
		return "", ErrEmptyInstruction
	}
	id := uuid.NewString()

	if i.classifier.ContainsPrivate(text) {
		return i.completeLocal(ctx, id, text, maxTokens, "private_prompt")
	}

	sanitized, placeholders, err := i.sanitizeForCloud(text)
	if err != nil {
		return i.completeLocal(ctx, id, text, maxTokens, "sanitization_insufficient")
	}
	if !i.cloud.Configured() {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallCloudUnconfigured,
			Reason:   "completion",
		})
		return i.completeLocal(ctx, id, text, maxTokens, "cloud_unconfigured")
	}

	reply, err := i.cloud.Complete(ctx, sanitized, maxTokens)
	if err != nil {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallCloudError,
			Engine:   i.cloud.Model(),
			Reason:   err.Error(),
		})
		return i.completeLocal(ctx, id, text, maxTokens, "cloud_error")
	}
	i.records.Set(perception.CallRecord{
		ID:       id,
		Provider: perception.CallCloud,
		Engine:   i.cloud.Model(),
		Reason:   "completion",
	})
	restored, _ := i.vault.Restore(reply, placeholders).(string)
	if restored == "" {
		restored = reply
	}
	return restored, nil
}

func (i *Interpreter) completeLocal(ctx context.Context, id, prompt string, maxTokens int, reason string) (string, error) {
	if !i.router.IsAvailable(ctx) {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallLocalUnavailable,
			Reason:   i.router.AvailabilityMessage(),
		})
		return "", fmt.Errorf("no inference backend available: %s", i.router.AvailabilityMessage())
	}
	reply, err := i.router.Generate(ctx, privateSystemPrompt, prompt, maxTokens, 0.7)
	if err != nil {
		return "", err
	}
	i.records.Set(perception.CallRecord{
		ID:       id,
		Provider: perception.CallLocal,
		Engine:   i.router.Descriptor(),
		Reason:   reason,
	})
	return reply, nil
}

// AnswerFromDocuments answers a question grounded in the given document
// texts. Privacy of the question and the documents together decides the
// route; document content counts as much as the question itself.
func (i *Interpreter) AnswerFromDocuments(ctx context.Context, question string, documents []string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", ErrEmptyInstruction
	}
	id := uuid.NewString()

	contextText := strings.Join(documents, "\n\n---\n\n")
	prompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, q)

	if i.classifier.ContainsPrivate(prompt) {
		return i.answerLocal(ctx, id, prompt)
	}
	sanitized, placeholders, err := i.sanitizeForCloud(prompt)
	if err != nil {
		return i.answerLocal(ctx, id, prompt)
	}
	if !i.cloud.Configured() {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallCloudUnconfigured,
			Reason:   "pdf_question",
		})
		return i.answerLocal(ctx, id, prompt)
	}

	reply, err := i.cloud.Interpret(ctx, documentsCloudPrompt, sanitized)
	if err != nil {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallCloudError,
			Engine:   i.cloud.Model(),
			Reason:   err.Error(),
		})
		return i.answerLocal(ctx, id, prompt)
	}
	i.records.Set(perception.CallRecord{
		ID:       id,
		Provider: perception.CallCloud,
		Engine:   i.cloud.Model(),
		Reason:   "pdf_question",
	})
	restored, _ := i.vault.Restore(reply, placeholders).(string)
	if restored == "" {
		restored = reply
	}
	return restored, nil
}

func (i *Interpreter) answerLocal(ctx context.Context, id, prompt string) (string, error) {
	if !i.router.IsAvailable(ctx) {
		i.records.Set(perception.CallRecord{
			ID:       id,
			Provider: perception.CallLocalUnavailable,
			Reason:   i.router.AvailabilityMessage(),
		})
		return "", fmt.Errorf("no inference backend available: %s", i.router.AvailabilityMessage())
	}
	reply, err := i.router.Generate(ctx, documentsPrompt, prompt, 500, 0)
	if err != nil {
		return "", err
	}
	i.records.Set(perception.CallRecord{
		ID:       id,
		Provider: perception.CallLocal,
		Engine:   i.router.Descriptor(),
		Reason:   "pdf_question",
	})
	return reply, nil
}

// sanitizeForCloud replaces sensitive substrings with placeholders and
// confirms the result is clean. A still-sensitive result returns
// errStillSensitive and must never be sent over the network.
func (i *Interpreter) sanitizeForCloud(text string) (string, privacy.PlaceholderMap, error) {
	sanitized, placeholders := i.vault.Sanitize(text)
	if i.classifier.ContainsPrivate(sanitized) {
		return "", nil, errStillSensitive
	}
	return sanitized, placeholders, nil
}

// restore swaps placeholder tokens back to their originals in every
// payload the interpretation carries.
func (i *Interpreter) restore(interp *Interpretation, placeholders privacy.PlaceholderMap) {
	if len(placeholders) == 0 {
		return
	}
	for idx := range interp.Actions {
		if restored, ok := i.vault.Restore(interp.Actions[idx].Payload, placeholders).(map[string]any); ok {
			interp.Actions[idx].Payload = restored
		}
	}
	for idx := range interp.Clarifications {
		if interp.Clarifications[idx].Payload != nil {
			interp.Clarifications[idx].Payload = i.vault.Restore(interp.Clarifications[idx].Payload, placeholders)
		}
	}
}
