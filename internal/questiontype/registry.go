package questiontype

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"survai/internal/model"
)

var (
	ErrUnknownType = errors.New("unknown question type")
	ErrRequired    = errors.New("answer is required")
)

// Handler bundles the behavior of one question type
type Handler interface {
	Type() model.QuestionType
	DisplayName() string
	// Validate checks a non-empty answer value
	Validate(value string, options []string) error
	// PromptFragment describes the type to an AI model
	PromptFragment() string
	// Sample returns a plausible synthetic answer
	Sample(rng *rand.Rand, options []string) string
}

// freeTexter is implemented by handlers whose answers are open prose
type freeTexter interface {
	FreeText() bool
}

// Registry maps question types to handlers. It is built once and never
// mutated, so it is safe to share between goroutines.
type Registry struct {
	handlers map[model.QuestionType]Handler
}

// NewRegistry builds a registry. A later handler for the same type wins.
func NewRegistry(handlers ...Handler) *Registry {
	m := make(map[model.QuestionType]Handler, len(handlers))
	for _, h := range handlers {
		m[h.Type()] = h
	}
	return &Registry{handlers: m}
}

// Default returns a registry with every built-in type
func Default() *Registry {
	return NewRegistry(
		TextHandler{},
		ScaleHandler{Min: 1, Max: 10},
		PickOneHandler{},
		PickAnyHandler{},
		EmailHandler{},
		URLHandler{},
		NumberHandler{},
		DateHandler{},
	)
}

// Lookup returns the handler for t
func (r *Registry) Lookup(t model.QuestionType) (Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}

// Types lists the registered types in name order
func (r *Registry) Types() []model.QuestionType {
	out := make([]model.QuestionType, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Supports reports whether t is registered
func (r *Registry) Supports(t model.QuestionType) bool {
	_, ok := r.handlers[t]
	return ok
}

// IsFreeText reports whether answers of type t are prose suitable for
// sentiment and theme analysis
func (r *Registry) IsFreeText(t model.QuestionType) bool {
	ft, ok := r.handlers[t].(freeTexter)
	return ok && ft.FreeText()
}

// ValidateAnswer checks value against the question. Blank values are
// only rejected for required questions.
func (r *Registry) ValidateAnswer(q model.Question, value string) error {
	h, ok := r.handlers[q.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, q.Type)
	}
	if isBlank(value) {
		if q.Required {
			return fmt.Errorf("question %s: %w", q.ID, ErrRequired)
		}
		return nil
	}
	if err := h.Validate(value, q.Options); err != nil {
		return fmt.Errorf("question %s: %w", q.ID, err)
	}
	return nil
}

// Sample produces a synthetic answer for q, or "" for unknown types
func (r *Registry) Sample(rng *rand.Rand, q model.Question) string {
	h, ok := r.handlers[q.Type]
	if !ok {
		return ""
	}
	return h.Sample(rng, q.Options)
}
