// Package tools holds the operation registry and the dispatcher that validates,
// invokes and normalizes tool calls.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Handler executes one operation with arguments that already passed schema
// validation. A non-nil error is rendered as text in the result envelope.
type Handler func(ctx context.Context, args json.RawMessage) (Envelope, error)

// Descriptor is a registered operation.
type Descriptor struct {
	Name        string
	Description string
	Handler     Handler

	schema *inputSchema
}

// InputSchema returns the JSON schema document the arguments are validated against.
func (d *Descriptor) InputSchema() json.RawMessage { return d.schema.raw }

// CatalogEntry describes an operation for listing purposes.
type CatalogEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Outcome classifies how an invocation ended.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeFailed           Outcome = "failed"
	OutcomePanicked         Outcome = "panicked"
	OutcomeInvalidArguments Outcome = "invalid_arguments"
	OutcomeUnknown          Outcome = "unknown_operation"
)

// Invocation is reported to the Observer once per Dispatch call.
type Invocation struct {
	ID        string
	Operation string
	Outcome   Outcome
	Duration  time.Duration
}

// Observer receives invocation reports.
type Observer interface {
	ObserveInvocation(ctx context.Context, inv Invocation)
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver attaches an invocation observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// Registry maps operation names to descriptors.
type Registry struct {
	logger   zerolog.Logger
	observer Observer

	mu          sync.RWMutex
	descriptors map[string]*Descriptor
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger zerolog.Logger, opts ...Option) *Registry {
	r := &Registry{
		logger:      logger,
		descriptors: make(map[string]*Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an operation. It fails if the name is taken or the schema does not compile.
func (r *Registry) Register(name, description string, schema []byte, handler Handler) error {
	if name == "" {
		return errors.New("operation name is required")
	}
	if handler == nil {
		return fmt.Errorf("operation %q: handler is nil", name)
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("operation %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.descriptors[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateOperation, name)
	}
	r.descriptors[name] = &Descriptor{
		Name:        name,
		Description: description,
		Handler:     handler,
		schema:      compiled,
	}
	r.logger.Debug().Str("operation", name).Msg("operation registered")
	return nil
}

// MustRegister is Register for start-up wiring; it panics on error.
func (r *Registry) MustRegister(name, description string, schema []byte, handler Handler) {
	if err := r.Register(name, description, schema, handler); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[name]
	return d, ok
}

// Names returns the registered operation names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog lists every operation, sorted by name.
func (r *Registry) Catalog() []CatalogEntry {
	names := r.Names()
	out := make([]CatalogEntry, 0, len(names))
	for _, name := range names {
		d, ok := r.Lookup(name)
		if !ok {
			continue
		}
		out = append(out, CatalogEntry{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema(),
		})
	}
	return out
}

// Dispatch looks up, validates and runs an operation.
//
// The returned error is non-nil only for protocol-level problems: an
// *UnknownOperationError or an *InvalidArgumentsError. Handler errors and
// panics are converted into the envelope.
func (r *Registry) Dispatch(ctx context.Context, name string, raw json.RawMessage) (env Envelope, err error) {
	inv := Invocation{ID: uuid.NewString(), Operation: name}
	start := time.Now()
	logger := r.logger.With().Str("invocation_id", inv.ID).Str("operation", name).Logger()
	defer func() {
		inv.Duration = time.Since(start)
		r.report(ctx, logger, inv)
	}()

	d, ok := r.Lookup(name)
	if !ok {
		inv.Outcome = OutcomeUnknown
		return Envelope{}, &UnknownOperationError{Name: name}
	}

	args := normalizeArgs(raw)
	if violations := d.schema.validate(args); len(violations) > 0 {
		inv.Outcome = OutcomeInvalidArguments
		return Envelope{}, &InvalidArgumentsError{Operation: name, Violations: violations}
	}

	env, inv.Outcome = r.invoke(logger.WithContext(ctx), logger, d, args)
	return env, nil
}

func (r *Registry) invoke(ctx context.Context, logger zerolog.Logger, d *Descriptor, args json.RawMessage) (env Envelope, outcome Outcome) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error().Interface("panic", p).Msg("handler panicked")
			env, outcome = Text(fmt.Sprint(p)), OutcomePanicked
		}
	}()

	env, err := d.Handler(ctx, args)
	if err != nil {
		logger.Warn().Err(err).Msg("handler failed")
		return FromError(err), OutcomeFailed
	}
	return normalize(env), OutcomeOK
}

func (r *Registry) report(ctx context.Context, logger zerolog.Logger, inv Invocation) {
	logger.Debug().
		Str("outcome", string(inv.Outcome)).
		Dur("duration", inv.Duration).
		Msg("invocation finished")
	if r.observer != nil {
		r.observer.ObserveInvocation(ctx, inv)
	}
}
