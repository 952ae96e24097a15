// AngelaMos | 2026
// workflow.go

package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/internal/order"
)

var (
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrIllegalTransition = errors.New("illegal checkout transition")
)

type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateSubmitting       State = "submitting"
	StateSuccess          State = "success"
	StateValidationFailed State = "validation_failed"
	StateSubmitFailed     State = "submit_failed"
)

var transitions = map[State][]State{
	StateIdle:             {StateValidating},
	StateValidating:       {StateSubmitting, StateValidationFailed},
	StateSubmitting:       {StateSuccess, StateSubmitFailed},
	StateValidationFailed: {StateValidating},
	StateSubmitFailed:     {StateValidating},
}

// Attempt records one pass through the checkout state machine. A failed
// attempt keeps the submitted form so the buyer can retry.
type Attempt struct {
	mu      sync.Mutex
	state   State
	history []State

	Form   Form
	Fields map[string]string
	Order  *order.Order
	Err    error
}

func NewAttempt(form Form) *Attempt {
	return &Attempt{state: StateIdle, history: []State{StateIdle}, Form: form}
}

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Attempt) History() []State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]State(nil), a.history...)
}

func (a *Attempt) to(next State) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, allowed := range transitions[a.state] {
		if allowed == next {
			a.state = next
			a.history = append(a.history, next)
			return nil
		}
	}
	return fmt.Errorf("%s -> %s: %w", a.state, next, ErrIllegalTransition)
}

// Placement is the order row a valid checkout writes.
type Placement struct {
	UserID    string
	ProductID string
	Form      Form
	Status    string
}

type Store interface {
	// PlaceOrder re-reads the product and inserts the order at its current
	// price, failing with ErrOutOfStock when stock is exhausted.
	PlaceOrder(ctx context.Context, p Placement) (*order.Order, error)
}

type Workflow struct {
	store          Store
	paymentMethods []string
	initialStatus  string
	logger         *slog.Logger
}

func NewWorkflow(store Store, paymentMethods []string, initialStatus string, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		store:          store,
		paymentMethods: paymentMethods,
		initialStatus:  initialStatus,
		logger:         logger,
	}
}

func (w *Workflow) PaymentMethods() []string {
	return append([]string(nil), w.paymentMethods...)
}

// Submit runs validation and, when it passes, the order write. The returned
// attempt is always in a terminal state.
func (w *Workflow) Submit(ctx context.Context, userID, productID string, form Form) *Attempt {
	a := NewAttempt(form)
	w.run(ctx, a, userID, productID)
	return a
}

// Retry re-runs a failed attempt with an edited form.
func (w *Workflow) Retry(ctx context.Context, a *Attempt, userID, productID string, form Form) error {
	switch a.State() {
	case StateValidationFailed, StateSubmitFailed:
	default:
		return fmt.Errorf("retry from %s: %w", a.State(), ErrIllegalTransition)
	}

	a.Form, a.Fields, a.Order, a.Err = form, nil, nil, nil
	w.run(ctx, a, userID, productID)
	return nil
}

func (w *Workflow) run(ctx context.Context, a *Attempt, userID, productID string) {
	_ = a.to(StateValidating) //nolint:errcheck // idle and failed states both allow it

	if fields := a.Form.Validate(w.paymentMethods); len(fields) > 0 {
		a.Fields = fields
		_ = a.to(StateValidationFailed) //nolint:errcheck
		return
	}

	_ = a.to(StateSubmitting) //nolint:errcheck

	ctx, span := core.StartSpan(ctx, "checkout.place_order",
		attribute.String("product_id", productID),
		attribute.String("payment_method", a.Form.PaymentMethod),
	)
	defer span.End()

	placed, err := w.store.PlaceOrder(ctx, Placement{
		UserID:    userID,
		ProductID: productID,
		Form:      a.Form.Normalized(),
		Status:    w.initialStatus,
	})
	if err != nil {
		a.Err = err
		core.SetSpanError(ctx, err)
		_ = a.to(StateSubmitFailed) //nolint:errcheck
		w.logger.Info("checkout rejected",
			"user_id", userID,
			"product_id", productID,
			"error", err,
		)
		return
	}

	a.Order = placed
	_ = a.to(StateSuccess) //nolint:errcheck
	w.logger.Info("order placed",
		"order_id", placed.ID,
		"user_id", userID,
		"product_id", productID,
		"total_price", placed.TotalPrice,
	)
}
