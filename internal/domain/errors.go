package domain

import "fmt"

// Error types for consistent error handling across the backend.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call
// (the generative backend, typically). Distinguishable from a parse
// failure: transport errors may be retried, parse failures are not.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrMalformedAIResponse indicates the generative backend replied, but the
// text was not parseable as JSON even after brace-span salvage. Raw holds a
// bounded prefix of the reply for diagnostics.
type ErrMalformedAIResponse struct {
	Raw string
}

const malformedRawLimit = 500

func (e *ErrMalformedAIResponse) Error() string {
	return fmt.Sprintf("AI returned invalid data format: %q", e.Raw)
}

// NewErrMalformedAIResponse bounds the raw text before storing it.
func NewErrMalformedAIResponse(raw string) *ErrMalformedAIResponse {
	if len(raw) > malformedRawLimit {
		raw = raw[:malformedRawLimit]
	}
	return &ErrMalformedAIResponse{Raw: raw}
}

// ErrNoRecipient indicates email drafting found no author email in the
// supplied interaction history.
type ErrNoRecipient struct {
	DealID string
}

func (e *ErrNoRecipient) Error() string {
	return fmt.Sprintf("could not find a contact email for deal %s", e.DealID)
}

// ErrInvalidTransition indicates a proposal status move the state machine
// does not allow.
type ErrInvalidTransition struct {
	From ProposalStatus
	To   ProposalStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid proposal transition: %s -> %s", e.From, e.To)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
