package providers

import (
	"context"
)

// Outcome is the closed set of provider responses the dispatcher reacts to.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeAuthFailed
	OutcomeDestinationRejected
	OutcomeRateLimited
	OutcomeTransportFailed
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeAuthFailed:
		return "auth_failed"
	case OutcomeDestinationRejected:
		return "destination_rejected"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeTransportFailed:
		return "transport_failed"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is what a provider reports for a single submission.
type Result struct {
	Outcome   Outcome
	MessageID string // Provider-assigned id, set when accepted.
	Detail    string // Provider or transport error text.
}

// Accepted builds a successful result.
func Accepted(id string) Result { return Result{Outcome: OutcomeAccepted, MessageID: id} }

// Failed builds a failed result with the given outcome.
func Failed(o Outcome, detail string) Result { return Result{Outcome: o, Detail: detail} }

// Provider defines the interface of an SMS gateway.
// Implementations never return Go errors; every failure is mapped to an Outcome.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Submit hands one payload to the gateway.
	Submit(ctx context.Context, sender, destination, payload string) Result

	// ProbeURL is the endpoint used by the connectivity pre-check.
	ProbeURL() string

	// Sender is the configured sender identity (phone number or empty).
	Sender() string
}
