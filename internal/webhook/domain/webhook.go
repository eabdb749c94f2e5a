// Package domain defines the webhook delivery entities: endpoints that
// receive events, and the transactional outbox rows that carry them there.
package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/playbook/internal/errors"
)

// OutboxEventStatus represents the delivery state of an outbox event.
type OutboxEventStatus string

const (
	// OutboxEventStatusPending means the event has never been attempted.
	OutboxEventStatusPending OutboxEventStatus = "PENDING"
	// OutboxEventStatusDelivered means the receiver acknowledged with a 2xx.
	OutboxEventStatusDelivered OutboxEventStatus = "DELIVERED"
	// OutboxEventStatusRetry means a failed attempt is waiting for its backoff.
	OutboxEventStatusRetry OutboxEventStatus = "RETRY"
	// OutboxEventStatusFailed means the attempt ceiling was reached; the event
	// is dead-lettered and never picked up again.
	OutboxEventStatusFailed OutboxEventStatus = "FAILED"
)

// Limits applied when recording delivery outcomes.
const (
	// MaxLastErrorLen caps the stored last_error text.
	MaxLastErrorLen = 2000
	// MaxBodyExcerptLen caps the response body excerpt kept from non-2xx replies.
	MaxBodyExcerptLen = 300
	// MaxBackoff caps the exponential retry delay.
	MaxBackoff = 60 * time.Minute
)

// Endpoint is a webhook receiver. SubscribedEvents narrows which event types
// it gets; an empty list subscribes it to everything.
type Endpoint struct {
	ID               uuid.UUID
	Name             string
	URL              string
	Secret           string
	SubscribedEvents []string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Matches reports whether the endpoint subscribes to the event type.
func (e *Endpoint) Matches(eventType string) bool {
	if len(e.SubscribedEvents) == 0 {
		return true
	}
	return slices.Contains(e.SubscribedEvents, eventType)
}

// OutboxEvent is one pending delivery of one event to one endpoint. The
// payload is marshalled once at enqueue time and the stored bytes are what
// gets signed and sent, so the signature never drifts from the body.
//
// ClaimedBy/ClaimedUntil implement a lease: a dispatcher claims due events
// under a row lock before delivering outside the transaction. A crashed
// dispatcher's claims expire and the events become due again.
type OutboxEvent struct {
	ID             uuid.UUID
	EndpointID     uuid.UUID
	EventType      string
	Payload        []byte
	Status         OutboxEventStatus
	Attempts       int
	NextAttemptAt  time.Time
	DeliveredAt    *time.Time
	LastError      *string
	LastStatusCode *int
	ClaimedBy      *uuid.UUID
	ClaimedUntil   *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NextBackoff returns the delay before the given attempt number is retried:
// 1m, 2m, 4m, ... doubling per attempt and capped at MaxBackoff.
func NextBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	backoff := time.Minute
	for i := 1; i < attempts; i++ {
		backoff *= 2
		if backoff >= MaxBackoff {
			return MaxBackoff
		}
	}
	return backoff
}

// TruncateError trims an error message to fit the stored column.
func TruncateError(message string) string {
	if len(message) > MaxLastErrorLen {
		return message[:MaxLastErrorLen]
	}
	return message
}

// Domain-specific errors for webhook operations.
var (
	// ErrEndpointNotFound indicates the requested endpoint does not exist.
	ErrEndpointNotFound = errors.Wrap(errors.ErrNotFound, "endpoint not found")

	// ErrEventNotFound indicates the requested outbox event does not exist.
	ErrEventNotFound = errors.Wrap(errors.ErrNotFound, "outbox event not found")

	// ErrEndpointExists indicates an endpoint with the same URL already exists.
	ErrEndpointExists = errors.Wrap(errors.ErrConflict, "endpoint already exists")
)
