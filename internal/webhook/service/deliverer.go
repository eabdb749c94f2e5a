// Package service provides the HTTP delivery and signing of webhook events.
package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/allisson/playbook/internal/webhook/domain"

	apperrors "github.com/allisson/playbook/internal/errors"
)

// Headers attached to every webhook delivery.
const (
	HeaderEventType = "X-Event-Type"
	HeaderEventID   = "X-Event-Id"
	HeaderSignature = "X-Playbook-Signature"
)

// DeliveryResult carries the receiver's reply for one attempt.
type DeliveryResult struct {
	StatusCode  int
	BodyExcerpt string
}

// Success reports whether the receiver acknowledged the delivery.
func (r *DeliveryResult) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Deliverer performs one webhook delivery attempt. A nil error with a non-2xx
// result means the receiver answered but refused; a non-nil error means the
// request never completed (DNS, connect, timeout).
type Deliverer interface {
	Deliver(ctx context.Context, endpoint *domain.Endpoint, event *domain.OutboxEvent) (*DeliveryResult, error)
}

// HTTPDeliverer posts signed events to webhook endpoints.
type HTTPDeliverer struct {
	client *http.Client
	// defaultSecret signs deliveries for endpoints that have no secret of
	// their own. Empty means those deliveries go out unsigned.
	defaultSecret string
}

// NewHTTPDeliverer creates a new HTTPDeliverer with the given attempt timeout
// and process-wide fallback signing secret.
func NewHTTPDeliverer(timeout time.Duration, defaultSecret string) *HTTPDeliverer {
	return &HTTPDeliverer{
		client:        &http.Client{Timeout: timeout},
		defaultSecret: defaultSecret,
	}
}

// Sign computes the signature header value for a payload:
// "sha256=" followed by the hex HMAC-SHA256 of the body under the secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver posts the stored payload bytes to the endpoint. The signature is
// computed over exactly the bytes sent, so receivers can verify with a
// byte-for-byte HMAC of the request body.
func (d *HTTPDeliverer) Deliver(
	ctx context.Context,
	endpoint *domain.Endpoint,
	event *domain.OutboxEvent,
) (*DeliveryResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(event.Payload))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build delivery request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEventType, event.EventType)
	req.Header.Set(HeaderEventID, event.ID.String())

	// Endpoint secret wins over the process-wide default. With neither set
	// the delivery goes out without a signature header.
	secret := endpoint.Secret
	if secret == "" {
		secret = d.defaultSecret
	}
	if secret != "" {
		req.Header.Set(HeaderSignature, Sign(secret, event.Payload))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "delivery request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	result := &DeliveryResult{StatusCode: resp.StatusCode}
	if !result.Success() {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, domain.MaxBodyExcerptLen))
		result.BodyExcerpt = string(excerpt)
	}

	return result, nil
}
