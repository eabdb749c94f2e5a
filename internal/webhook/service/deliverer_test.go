package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/playbook/internal/webhook/domain"
)

func TestSign(t *testing.T) {
	// Known vector: HMAC-SHA256("secret", `{"hello":"world"}`)
	body := []byte(`{"hello":"world"}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, Sign("secret", body))
}

func TestHTTPDeliverer_Deliver(t *testing.T) {
	event := &domain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: "registration.created",
		Payload:   []byte(`{"type":"registration.created","data":{}}`),
	}

	t.Run("signed request is acknowledged", func(t *testing.T) {
		var gotSignature, gotEventType, gotEventID, gotContentType string
		var gotBody []byte

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotSignature = r.Header.Get(HeaderSignature)
			gotEventType = r.Header.Get(HeaderEventType)
			gotEventID = r.Header.Get(HeaderEventID)
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		endpoint := &domain.Endpoint{URL: server.URL, Secret: "secret"}
		deliverer := NewHTTPDeliverer(8*time.Second, "")

		result, err := deliverer.Deliver(context.Background(), endpoint, event)

		require.NoError(t, err)
		assert.True(t, result.Success())
		assert.Equal(t, event.Payload, gotBody)
		assert.Equal(t, "registration.created", gotEventType)
		assert.Equal(t, event.ID.String(), gotEventID)
		assert.Equal(t, "application/json", gotContentType)

		// Receiver-side verification of the signature over the received bytes.
		assert.Equal(t, Sign("secret", gotBody), gotSignature)
	})

	t.Run("endpoint without a secret falls back to the default", func(t *testing.T) {
		var gotSignature string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotSignature = r.Header.Get(HeaderSignature)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		endpoint := &domain.Endpoint{URL: server.URL}
		deliverer := NewHTTPDeliverer(8*time.Second, "process-default")

		result, err := deliverer.Deliver(context.Background(), endpoint, event)

		require.NoError(t, err)
		assert.True(t, result.Success())
		assert.Equal(t, Sign("process-default", event.Payload), gotSignature)
	})

	t.Run("no secret anywhere sends no signature header", func(t *testing.T) {
		var hadSignature bool

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hadSignature = r.Header[HeaderSignature]
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		endpoint := &domain.Endpoint{URL: server.URL}
		deliverer := NewHTTPDeliverer(8*time.Second, "")

		result, err := deliverer.Deliver(context.Background(), endpoint, event)

		require.NoError(t, err)
		assert.True(t, result.Success())
		assert.False(t, hadSignature)
	})

	t.Run("non-2xx keeps a capped body excerpt", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(strings.Repeat("e", 1000)))
		}))
		defer server.Close()

		endpoint := &domain.Endpoint{URL: server.URL, Secret: "secret"}
		deliverer := NewHTTPDeliverer(8*time.Second, "")

		result, err := deliverer.Deliver(context.Background(), endpoint, event)

		require.NoError(t, err)
		assert.False(t, result.Success())
		assert.Equal(t, http.StatusBadGateway, result.StatusCode)
		assert.Len(t, result.BodyExcerpt, domain.MaxBodyExcerptLen)
	})

	t.Run("unreachable endpoint returns an error", func(t *testing.T) {
		endpoint := &domain.Endpoint{URL: "http://127.0.0.1:1", Secret: "secret"}
		deliverer := NewHTTPDeliverer(time.Second, "")

		result, err := deliverer.Deliver(context.Background(), endpoint, event)

		assert.Nil(t, result)
		assert.Error(t, err)
	})
}
