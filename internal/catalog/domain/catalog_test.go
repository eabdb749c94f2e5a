package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionIsFuture(t *testing.T) {
	now := time.Now()

	future := &Session{StartAt: now.Add(time.Hour)}
	assert.True(t, future.IsFuture(now))

	started := &Session{StartAt: now}
	assert.False(t, started.IsFuture(now), "a session starting exactly now is closed")

	past := &Session{StartAt: now.Add(-time.Hour)}
	assert.False(t, past.IsFuture(now))
}
