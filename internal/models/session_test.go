package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFocusSession_Deadline(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	s := &FocusSession{StartedAt: start, DurationMinutes: 25}

	assert.Equal(t, start.Add(25*time.Minute), s.Deadline())
}

func TestFocusSession_IsExpired(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	s := &FocusSession{StartedAt: start, DurationMinutes: 25}
	skew := 5 * time.Second

	assert.False(t, s.IsExpired(start.Add(10*time.Minute), skew))
	assert.False(t, s.IsExpired(start.Add(25*time.Minute+skew), skew), "deadline plus skew is still live")
	assert.True(t, s.IsExpired(start.Add(25*time.Minute+skew+time.Second), skew))
}
