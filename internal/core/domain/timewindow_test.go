package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestParseWindow_Days tests the "Nd" relative form
func TestParseWindow_Days(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	got := ParseWindow("7d", now)
	assert.Equal(t, now.Add(-7*24*time.Hour), got)
}

// TestParseWindow_Date tests the YYYY-MM-DD form
func TestParseWindow_Date(t *testing.T) {
	got := ParseWindow("2025-06-01", time.Now())
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), got)
}

// TestParseWindow_RFC3339 tests the timestamp form
func TestParseWindow_RFC3339(t *testing.T) {
	got := ParseWindow("2025-06-01T08:30:00Z", time.Now())
	assert.Equal(t, time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC), got)
}

// TestParseWindow_Unparseable tests that garbage input means no filter
func TestParseWindow_Unparseable(t *testing.T) {
	now := time.Now()

	assert.True(t, ParseWindow("", now).IsZero())
	assert.True(t, ParseWindow("soon", now).IsZero())
	assert.True(t, ParseWindow("-3d", now).IsZero())
	assert.True(t, ParseWindow("0d", now).IsZero())
}
