package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := New("test", 2, time.Hour)

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.False(t, b.Allow())
	assert.Equal(t, StateOpen, b.CurrentState())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := New("test", 1, 10*time.Millisecond)

	b.RecordFailure()
	assert.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.CurrentState())

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.CurrentState())
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	b := New("test", 1, 10*time.Millisecond)

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.CurrentState())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("test", 2, time.Hour)

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.True(t, b.Allow())
}
