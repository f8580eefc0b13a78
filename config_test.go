package tbucket

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigurationValid(t *testing.T) {
	cfg, err := NewConfiguration(time.Second, 10, 500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.RefreshPeriod())
	assert.EqualValues(t, 10, cfg.LimitForPeriod())
	assert.Equal(t, 500*time.Millisecond, cfg.AcquireTimeout())
}

func TestNewConfigurationRejectsZeroRefreshPeriod(t *testing.T) {
	_, err := NewConfiguration(0, 10, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestNewConfigurationRejectsNonPositiveLimit(t *testing.T) {
	_, err := NewConfiguration(time.Second, 0, 0)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewConfigurationRejectsNegativeTimeout(t *testing.T) {
	_, err := NewConfiguration(time.Second, 1, -time.Second)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestWithDrainOnResultDefaultsToNeverDraining(t *testing.T) {
	cfg, err := NewConfiguration(time.Second, 1, 0)
	require.NoError(t, err)
	assert.False(t, cfg.drainOnResult(Outcome{Permits: 1, Success: true}))
}

func TestWithDrainOnResultCustomPredicate(t *testing.T) {
	cfg, err := NewConfiguration(time.Second, 1, 0, WithDrainOnResult(func(o Outcome) bool {
		return !o.Success
	}))
	require.NoError(t, err)
	assert.True(t, cfg.drainOnResult(Outcome{Success: false}))
	assert.False(t, cfg.drainOnResult(Outcome{Success: true}))
}
