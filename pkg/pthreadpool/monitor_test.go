package pthreadpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorFDUnsupportedOnSynchronousPool(t *testing.T) {
	p, err := Init(0, func(id int, fn func(payload any), payload any, signalArg any) int { return 0 }, nil)
	require.NoError(t, err)
	defer p.Destroy()

	_, err = p.MonitorFD()
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}

func TestMonitorFDInvalidAfterStop(t *testing.T) {
	p, err := Init(2, func(id int, fn func(payload any), payload any, signalArg any) int { return 0 }, nil)
	if err != nil {
		t.Skipf("async pool unavailable on this platform: %v", err)
	}
	defer p.Destroy()

	require.NoError(t, p.Stop())
	_, err = p.MonitorFD()
	require.Error(t, err)
	assert.True(t, IsInvalid(err))
}

func TestRestartCheckNoopWhenNothingQueued(t *testing.T) {
	p, err := Init(2, func(id int, fn func(payload any), payload any, signalArg any) int { return 0 }, nil)
	if err != nil {
		t.Skipf("async pool unavailable on this platform: %v", err)
	}
	defer p.Destroy()

	assert.NoError(t, p.RestartCheck())
}

func TestRestartCheckInvalidWhenStopped(t *testing.T) {
	p, err := Init(2, func(id int, fn func(payload any), payload any, signalArg any) int { return 0 }, nil)
	if err != nil {
		t.Skipf("async pool unavailable on this platform: %v", err)
	}
	require.NoError(t, p.Stop())
	err = p.RestartCheck()
	require.Error(t, err)
	assert.True(t, IsInvalid(err))
}
