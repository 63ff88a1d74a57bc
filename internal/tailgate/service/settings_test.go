package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/tailgate/server/internal/tailgate/service"
)

func TestSettings_SetWindow(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.settings.SetWindow(1))
	require.NoError(t, h.settings.SetWindow(60))
	assert.Equal(t, 60, h.settings.Window())
	assert.Equal(t, 60, h.correlator.Window().Seconds())

	assert.ErrorIs(t, h.settings.SetWindow(0), service.ErrWindowOutOfRange)
	assert.ErrorIs(t, h.settings.SetWindow(61), service.ErrWindowOutOfRange)
	assert.Equal(t, 60, h.settings.Window(), "rejected value leaves window unchanged")
}

func TestSettings_SetMode(t *testing.T) {
	h := newHarness()
	assert.Equal(t, service.ModeTailgating, h.settings.Mode())

	mode, err := h.settings.SetMode("LineCrossing")
	require.NoError(t, err)
	assert.Equal(t, service.ModeLineCrossing, mode)
	assert.Equal(t, service.ModeLineCrossing, h.settings.Mode())

	_, err = h.settings.SetMode("prod")
	assert.ErrorIs(t, err, service.ErrInvalidMode)
	assert.Equal(t, service.ModeLineCrossing, h.settings.Mode())
}
