package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	p, shutdown, err := Init(context.Background(), Config{Enabled: false, ServiceName: "appliancectl"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.Nil(t, p.Meter)
	assert.Nil(t, p.LogHandler)
	assert.Nil(t, p.MeterFor("vmrun"))
	assert.NoError(t, shutdown(context.Background()))
}

func TestGoVersion(t *testing.T) {
	assert.Contains(t, GoVersion(), "go")
}
