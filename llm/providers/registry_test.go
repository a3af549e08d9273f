package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/server/llm/providers/providertest"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	fp := providertest.NewFakeProvider()

	reg.Register(fp)

	got, err := reg.Get("fake")
	require.NoError(t, err)
	assert.Equal(t, fp, got)
	assert.Equal(t, []string{"fake"}, reg.List())
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider not found")
}
