package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/jumuiya-app/jumuiya/internal/testing/guard"
)

func TestInTestMode(t *testing.T) {
	// The guard import sets JUMUIYA_TEST_MODE before this runs.
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("JUMUIYA_TEST_MODE", "0")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv("JUMUIYA_TEST_MODE", "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
