package assert_test

import (
	"testing"

	"github.com/katalvlaran/forest/internal/assert"
	"github.com/stretchr/testify/require"
)

func TestInvariantPassesSilently(t *testing.T) {
	require.NotPanics(t, func() { assert.Invariant(true, "unreachable") })
}

func TestInvariantPanicsOnFalse(t *testing.T) {
	require.PanicsWithValue(t, "forest: invariant violated: boom", func() {
		assert.Invariant(false, "boom")
	})
}

func TestInvariantfFormats(t *testing.T) {
	require.PanicsWithValue(t, "forest: invariant violated: want 3 got 4", func() {
		assert.Invariantf(false, "want %d got %d", 3, 4)
	})
}
