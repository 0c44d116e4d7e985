package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianliuyang/pacaya/internal/erma"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New("test")
	var out bytes.Buffer
	c.rootCmd.SetOut(&out)
	c.rootCmd.SetErr(&out)
	c.rootCmd.SetArgs(append([]string{"--silent"}, args...))
	err := c.Run()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "erma test\n", out)
}

func TestGradcheck(t *testing.T) {
	for _, args := range [][]string{
		{"--graph", "chain"},
		{"--graph", "loopy", "--update-order", "parallel", "--log-domain"},
		{"--graph", "exactly-one", "--schedule", "fixed"},
		{"--graph", "single", "--spsa-samples", "200"},
	} {
		t.Run(args[1], func(t *testing.T) {
			out, err := execute(t, append([]string{"gradcheck"}, args...)...)
			require.NoError(t, err, out)
			assert.Contains(t, out, "inf-norm difference")
		})
	}
}

func TestGradcheckFailsAboveTolerance(t *testing.T) {
	out, err := execute(t, "gradcheck", "--graph", "chain", "--tolerance", "0")
	require.ErrorIs(t, err, errGradient)
	assert.Contains(t, out, "gradient check failed")
}

func TestGradcheckBadFlags(t *testing.T) {
	_, err := execute(t, "gradcheck", "--schedule", "spiral")
	require.ErrorIs(t, err, erma.ErrConfiguration)

	_, err = execute(t, "gradcheck", "--graph", "grid")
	require.ErrorContains(t, err, "unknown scenario")

	_, err = execute(t, "gradcheck", "--bp-iterations", "0")
	require.ErrorIs(t, err, erma.ErrConfiguration)
}

func TestDecode(t *testing.T) {
	out, err := execute(t, "decode", "--graph", "chain", "--bp-iterations", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "graph chain: 1 sweeps")
	assert.Contains(t, out, "x2")

	// Max-product rejects the global factor; the other columns still print.
	out, err = execute(t, "decode", "--graph", "exactly-one")
	require.NoError(t, err)
	assert.Contains(t, out, "y3")
}

func TestTrain(t *testing.T) {
	out, err := execute(t, "train", "--examples", "8", "--epochs", "5", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "final loss")
	assert.Contains(t, out, "params [")

	_, err = execute(t, "train", "--optimizer", "lbfgs")
	require.ErrorIs(t, err, erma.ErrConfiguration)
}
