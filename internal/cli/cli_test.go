package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PRICING_CONVENTION", "divisive")
	t.Setenv("PRICING_DEFAULT_SINGLE_RATE", "")
	t.Setenv("PRICING_DEFAULT_INSTALLMENT_RATE", "")
	resetFlags(t, rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default so commands run in one
// process do not see each other's arguments.
func resetFlags(t *testing.T, c *cobra.Command) {
	t.Helper()
	c.Flags().VisitAll(func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(t, sub)
	}
}

func TestPrice_Divisive(t *testing.T) {
	out, err := runCLI(t, "price", "65.000", "--single", "0,97", "--installment", "0,93")
	require.NoError(t, err)
	assert.Contains(t, out, "convention:      divisive")
	assert.Contains(t, out, "cash:            ₺65.000")
	assert.Contains(t, out, "single payment:  ₺67.010")
	assert.Contains(t, out, "installment:     ₺69.892")
}

func TestPrice_Multiplicative(t *testing.T) {
	out, err := runCLI(t, "price", "10000", "--convention", "multiplicative", "--single", "1.05", "--installment", "1.10")
	require.NoError(t, err)
	assert.Contains(t, out, "single payment:  ₺10.500")
	assert.Contains(t, out, "installment:     ₺11.000")
}

func TestPrice_RejectsRateOfOtherConvention(t *testing.T) {
	_, err := runCLI(t, "price", "10000", "--single", "1.05", "--installment", "0.93")
	assert.Error(t, err)
}

func TestPrice_RejectsUnknownConvention(t *testing.T) {
	_, err := runCLI(t, "price", "10000", "--convention", "additive")
	assert.Error(t, err)
}

func TestPrice_RequiresCash(t *testing.T) {
	_, err := runCLI(t, "price")
	assert.Error(t, err)
}

func TestAdminCreate_RequiresEmailAndPassword(t *testing.T) {
	_, err := runCLI(t, "admin", "create", "--name", "Derya")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestMigrateDown_RejectsNonPositiveSteps(t *testing.T) {
	_, err := runCLI(t, "migrate", "down", "--steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps must be positive")
}
