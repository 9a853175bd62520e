package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JOBBOARD_CONFIG", "")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	return root.Execute()
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver=postgres")
}

func TestSweep_RequiresStripeKey(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	err := run(t, "sweep", "--window", "1h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe.secret_key")
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "reconciler", root.Use)
	assert.True(t, root.SilenceUsage)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"sweep", "watch", "migrate"}, names)
}
