package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandWiring(t *testing.T) {
	want := []string{"tail", "bots", "meetings", "config", "auth", "version"}

	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}

	for _, name := range want {
		assert.True(t, have[name], "missing subcommand %q", name)
	}
}

func TestGlobalFlags(t *testing.T) {
	for _, name := range []string{"server", "timeout", "output", "debug"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing flag %q", name)
	}
}
