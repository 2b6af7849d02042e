package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestUsageOnWrongArgCount(t *testing.T) {
	for _, args := range [][]string{{}, {"a"}, {"a", "b", "c", "d"}} {
		var out bytes.Buffer
		cmd := newRootCmd(zaptest.NewLogger(t))
		cmd.SetArgs(args)
		cmd.SetOut(&out)

		require.NoError(t, cmd.Execute())
		assert.Equal(t, usage+"\n", out.String())
	}
}
