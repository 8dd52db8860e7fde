package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTraceBasic(t *testing.T) {
	src := `
# a comment, then a blank line

a 0 64
a 1 128
f 0
r 1 256
f 1
`
	ops, err := parseTrace(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, []op{
		{kind: opAlloc, id: 0, size: 64},
		{kind: opAlloc, id: 1, size: 128},
		{kind: opFree, id: 0},
		{kind: opResize, id: 1, size: 256},
		{kind: opFree, id: 1},
	}, ops)
}

func TestParseTraceRejectsMalformedLines(t *testing.T) {
	tests := []string{
		"a 0",
		"a 0 64 extra",
		"f",
		"r 0",
		"x 0 0",
		"a notanumber 64",
	}
	for _, src := range tests {
		_, err := parseTrace(strings.NewReader(src))
		require.Error(t, err, "expected error for line %q", src)
	}
}
