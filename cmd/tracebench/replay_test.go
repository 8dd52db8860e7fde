package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/segalloc/segalloc/malloc"
	"github.com/segalloc/segalloc/memlib"
)

func testConfig() malloc.Config {
	return malloc.Config{
		Provider:      memlib.NewReservedProvider(1 << 20),
		InitialGrowth: 4096,
		DebugChecks:   true,
	}
}

func TestReplaySimpleTrace(t *testing.T) {
	ops := []op{
		{kind: opAlloc, id: 0, size: 100},
		{kind: opAlloc, id: 1, size: 200},
		{kind: opFree, id: 0},
		{kind: opResize, id: 1, size: 50},
		{kind: opFree, id: 1},
	}

	r, err := replay("inline", ops, testConfig())
	require.NoError(t, err)
	require.Equal(t, 5, r.ops)
	require.GreaterOrEqual(t, r.peakLive, 300)
}

func TestReplayFreeOfUnknownIDErrors(t *testing.T) {
	ops := []op{{kind: opFree, id: 7}}
	_, err := replay("inline", ops, testConfig())
	require.Error(t, err)
}

func TestReplayResizeWithoutPriorAllocActsLikeAlloc(t *testing.T) {
	ops := []op{
		{kind: opResize, id: 0, size: 64},
		{kind: opFree, id: 0},
	}
	r, err := replay("inline", ops, testConfig())
	require.NoError(t, err)
	require.Equal(t, 2, r.ops)
}
