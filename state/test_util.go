package state

import (
	"context"
	"testing"

	"github.com/avionics-lab/simbridge/log2"
)

// NewTestContext builds Global from inline config, sending to loopback.
// Stopped by t.Cleanup.
func NewTestContext(t testing.TB, confString string) (context.Context, *Global) {
	fs := NewMockFullReader(map[string]string{
		"test-base":   `transport { bind_addr = "127.0.0.1:0" dest_prefix = "127.0.0." port = 9 }`,
		"test-inline": confString,
	})

	log := log2.NewTest(t, log2.LDebug)
	// log := log2.NewStderr(log2.LDebug) // useful with panics
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log)
	g.MustInit(ctx, MustReadConfig(log, fs, "test-base", "test-inline"))
	t.Cleanup(g.Stop)
	return ctx, g
}
