// Main mode: sample variables, publish telemetry until signal.
package run

import (
	"context"
	"expvar"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"

	"github.com/avionics-lab/simbridge/cmd/simbridge/subcmd"
	"github.com/avionics-lab/simbridge/state"
)

var Mod = subcmd.Mod{Name: "run", Desc: "relay flight variables to telemetry topics", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	expvar.Publish("simbridge.topics", g.Stats)

	if err := g.Start(ctx); err != nil {
		g.Stop()
		return errors.Annotate(err, "start")
	}
	subcmd.SdNotify(daemon.SdNotifyReady)
	local := "disabled"
	if g.Transport != nil {
		local = g.Transport.LocalAddr().String()
	}
	g.Log.Infof("running simulation=%t topics=%d local=%s", g.Simulation, len(g.Schedulers), local)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigCh:
		g.Log.Infof("signal=%v stopping", s)
	case <-g.Alive.StopChan():
	}
	subcmd.SdNotify(daemon.SdNotifyStopping)
	g.Stop()
	g.Log.Infof("stopped %s", g.Stats.String())
	return nil
}
