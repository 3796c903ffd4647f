// Interactive client for source query service.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/avionics-lab/simbridge/cmd/simbridge/subcmd"
	"github.com/avionics-lab/simbridge/helpers"
	"github.com/avionics-lab/simbridge/helpers/cli"
	"github.com/avionics-lab/simbridge/simvar"
	"github.com/avionics-lab/simbridge/source"
	"github.com/avionics-lab/simbridge/state"
)

const (
	modName     = "query"
	defaultAddr = "127.0.0.1:5005"
)

var Mod = subcmd.Mod{Name: modName, Desc: "ask source for variables, names separated by whitespace", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	addr := config.Source.Addr
	if addr == "" {
		addr = defaultAddr
	}
	u, err := source.NewUDP(source.UDPOptions{
		Addr:    addr,
		Log:     g.Log,
		Timeout: helpers.IntMillisecondDefault(config.Source.TimeoutMs, source.DefaultUDPTimeout),
	})
	if err != nil {
		return errors.Annotate(err, "query client")
	}
	g.Log.Debugf("query source=%s", u.Addr())

	catalog := simvar.NewBuiltinCatalog()
	return cli.MainLoop(modName, newExecutor(ctx, u), cli.PrefixCompleter(catalog.Names), nil)
}

func newExecutor(ctx context.Context, u *source.UDP) func(string) {
	g := state.GetGlobal(ctx)
	return func(line string) {
		for _, name := range strings.Fields(line) {
			reply, err := u.Request(ctx, name)
			if err != nil {
				g.Log.Errorf("name=%s err=%v", name, err)
				continue
			}
			fmt.Printf("%s = %s\n", name, reply)
		}
	}
}
