package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/juju/errors"

	"github.com/avionics-lab/simbridge/cmd/simbridge/decode"
	"github.com/avionics-lab/simbridge/cmd/simbridge/query"
	"github.com/avionics-lab/simbridge/cmd/simbridge/run"
	"github.com/avionics-lab/simbridge/cmd/simbridge/subcmd"
	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/state"
)

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	run.Mod,
	query.Mod,
	decode.Mod,
}

func main() {
	flagset := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := flagset.String("config", "simbridge.hcl", "")
	flagEnv := flagset.String("env", state.DefaultEnvFile, "dotenv file, missing is fine")
	flagset.Usage = func() {
		fmt.Fprintf(flagset.Output(), "usage: %s [flags] command\n", os.Args[0])
		flagset.PrintDefaults()
		fmt.Fprint(flagset.Output(), subcmd.Usage(modules))
	}
	_ = flagset.Parse(os.Args[1:])

	if subcmd.SdNotify("start") {
		// under systemd, journal adds timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	mod, err := subcmd.Parse(flagset.Arg(0), modules)
	if err != nil {
		flagset.Usage()
		log.Fatal(err)
	}

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	if err := config.ApplyEnv(*flagEnv); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	log.Debugf("config=%s command=%s", *flagConfig, mod.Name)

	ctx, _ := state.NewContext(log)
	if err := mod.Main(ctx, config); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}
