// Print hex encoded telemetry frames as JSON, one frame per line.
package decode

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/juju/errors"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/avionics-lab/simbridge/cmd/simbridge/subcmd"
	"github.com/avionics-lab/simbridge/helpers/cli"
	"github.com/avionics-lab/simbridge/state"
	"github.com/avionics-lab/simbridge/tele"
)

const modName = "decode"

var Mod = subcmd.Mod{Name: modName, Desc: "decode hex telemetry frames from stdin", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	return cli.MainLoop(modName, func(line string) {
		s, err := Decode(line)
		if err != nil {
			g.Log.Error(err)
			return
		}
		fmt.Println(s)
	}, nil, nil)
}

// Decode returns relaxed extended JSON of valid frame.
func Decode(line string) (string, error) {
	line = strings.Join(strings.Fields(line), "")
	b, err := hex.DecodeString(line)
	if err != nil {
		return "", errors.Annotate(err, "hex decode")
	}
	p, err := tele.Unmarshal(b)
	if err != nil {
		return "", errors.Trace(err)
	}
	j, err := bson.MarshalExtJSON(p, false, false)
	if err != nil {
		return "", errors.Annotate(err, "json")
	}
	return string(j), nil
}
