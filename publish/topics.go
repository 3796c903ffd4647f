package publish

import (
	"time"

	"github.com/juju/errors"

	"github.com/avionics-lab/simbridge/helpers"
	"github.com/avionics-lab/simbridge/tele"
	tele_config "github.com/avionics-lab/simbridge/tele/config"
)

// TopicDef is built-in topic with default rate, config may override.
type TopicDef struct {
	Name    string
	Topic   tele.Topic
	Hz      float64
	Warmup  int
	Disable bool
	New     func() Builder
}

func (td TopicDef) Period() time.Duration { return helpers.HzPeriod(td.Hz, time.Second) }

func BuiltinTopics() []TopicDef {
	return []TopicDef{
		{Name: "ahrs", Topic: tele.TopicAHRS, Hz: 65, New: func() Builder { return NewAHRS() }},
		{Name: "hsi", Topic: tele.TopicHSI, Hz: 17, Warmup: 16, New: func() Builder { return NewHSI() }},
	}
}

// ConfigureTopics applies config overrides by name. Warmup=-1 disables warm-up.
func ConfigureTopics(defs []TopicDef, overrides []tele_config.TopicConfig) ([]TopicDef, error) {
	out := make([]TopicDef, len(defs))
	copy(out, defs)
	index := make(map[string]int, len(out))
	for i, td := range out {
		index[td.Name] = i
	}
	errs := make([]error, 0)
	for _, o := range overrides {
		i, ok := index[o.Name]
		if !ok {
			errs = append(errs, errors.NotFoundf("topic=%s", o.Name))
			continue
		}
		td := &out[i]
		if o.Id != 0 {
			if o.Id < 0 || o.Id > 0xff {
				errs = append(errs, errors.NotValidf("topic=%s id=%d", o.Name, o.Id))
				continue
			}
			td.Topic = tele.Topic(o.Id)
		}
		if o.Hz < 0 {
			errs = append(errs, errors.NotValidf("topic=%s hz=%v", o.Name, o.Hz))
			continue
		}
		if o.Hz > 0 {
			td.Hz = o.Hz
		}
		switch {
		case o.Warmup < 0:
			td.Warmup = 0
		case o.Warmup > 0:
			td.Warmup = o.Warmup
		}
		td.Disable = o.Disable
	}
	return out, helpers.FoldErrors(errs)
}
