package state

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl"
	"github.com/joho/godotenv"
	"github.com/juju/errors"

	"github.com/avionics-lab/simbridge/helpers"
	"github.com/avionics-lab/simbridge/log2"
	tele_config "github.com/avionics-lab/simbridge/tele/config"
)

const DefaultEnvFile = ".env"

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}

	// only used for Unmarshal, do not access
	XXX_Include  []ConfigSource            `hcl:"include"`
	XXX_Topic    []tele_config.TopicConfig `hcl:"topic"`
	XXX_Variable []VariableConfig          `hcl:"variable"`

	Source SourceConfig `hcl:"source"`
	Sample struct {
		IntervalMs int `hcl:"interval_ms" env:"SIMBRIDGE_SAMPLE_INTERVAL_MS"`
	}
	Transport tele_config.Config `hcl:"transport"`
	Query     struct {
		Enable bool   `hcl:"enable" env:"SIMBRIDGE_QUERY_ENABLE"`
		Addr   string `hcl:"addr" env:"SIMBRIDGE_QUERY_ADDR"`
		Strict bool   `hcl:"strict"`
	}
	Status struct {
		Enable     bool `hcl:"enable" env:"SIMBRIDGE_STATUS_ENABLE"`
		IntervalMs int  `hcl:"interval_ms"`
	}
	Log struct {
		Level      string `hcl:"level" env:"SIMBRIDGE_LOG_LEVEL"`
		File       string `hcl:"file" env:"SIMBRIDGE_LOG_FILE"`
		MaxSizeMB  int    `hcl:"max_size_mb"`
		MaxBackups int    `hcl:"max_backups"`
	}

	// Merged from all sources, later source wins on equal name.
	Topics    []tele_config.TopicConfig `hcl:"-"`
	Variables []VariableConfig          `hcl:"-"`
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

type SourceConfig struct {
	// Empty address or Disable: simulation mode, variables report defaults.
	Addr           string `hcl:"addr" env:"SIMBRIDGE_SOURCE_ADDR"`
	Disable        bool   `hcl:"disable" env:"SIMBRIDGE_SOURCE_DISABLE"`
	TimeoutMs      int    `hcl:"timeout_ms"`
	ProbeTimeoutMs int    `hcl:"probe_timeout_ms"`
	RetryMinMs     int    `hcl:"retry_min_ms"`
	RetryMaxMs     int    `hcl:"retry_max_ms"`
	LogDebug       bool   `hcl:"log_debug"`
}

// VariableConfig adds or overrides catalog entry.
type VariableConfig struct {
	Name    string   `hcl:"name,key"`
	Unit    string   `hcl:"unit"`
	Default *float64 `hcl:"default"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}
	c.Topics = mergeTopics(c.Topics, c.XXX_Topic)
	c.Variables = append(c.Variables, c.XXX_Variable...)
	c.XXX_Topic, c.XXX_Variable = nil, nil

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

func mergeTopics(into, more []tele_config.TopicConfig) []tele_config.TopicConfig {
outer:
	for _, t := range more {
		for i := range into {
			if into[i].Name == t.Name {
				into[i] = t
				continue outer
			}
		}
		into = append(into, t)
	}
	return into
}

// ApplyEnv loads envFile (missing is fine) into process environment
// without overwriting, then overrides env tagged fields.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return errors.Annotatef(err, "env file=%s", envFile)
			}
		}
	}
	errs := make([]error, 0)
	for _, part := range []interface{}{&c.Source, &c.Sample, &c.Transport, &c.Query, &c.Status, &c.Log} {
		if err := env.Parse(part); err != nil {
			errs = append(errs, errors.Annotate(err, "config env"))
		}
	}
	return helpers.FoldErrors(errs)
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
