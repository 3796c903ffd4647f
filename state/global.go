package state

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"

	"github.com/avionics-lab/simbridge/helpers"
	"github.com/avionics-lab/simbridge/log2"
	"github.com/avionics-lab/simbridge/publish"
	"github.com/avionics-lab/simbridge/querysrv"
	"github.com/avionics-lab/simbridge/simvar"
	"github.com/avionics-lab/simbridge/source"
	"github.com/avionics-lab/simbridge/status"
	"github.com/avionics-lab/simbridge/tele"
	telenet "github.com/avionics-lab/simbridge/tele/net"
)

const defaultProbeTimeout = 2 * time.Second

// Global owns every long lived component of running bridge.
type Global struct {
	Alive      *alive.Alive
	Config     *Config
	Log        *log2.Log
	Catalog    *simvar.Catalog
	Source     source.Source
	Simulation bool // source probe failed or disabled, variables report defaults
	Cache      *simvar.Cache
	Stats      *tele.Stats
	Transport  *telenet.Transport // nil when transport.disable
	Sender     tele.Sender
	Schedulers []*publish.Scheduler
	Query      *querysrv.Server
	Status     *status.Status
}

const ContextKey = "run/state-global"

func NewContext(log *log2.Log) (context.Context, *Global) {
	if log == nil {
		panic("code error NewContext() log=nil")
	}

	g := &Global{
		Alive: alive.NewAlive(),
		Log:   log,
		Stats: new(tele.Stats),
	}
	ctx := context.WithValue(context.Background(), ContextKey, g)
	return ctx, g
}

func GetGlobal(ctx context.Context) *Global {
	v := ctx.Value(ContextKey)
	if v == nil {
		panic(fmt.Sprintf("context['%s'] is nil", ContextKey))
	}
	if g, ok := v.(*Global); ok {
		return g
	}
	panic(fmt.Sprintf("context['%s'] expected type *Global actual=%#v", ContextKey, v))
}

// If `Init` fails, consider `Global` is in broken state.
// Network failures to reach source are not errors, bridge runs in simulation mode.
func (g *Global) Init(ctx context.Context, cfg *Config) error {
	g.Config = cfg
	if err := g.initLog(); err != nil {
		return err
	}

	errs := make([]error, 0)
	g.Catalog = simvar.NewBuiltinCatalog()
	for _, v := range cfg.Variables {
		if v.Name == "" {
			errs = append(errs, errors.NotValidf("config: variable name empty"))
			continue
		}
		def, _ := g.Catalog.Lookup(v.Name)
		def.Name = v.Name
		if v.Unit != "" {
			def.Unit = v.Unit
		}
		if v.Default != nil {
			def.Default, def.HasDefault = *v.Default, true
		}
		g.Catalog.Add(def)
	}

	topics, err := publish.ConfigureTopics(publish.BuiltinTopics(), cfg.Topics)
	if err != nil {
		errs = append(errs, errors.Annotate(err, "config: topic"))
	}
	if cfg.Sample.IntervalMs < 0 {
		errs = append(errs, errors.NotValidf("config: sample.interval_ms=%d", cfg.Sample.IntervalMs))
	}
	if len(errs) != 0 {
		return helpers.FoldErrors(errs)
	}

	g.initSource(ctx)
	g.Cache = simvar.NewCache(simvar.Options{
		Catalog:  g.Catalog,
		Source:   g.Source,
		Log:      g.Log,
		Interval: helpers.IntMillisecondDefault(cfg.Sample.IntervalMs, simvar.DefaultInterval),
	})

	if err = g.initTransport(); err != nil {
		return err
	}

	for _, td := range topics {
		if td.Disable {
			g.Log.Infof("topic=%s %s disabled", td.Name, td.Topic)
			continue
		}
		g.Schedulers = append(g.Schedulers, publish.NewScheduler(publish.Options{
			Topic:   td.Topic,
			Builder: td.New(),
			Period:  td.Period(),
			Warmup:  td.Warmup,
			Cache:   g.Cache,
			Sender:  g.Sender,
			Stats:   g.Stats,
			Log:     g.Log,
			Parent:  g.Alive,
		}))
	}
	return nil
}

func (g *Global) MustInit(ctx context.Context, cfg *Config) {
	err := g.Init(ctx, cfg)
	if err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

func (g *Global) initLog() error {
	c := g.Config.Log
	level := g.Log.Level()
	if c.Level != "" {
		var err error
		if level, err = log2.ParseLevel(c.Level); err != nil {
			return errors.Annotate(err, "config: log.level")
		}
	}
	if c.File != "" {
		g.Log = log2.NewFile(c.File, c.MaxSizeMB, c.MaxBackups, level)
		g.Log.SetFlags(log2.LStdFlags | log2.Lmicroseconds)
	}
	g.Log.SetLevel(level)
	return nil
}

func (g *Global) initTransport() error {
	cfg := g.Config.Transport
	if cfg.Disable {
		g.Log.Infof("transport disabled, frames are built and dropped")
		g.Sender = tele.Noop{}
		return nil
	}
	topt := telenet.Options{
		Config: cfg,
		Log:    g.Log,
		Stats:  g.Stats,
	}
	var err error
	if cfg.Mirror.MqttBroker != "" {
		if topt.Mirror, err = telenet.NewMqttMirror(g.Log, cfg.Mirror); err != nil {
			return errors.Annotate(err, "mirror init")
		}
	}
	if g.Transport, err = telenet.NewTransport(topt); err != nil {
		if topt.Mirror != nil {
			topt.Mirror.Close()
		}
		return errors.Annotate(err, "transport init")
	}
	g.Sender = g.Transport
	return nil
}

func (g *Global) initSource(ctx context.Context) {
	c := g.Config.Source
	if c.Disable || c.Addr == "" {
		g.useSimulation("source disabled")
		return
	}
	log := g.Log.Named("source")
	if !c.LogDebug && log.Enabled(log2.LDebug) {
		log.SetLevel(log2.LInfo)
	}
	u, err := source.NewUDP(source.UDPOptions{
		Addr:     c.Addr,
		Log:      log,
		Timeout:  helpers.IntMillisecondDefault(c.TimeoutMs, source.DefaultUDPTimeout),
		RetryMin: helpers.IntMillisecondDefault(c.RetryMinMs, source.DefaultRetryMin),
		RetryMax: helpers.IntMillisecondDefault(c.RetryMaxMs, source.DefaultRetryMax),
	})
	if err != nil {
		g.Error(err, "source init")
		g.useSimulation("source invalid")
		return
	}
	pctx, cancel := context.WithTimeout(ctx, helpers.IntMillisecondDefault(c.ProbeTimeoutMs, defaultProbeTimeout))
	defer cancel()
	if err = u.Probe(pctx); err != nil {
		g.Log.Errorf("source addr=%s not available err=%v", u.Addr(), err)
		g.useSimulation("source probe failed")
		return
	}
	g.Log.Infof("source addr=%s connected", u.Addr())
	g.Source = u
}

func (g *Global) useSimulation(reason string) {
	g.Log.Infof("%s, simulation mode", reason)
	g.Source = source.Disconnected{}
	g.Simulation = true
}

// Start schedulers and optional query server, status console.
func (g *Global) Start(ctx context.Context) error {
	for _, s := range g.Schedulers {
		if err := s.Start(); err != nil {
			return errors.Annotatef(err, "scheduler %s", s.Topic())
		}
	}
	if g.Config.Query.Enable {
		q, err := querysrv.Listen(ctx, querysrv.Options{
			Addr:   g.Config.Query.Addr,
			Cache:  g.Cache,
			Log:    g.Log,
			Strict: g.Config.Query.Strict,
		})
		if err != nil {
			return errors.Annotate(err, "query server")
		}
		g.Query = q
	}
	if g.Config.Status.Enable {
		g.Status = status.New(status.Options{
			Cache:    g.Cache,
			Stats:    g.Stats,
			Interval: helpers.IntMillisecondDefault(g.Config.Status.IntervalMs, status.DefaultInterval),
		})
		if g.Alive.Add(1) {
			go g.Status.Run(g.Alive)
		}
	}
	return nil
}

// Stop everything Init and Start created. Safe to call on partially initialized Global.
func (g *Global) Stop() {
	g.Alive.Stop()
	for _, s := range g.Schedulers {
		s.Stop()
	}
	if g.Query != nil {
		if err := g.Query.Close(); err != nil {
			g.Error(err, "query close")
		}
	}
	if g.Transport != nil {
		if err := g.Transport.Close(); err != nil {
			g.Error(err, "transport close")
		}
	}
	if g.Cache != nil {
		g.Cache.Stop()
	}
	g.Alive.Wait()
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(errors.ErrorStack(err))
	}
}
