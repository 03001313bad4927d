package commands

import (
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/alescoulie/sitegen/internal/metrics"
	"github.com/alescoulie/sitegen/internal/serve"
)

// ServeCmd implements the 'serve' command: a local preview server with
// rebuild on change and livereload.
type ServeCmd struct {
	Addr         string `help:"Listen address overriding serve.addr"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable livereload injection and endpoint"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}
	if s.NoLiveReload {
		off := false
		cfg.Serve.LiveReload = &off
	}

	opts := serve.Options{}
	if cfg.Metrics.Enabled {
		reg := prom.NewRegistry()
		opts.Recorder = metrics.NewPrometheusRecorder(reg, cfg.Metrics.Namespace)
		opts.Metrics = metrics.HTTPHandler(reg)
	}

	ctx, cancel := signalContext()
	defer cancel()
	return serve.New(cfg, opts).Run(ctx)
}
