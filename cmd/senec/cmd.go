package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/loafoe/go-senec"
	"github.com/loafoe/go-senec/internal/pkg/config"
	"github.com/loafoe/go-senec/internal/pkg/exporter"
	"github.com/loafoe/go-senec/internal/pkg/mqtt"
	"github.com/loafoe/go-senec/internal/pkg/poller"
)

// loadConfig reads the environment and lets flags that were set override it.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if host := ctx.Args().First(); host != "" {
		cfg.SenecCfg.Host = host
	}
	if ctx.IsSet("host") {
		cfg.SenecCfg.Host = ctx.String("host")
	}
	if ctx.IsSet("log-level") {
		cfg.LogLevel = ctx.String("log-level")
	}
	if ctx.IsSet("retry-attempts") {
		cfg.SenecCfg.RetryAttempts = ctx.Int("retry-attempts")
	}
	if ctx.IsSet("timeout") {
		cfg.SenecCfg.Timeout = ctx.Duration("timeout")
	}
	if ctx.IsSet("schema") {
		cfg.SenecCfg.SchemaFile = ctx.String("schema")
	}
	if ctx.IsSet("count") {
		cfg.SenecCfg.ReadCount = ctx.Int("count")
	}
	if ctx.IsSet("poll-interval") {
		cfg.SenecCfg.PollInterval = ctx.Duration("poll-interval")
	}
	if ctx.IsSet("metrics-addr") {
		cfg.MetricsAddr = ctx.String("metrics-addr")
	}
	if ctx.IsSet("mqtt-host") {
		cfg.MqttCfg.Host = ctx.String("mqtt-host")
	}
	if ctx.IsSet("mqtt-user") {
		cfg.MqttCfg.Username = ctx.String("mqtt-user")
	}
	if ctx.IsSet("mqtt-pass") {
		cfg.MqttCfg.Password = ctx.String("mqtt-pass")
	}
	if ctx.IsSet("mqtt-topic-prefix") {
		cfg.MqttCfg.TopicPrefix = ctx.String("mqtt-topic-prefix")
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

func newClient(cfg *config.Config, logger *zap.Logger, opts ...senec.OptionFunc) (*senec.Client, error) {
	groups := senec.DefaultSensorGroups()
	if cfg.SenecCfg.SchemaFile != "" {
		f, err := os.Open(cfg.SenecCfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = f.Close()
		}()
		if err := senec.LoadSchema(f, groups); err != nil {
			return nil, err
		}
	}

	policy := senec.DefaultRetryPolicy()
	policy.Attempts = cfg.SenecCfg.RetryAttempts
	policy.Timeout = cfg.SenecCfg.Timeout

	return senec.NewClient(append([]senec.OptionFunc{
		senec.WithAddress(cfg.SenecCfg.Host),
		senec.WithSensorGroups(groups),
		senec.WithRetryPolicy(policy),
		senec.WithLogger(logger),
	}, opts...)...)
}

// setup is shared by the commands talking to the appliance.
func setup(ctx *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func ReadCommand(ctx *cli.Context) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	return readLoop(ctx.Context, client, cfg.SenecCfg.ReadCount, cfg.SenecCfg.PollInterval, ctx.App.Writer)
}

type reader interface {
	Read(ctx context.Context) ([]*senec.Sensor, error)
}

// readLoop polls count times, or until ctx is done when count is 0.
func readLoop(ctx context.Context, client reader, count int, interval time.Duration, w io.Writer) error {
	for i := 0; count == 0 || i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
		sensors, err := client.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, senec.ErrReadFailed) {
				return err
			}
			fmt.Fprintf(w, "\n%v\n", err)
			continue
		}
		printTable(w, sensors)
	}
	return nil
}

func printTable(w io.Writer, sensors []*senec.Sensor) {
	fmt.Fprintln(w)
	for _, s := range sensors {
		if s.Value().IsAbsent() {
			fmt.Fprintf(w, "%30s\n", s.Name())
			continue
		}
		fmt.Fprintf(w, "%30s%15s %s\n", s.Name(), s.Value(), s.Unit())
	}
}

func ServeCommand(ctx *cli.Context) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	return run(ctx.Context, cfg, logger)
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	eg, ctx := errgroup.WithContext(ctx)

	// the collector only reads snapshots once the metrics server runs, after p is set.
	var p *poller.Poller
	collector := exporter.NewCollector(latestFunc(func() poller.Snapshot { return p.Latest() }))

	client, err := newClient(cfg, logger, senec.WithNotification(collector))
	if err != nil {
		return err
	}

	var sinks []poller.Sink
	if cfg.MqttCfg.Host != "" {
		mqttClient, err := mqtt.Connect(cfg.MqttCfg)
		if err != nil {
			return err
		}
		defer mqttClient.Disconnect(250)
		sinks = append(sinks, mqtt.New(mqttClient, cfg.MqttCfg.TopicPrefix, logger))
	}
	p = poller.New(client, cfg.SenecCfg.PollInterval, logger, sinks...)

	eg.Go(func() error {
		return p.Run(ctx)
	})

	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collector)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})
		srv := &http.Server{
			Handler:      mux,
			Addr:         cfg.MetricsAddr,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}

		eg.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("context done")
	return nil
}

type latestFunc func() poller.Snapshot

func (f latestFunc) Latest() poller.Snapshot {
	return f()
}

func DiscoverCommand(ctx *cli.Context) error {
	discoverCtx, cancel := context.WithTimeout(ctx.Context, 3*time.Second)
	defer cancel()

	address, err := senec.Discover(discoverCtx)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, address)
	return nil
}
