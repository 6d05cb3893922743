package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "senec",
		Usage: "read a SENEC.home battery system through its local web API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "address of the battery system",
				EnvVars: []string{"SENEC_HOST"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.IntFlag{
				Name:    "retry-attempts",
				Usage:   "tries per poll before giving up",
				EnvVars: []string{"RETRY_ATTEMPTS"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "timeout of a single request",
				EnvVars: []string{"REQUEST_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "schema",
				Usage:   "YAML file with additional sensors",
				EnvVars: []string{"SENSOR_SCHEMA"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "read",
				Usage:     "poll the appliance a few times and print the sensors",
				ArgsUsage: "[host]",
				Action:    ReadCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Usage:   "number of polls, 0 polls until interrupted",
						EnvVars: []string{"READ_COUNT"},
					},
					&cli.DurationFlag{
						Name:    "poll-interval",
						Usage:   "pause between polls",
						EnvVars: []string{"POLL_INTERVAL"},
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "poll continuously, export Prometheus metrics and publish to MQTT",
				Action: ServeCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:    "poll-interval",
						Usage:   "pause between polls",
						EnvVars: []string{"POLL_INTERVAL"},
					},
					&cli.StringFlag{
						Name:    "metrics-addr",
						Usage:   "listen address of /metrics, empty disables it",
						EnvVars: []string{"METRICS_ADDR"},
					},
					&cli.StringFlag{
						Name:    "mqtt-host",
						Usage:   "MQTT broker, e.g. tcp://127.0.0.1:1883",
						EnvVars: []string{"MQTT_HOST"},
					},
					&cli.StringFlag{
						Name:    "mqtt-user",
						Usage:   "MQTT user",
						EnvVars: []string{"MQTT_USER"},
					},
					&cli.StringFlag{
						Name:    "mqtt-pass",
						Usage:   "MQTT password",
						EnvVars: []string{"MQTT_PASS"},
					},
					&cli.StringFlag{
						Name:    "mqtt-topic-prefix",
						Usage:   "MQTT topic prefix",
						EnvVars: []string{"MQTT_TOPIC_PREFIX"},
					},
				},
			},
			{
				Name:   "discover",
				Usage:  "look for the appliance on the local network",
				Action: DiscoverCommand,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
