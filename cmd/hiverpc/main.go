package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hiverpc/hiverpc/common"
	"github.com/hiverpc/hiverpc/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const (
	defaultConfigPath = "./hiverpc.yaml"
	defaultNode       = "https://api.hive.blog"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := Run(ctx, afero.NewOsFs(), os.Args, os.Stdout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := common.ShutdownTracing(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("failed to flush traces")
	}

	if err != nil {
		log.Error().Err(err).Msg("hiverpc failed")
		stop()
		cancel()
		os.Exit(1)
	}
}

func Run(ctx context.Context, fs afero.Fs, args []string, out io.Writer) error {
	return newApp(fs, out).Run(ctx, args)
}

func newApp(fs afero.Fs, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "hiverpc",
		Usage:   "query Hive nodes with health aware failover",
		Version: fmt.Sprintf("%s (%s)", common.HiveRpcVersion, common.HiveRpcCommitSha),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML client config",
			},
			&cli.StringSliceFlag{
				Name:    "node",
				Aliases: []string{"n"},
				Usage:   "node address, may be repeated; overrides the config's nodes",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error; overrides the config",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "call",
				Usage:     "send one JSON-RPC call and print its result",
				ArgsUsage: "<api> <method> [params-json]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return callAction(ctx, cmd, fs, out)
				},
			},
			{
				Name:  "probe",
				Usage: "ask every node for its head block once",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return probeAction(ctx, cmd, fs, out)
				},
			},
			{
				Name:  "health",
				Usage: "probe every node and print what the health tracker learned",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return healthAction(ctx, cmd, fs, out)
				},
			},
		},
	}
}

// loadConfig picks, in order: --config, ./hiverpc.yaml when present, or a default
// config. --node replaces whatever nodes the config listed.
func loadConfig(cmd *cli.Command, fs afero.Fs) (*common.ClientConfig, error) {
	path := cmd.String("config")
	if path == "" {
		if _, err := fs.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	var cfg *common.ClientConfig
	if path != "" {
		if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file '%s' does not exist", path)
		}
		log.Debug().Msgf("loading configuration from %s", path)
		c, err := config.LoadConfig(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = c
	}

	if nodes := cmd.StringSlice("node"); len(nodes) > 0 {
		if cfg == nil {
			return config.FromNodes(nodes...)
		}
		cfg.Nodes = nodes
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		return config.FromNodes(defaultNode)
	}
	return cfg, nil
}

func configureLogger(cmd *cli.Command, cfg *common.ClientConfig) *zerolog.Logger {
	level := cfg.LogLevel
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		log.Warn().Msgf("invalid log level '%s', defaulting to 'info'", level)
		lvl = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
	return &logger
}
