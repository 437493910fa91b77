package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/nafee3/nafee3"
	"github.com/nafee3/nafee3/embedding"
	"github.com/nafee3/nafee3/logger"
	"github.com/nafee3/nafee3/persistence/chromem"
	"github.com/nafee3/nafee3/persistence/opensearch"
	"github.com/nafee3/nafee3/persistence/qdrant"
	"github.com/nafee3/nafee3/vector"

	mcpE "github.com/nafee3/nafee3/mcp"
	httpT "github.com/nafee3/nafee3/transport/http"
	natsT "github.com/nafee3/nafee3/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "nafee3",
		Usage: "Nafee3 profile search service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the Nafee3 service",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL, NATS transport is disabled when empty",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.StringFlag{
				Name:  "topic",
				Usage: "NATS subject prefix",
				Value: "nafee3",
			},
			&cli.BoolFlag{
				Name:  "http",
				Usage: "Enable HTTP transport",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8000",
			},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Load profiles from a JSON array into the store",
				ArgsUsage: "[source]",
				Action:    load,
			},
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func servicePath(cmd *cli.Command) (string, error) {
	path := cmd.String("path")
	if path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".nafee3"), nil
}

func loadConfig(path string) (nafee3.Config, error) {
	cfg := nafee3.DefaultConfig()

	f, err := os.Open(filepath.Join(path, "config.yaml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only

	case err != nil:
		return cfg, err

	default:
		defer f.Close()

		err := yaml.NewDecoder(f).Decode(&cfg)
		if err != nil && !errors.Is(err, io.EOF) {
			return cfg, err
		}
	}

	if cfg.Vector.Path == "" {
		cfg.Vector.Path = filepath.Join(path, "vectors")
	}

	if key := os.Getenv("QDRANT_API_KEY"); key != "" && cfg.Vector.Qdrant.APIKey == "" {
		cfg.Vector.Qdrant.APIKey = key
	}

	return cfg, nil
}

func openVectorDB(cfg vector.Config) (vector.VectorDB, error) {
	switch cfg.Backend {
	case vector.BackendChromem, "":
		return chromem.NewChromemVectorDB(cfg)

	case vector.BackendQdrant:
		return qdrant.NewQdrantVectorDB(cfg.Qdrant)

	case vector.BackendOpenSearch:
		return opensearch.NewOpenSearchVectorDB(cfg.OpenSearch)

	default:
		return nil, fmt.Errorf("%w: %s", vector.ErrUnsupportedBackend, cfg.Backend)
	}
}

// setup builds the logger and the service. Failures are startup failures.
func setup(ctx context.Context, cmd *cli.Command) (nafee3.Service, *zap.Logger, error) {
	path, err := servicePath(cmd)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: config: %w", nafee3.ErrStartup, err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: logger: %w", nafee3.ErrStartup, err)
	}

	zap.ReplaceGlobals(log)

	embedder, err := embedding.New(ctx, cfg.Embedding)
	if err != nil {
		log.Sync()
		return nil, nil, fmt.Errorf("%w: embedding: %w", nafee3.ErrStartup, err)
	}

	db, err := openVectorDB(cfg.Vector)
	if err != nil {
		log.Sync()
		return nil, nil, fmt.Errorf("%w: vector store: %w", nafee3.ErrStartup, err)
	}

	svc, err := nafee3.NewService(ctx, cfg, db, embedder)
	if err != nil {
		db.Close()
		log.Sync()
		return nil, nil, err
	}

	svc = nafee3.LoggingMiddleware(log)(svc)

	return svc, log, nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	svc, log, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer svc.Close()

	endpoints := nafee3.MakeEndpoints(svc)

	// Add NATS Transport
	if natsURL := cmd.String("nats"); natsURL != "" {
		opts := []nats.Option{
			nats.Name("Nafee3 Server"),
		}

		path, err := servicePath(cmd)
		if err != nil {
			return err
		}

		natsCreds := filepath.Join(path, "user.creds")
		if _, err := os.Stat(natsCreds); err == nil {
			opts = append(opts, nats.UserCredentials(natsCreds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "nafee3",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		root := srv.AddGroup(cmd.String("topic"))
		natsT.AddEndpoints(root, endpoints)
	}

	httpEnabled := cmd.Bool("http")
	if httpEnabled {
		r := gin.Default()
		httpT.AddRouters(r, endpoints)
		httpT.AddStreamableRouters(r, mcpE.MakeEndpoints(svc))

		httpAddr := cmd.String("http-addr")
		go r.Run(httpAddr)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}

func load(ctx context.Context, cmd *cli.Command) error {
	svc, log, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer svc.Close()

	summary, err := svc.LoadProfiles(ctx, cmd.Args().First())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
