package canvasnote

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/canvasnote/canvasnote/pkg/store"
	"github.com/canvasnote/canvasnote/pkg/store/memory"
	"github.com/canvasnote/canvasnote/pkg/store/postgres"
	"github.com/canvasnote/canvasnote/pkg/store/surreal"
)

// StoreBackend selects the persistence backend for a run.
type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendSurreal  StoreBackend = "surreal"
	BackendPostgres StoreBackend = "postgres"
)

// Config holds application configuration, populated from flags and
// environment variables by [Parse].
type Config struct {
	Backend StoreBackend

	PostgresDSN   string
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	ServerPort string
}

// App wires the engine, the store and the server configuration together.
type App struct {
	canvas *Canvas
	store  store.Store
	config *Config
	logger zerolog.Logger
}

// New creates the application for the configured backend.
func New(config *Config) (*App, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var st store.Store
	switch config.Backend {
	case BackendSurreal:
		s, err := surreal.New(config.SurrealDBURL, config.SurrealDBNS, config.SurrealDBDB, config.SurrealDBUser, config.SurrealDBPass)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		st = s
		logger.Info().Str("url", config.SurrealDBURL).Msg("connected to SurrealDB")
	case BackendPostgres:
		s, err := postgres.New(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		st = s
		logger.Info().Msg("connected to PostgreSQL")
	case BackendMemory, "":
		st = memory.New()
		logger.Info().Msg("using in-memory store")
	default:
		return nil, fmt.Errorf("unknown store backend: %s", config.Backend)
	}

	return &App{
		canvas: NewCanvas(st, logger),
		store:  st,
		config: config,
		logger: logger,
	}, nil
}

// Canvas returns the engine, useful for tests driving the application
// without the HTTP layer.
func (a *App) Canvas() *Canvas { return a.canvas }

// Close shuts down the engine and the store.
func (a *App) Close() error {
	return a.canvas.Close()
}
