package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/OpenSQZ/gtplanner/pkg/executor"
	"github.com/OpenSQZ/gtplanner/pkg/server"
	"github.com/OpenSQZ/gtplanner/pkg/storage"
	"github.com/OpenSQZ/gtplanner/pkg/streaming"
	"github.com/OpenSQZ/gtplanner/pkg/tools"
	"github.com/OpenSQZ/gtplanner/pkg/tools/history"
	"github.com/OpenSQZ/gtplanner/pkg/tools/planning"
	"github.com/OpenSQZ/gtplanner/pkg/tools/research"
	"github.com/OpenSQZ/gtplanner/pkg/tools/toolrec"
	"github.com/OpenSQZ/gtplanner/pkg/types"
)

const (
	ServerName      = "gtplanner"
	ServiceName     = "GTPlanner Planning Assistant Server"
	ShutdownTimeout = 10 * time.Second
)

//go:embed VERSION
var Version string

func main() {
	var (
		debug        bool
		bindAddr     string
		dbPath       string
		poolSize     int
		printVersion bool
	)
	flag.BoolVar(&debug, "debug", false, "debug mode")
	flag.StringVar(&bindAddr, "bind", "localhost:8989", "bind address (host:port)")
	flag.StringVar(&dbPath, "db", "build/gtplanner.db", "SQLite database file path")
	flag.IntVar(&poolSize, "pool-size", types.MaxConcurrentTools, "max concurrently executing tool calls")
	flag.BoolVar(&printVersion, "version", false, "print version and exit")
	flag.Parse()
	// Sanitize version
	version := strings.TrimSpace(Version)
	// Check if the version flag is set
	if printVersion {
		fmt.Printf("%s Version: %s\n", ServiceName, version)
		os.Exit(0)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger.Debug().Msg("debug mode enabled")
	}

	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}

	// Initialize storage
	storeCfg := storage.Config{
		DatabasePath: dbPath,
		Debug:        debug,
	}
	store, err := storage.NewSQLiteStorage(storeCfg)
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize storage: %v", err)
	}
	logger.Info().Msgf("Database initialized at %s", dbPath)

	streams := streaming.NewManager(logger)
	srv := server.NewServer(impl, store, streams)

	// Create tool instances.
	toolList := []tools.Tool{
		planning.New(logger),
		research.New(logger),
		toolrec.New(logger),
		history.New(logger, store),
	}

	// Register all tools with the MCP server and the batch registry.
	registry := tools.NewRegistry()
	for _, tool := range toolList {
		if err := tool.Register(srv); err != nil {
			logger.Error().Msgf("Failed to register tool: %v", err)
			continue
		}
		if err := registry.Add(tool); err != nil {
			logger.Error().Msgf("Failed to index tool: %v", err)
		}
	}

	pool := executor.NewPool(poolSize, types.DefaultToolTimeout, logger)

	// Create HTTP handler for MCP server
	// Stateless mode avoids "session not found" errors after server restart
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return &srv.Server
	}, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})

	http.Handle("/mcp", handler)
	http.Handle("/api/events", streaming.NewStreamHandler(streams, logger))
	http.Handle("/api/tool-calls", newBatchHandler(pool, registry, store, streams, logger))

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service": ServiceName,
			"version": version,
			"endpoints": map[string]string{
				"mcp":        "/mcp",
				"events":     "/api/events",
				"tool_calls": "/api/tool-calls",
			},
		})
	})

	logger.Info().Msgf("%s starting on address %s", ServiceName, bindAddr)
	logger.Info().Msgf("MCP endpoint available at: http://%s/mcp", bindAddr)
	logger.Info().Msgf("SSE endpoint available at: http://%s/api/events", bindAddr)

	go func() {
		//nolint:gosec
		if err := http.ListenAndServe(bindAddr, nil); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Msgf("%s failed to start: %v", ServerName, err)
		}
	}()
	<-signalCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	// Shutdown MCP server
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Msgf("%s shutdown error: %v", ServiceName, err)
	} else {
		logger.Info().Msgf("%s shutdown complete", ServiceName)
	}
}
