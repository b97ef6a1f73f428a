package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voxpoll/voxpoll/internal/config"
	"github.com/voxpoll/voxpoll/internal/conversation"
	"github.com/voxpoll/voxpoll/internal/httpserver"
	"github.com/voxpoll/voxpoll/internal/logging"
	"github.com/voxpoll/voxpoll/internal/provider"
	"github.com/voxpoll/voxpoll/internal/provider/bedrock"
	"github.com/voxpoll/voxpoll/internal/provider/openaistub"
	"github.com/voxpoll/voxpoll/internal/survey"
	surveypg "github.com/voxpoll/voxpoll/internal/survey/postgres"
	surveysqlite "github.com/voxpoll/voxpoll/internal/survey/sqlite"
	"github.com/voxpoll/voxpoll/internal/transcript"
	"github.com/voxpoll/voxpoll/internal/version"
)

const maxLogBytes = int64(300 * 1024 * 1024) // 300MB

func main() {
	configPath := flag.String("config", "config/voxpoll.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	if logTarget := strings.TrimSpace(cfg.Log.File); logTarget != "" {
		rot, err := logging.New(logTarget, maxLogBytes)
		if err != nil {
			log.Fatalf("init rotating log: %v", err)
		}
		// Mirror to stdout as well for foreground runs
		log.SetOutput(io.MultiWriter(os.Stdout, rot))
		defer rot.Close()
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[voxpolld] ")
	logger := log.Default()

	logger.Printf("voxpolld %s starting", version.Version)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("open survey store: %v", err)
	}
	defer store.Close()
	logger.Printf("survey store ready (driver=%s)", cfg.Database.Driver)

	ctx := context.Background()
	gen, err := buildProvider(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("build provider: %v", err)
	}
	logger.Printf("generative provider ready (type=%s model=%s)", cfg.Provider.Type, cfg.Provider.ModelID)

	transcripts := transcript.New(store, logger)
	orchestrator := conversation.New(store, transcripts, gen, logger)
	server := httpserver.New(store, orchestrator, logger, cfg.Log.Level)

	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	go func() {
		logger.Printf("listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}

func openStore(cfg config.Config) (survey.Store, error) {
	switch strings.ToLower(cfg.Database.Driver) {
	case config.DriverPostgres:
		return surveypg.New(
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
			cfg.Database.ConnMaxIdleTime,
		)
	default:
		return surveysqlite.New(cfg.Database.Path)
	}
}

func buildProvider(ctx context.Context, cfg config.Config, logger *log.Logger) (provider.Generator, error) {
	switch strings.ToLower(cfg.Provider.Type) {
	case config.ProviderOpenAI:
		return openaistub.New(logger), nil
	default:
		return bedrock.New(ctx, bedrock.Config{
			ModelID:     cfg.Provider.ModelID,
			Region:      cfg.Provider.Region,
			MaxTokens:   cfg.Provider.MaxTokens,
			Temperature: cfg.Provider.Temperature,
		}, logger)
	}
}
