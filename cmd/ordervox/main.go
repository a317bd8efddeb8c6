// Command ordervox runs the voice ordering gateway: it serves the /v1/live
// websocket, the health probes and the Prometheus scrape endpoint.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ordervox/ordervox/internal/dotenv"
	"github.com/ordervox/ordervox/pkg/core/speech"
	"github.com/ordervox/ordervox/pkg/gateway/config"
	"github.com/ordervox/ordervox/pkg/gateway/menustore"
	gatewayserver "github.com/ordervox/ordervox/pkg/gateway/server"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

// buildMenuSource prefers Postgres and falls back to the static seed menu
// when no DSN is configured. Migrations run through a short-lived
// database/sql handle before the pgx pool opens.
func buildMenuSource(ctx context.Context, cfg config.Config, logger *zap.Logger) (menustore.Source, func(), error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Info("no postgres dsn configured, serving the static menu",
			zap.String("tenant", cfg.TenantRef))
		return menustore.NewStatic(cfg.TenantRef, menustore.SeedTenantName, menustore.SeedItems()), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := menustore.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := db.Close(); err != nil {
		return nil, nil, fmt.Errorf("close migration handle: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres pool: %w", err)
	}
	return menustore.NewPostgres(pool), pool.Close, nil
}

func run(ctx context.Context, logger *zap.Logger, cfg config.Config) error {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return errors.New("gemini.api_key is required")
	}

	source, closeSource, err := buildMenuSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	var rdb *redis.Client
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		defer rdb.Close()
	}
	menus := menustore.New(source, rdb, cfg.MenuCacheTTL, logger)

	gc := speech.DefaultGeminiConfig()
	gc.APIKey = cfg.GeminiAPIKey
	gc.STTModel = cfg.STTModel
	gc.TTSModel = cfg.TTSModel
	gc.Voice = cfg.TTSVoice
	gem, err := speech.NewGemini(ctx, gc)
	if err != nil {
		return err
	}

	var nc *nats.Conn
	if strings.TrimSpace(cfg.NATSURL) != "" {
		nc, err = nats.Connect(cfg.NATSURL, nats.Name("ordervox-gateway"))
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
	}

	gw := gatewayserver.New(cfg, logger, gatewayserver.Dependencies{
		Menus: menus,
		NATS:  nc,
		STT:   gem,
		TTS:   speech.NewBreakerTTS(gem),
		Chat:  speech.NewBreakerChat(gem),
	})
	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting gateway",
		zap.String("addr", cfg.Addr),
		zap.String("tenant", cfg.TenantRef),
		zap.String("lang", cfg.DefaultLang))

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	// Websocket connections are hijacked, so Shutdown alone would not wait
	// for them. Drain the calls first, then close the listener.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer drainCancel()
	gw.Drain(drainCtx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}

func runMain(ctx context.Context, args []string, stderr io.Writer) int {
	if stderr == nil {
		stderr = os.Stderr
	}

	fs := flag.NewFlagSet("ordervox", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "optional config file (yaml, json or toml)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "ordervox: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(stderr, "ordervox: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "ordervox: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, logger, cfg); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "ordervox: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Args[1:], os.Stderr))
}
