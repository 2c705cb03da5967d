// cmd/web/main.go
//
// maillog – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load configuration (conf/.env → conf/global.yaml → MAILLOG_ env),
//     resolving vault: references when VAULT_ADDR is set.
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Apply schema migrations, then open the log-store pool.
//
//  4. Wire capture → mailer → tester, retention, and the query service.
//
//  5. Load the optional GeoLite2 database for request info.
//
//  6. Run the retention loop and the HTTP server until SIGINT or SIGTERM,
//     then drain in-flight requests and exit.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/maillog/internal/app"
	"github.com/yanizio/maillog/internal/database"
	"github.com/yanizio/maillog/internal/logger"
	"github.com/yanizio/maillog/internal/requestinfo"
	"github.com/yanizio/maillog/internal/server"
)

const shutdownGrace = 15 * time.Second

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bootstrap console logger until the file logger is up.
	boot, _ := zap.NewDevelopment()
	zap.ReplaceGlobals(boot)

	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	//
	// ── 2.  Logger ──────────────────────────────────────────────────────
	//
	logOut, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync()

	//
	// ── 3.  Schema, then pool ───────────────────────────────────────────
	//
	if err := database.Migrate(cfg.Database); err != nil {
		logOut.Fatalw("migrate", "err", err)
	}

	a, err := app.Build(ctx, cfg, logOut)
	if err != nil {
		logOut.Fatalw("build", "err", err)
	}
	defer a.Close()

	//
	// ── 4.  Optional GeoIP ──────────────────────────────────────────────
	//
	if err := requestinfo.InitGeo(cfg.GeoIP.DatabasePath); err != nil {
		logOut.Warnw("geoip disabled", "err", err)
	}

	//
	// ── 5.  Retention loop ──────────────────────────────────────────────
	//
	go a.Sweeper.Start(ctx)

	//
	// ── 6.  HTTP server with graceful shutdown ──────────────────────────
	//
	srv := server.New(cfg.HTTP, a.Handler().Router())
	errc := make(chan error, 1)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "version", app.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logOut.Errorw("http server", "err", err)
		}
	case <-ctx.Done():
		logOut.Infow("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logOut.Errorw("shutdown", "err", err)
		}
	}
}
