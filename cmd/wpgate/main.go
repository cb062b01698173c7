// ABOUTME: Entry point for the wpgate session gate
// ABOUTME: Authenticates WordPress sessions for the shared-state service

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/openlumi/wpgate/internal/auth"
	"github.com/openlumi/wpgate/internal/config"
	"github.com/openlumi/wpgate/internal/httpapi"
	"github.com/openlumi/wpgate/internal/sharedstate"
	"github.com/openlumi/wpgate/internal/wpdb"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
__      ___ __   __ _  __ _| |_ ___
\ \ /\ / / '_ \ / _' |/ _' | __/ _ \
 \ V  V /| |_) | (_| | (_| | ||  __/
  \_/\_/ | .__/ \__, |\__,_|\__\___|
         |_|    |___/
`

// getConfigPath returns the path to the wpgate config file.
// Priority: WPGATE_CONFIG env var > ./wpgate.yaml
func getConfigPath() string {
	if envPath := os.Getenv("WPGATE_CONFIG"); envPath != "" {
		return envPath
	}
	return "wpgate.yaml"
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: wpgate <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve                   Start the session gate")
		fmt.Println("  check                   Verify config and database connectivity")
		fmt.Println("  mint --user NAME        Mint a session cookie for local testing")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "check":
		err = runCheck(ctx)
	case "mint":
		err = runMint(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("WordPress: %s\n", cfg.WordPress.URL)
	fmt.Println()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	caps := auth.NewCapabilityCache(store)
	// Load the role mapping up front so a misconfigured mirror fails the
	// start instead of the first request.
	if err := caps.Refresh(ctx); err != nil {
		return fmt.Errorf("loading capabilities: %w", err)
	}

	verifier := auth.NewCookieVerifier(cfg.WordPress.LoggedInKey, cfg.WordPress.LoggedInSalt)
	resolver := auth.NewResolver(store, caps)
	gate := auth.NewGate(verifier, resolver, cfg.WordPress.URL, cfg.WordPress.ServiceURL)

	contents, err := sharedstate.NewContentCache(store, cfg.Cache.ContentLRUSize)
	if err != nil {
		return err
	}
	stateServer := sharedstate.NewServer(gate, contents, nil)

	router := httpapi.NewRouter(httpapi.RouterOptions{
		Gate:        gate,
		Behavior:    auth.Behavior(cfg.Auth.UnauthenticatedBehavior),
		Handlers:    httpapi.NewHandlers(contents, caps),
		UpgradeFunc: stateServer.HandleUpgrade,
	})

	// SIGHUP reloads the capability mapping; there is no automatic expiry.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			logger.Info("SIGHUP received, refreshing capability cache")
			if err := caps.Refresh(context.Background()); err != nil {
				logger.Error("capability refresh failed", "error", err)
			}
			contents.Flush()
		}
	}()
	defer signal.Stop(hup)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("wpgate listening", "addr", cfg.Server.HTTPAddr, "service_url", cfg.WordPress.ServiceURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runCheck loads the config, connects to the mirror and loads the role
// mapping, reporting what it finds. Intended for deploy pipelines.
func runCheck(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(setupLogger(cfg.Logging))

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	roles, err := store.RoleCapabilities(ctx)
	if err != nil {
		return fmt.Errorf("loading role capabilities: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("✓ ")
	fmt.Printf("config valid, database reachable, %d roles loaded\n", len(roles))
	return nil
}

// runMint prints a valid session cookie for the configured secrets. Only
// useful against a dev install; production cookies come from WordPress.
func runMint(args []string) error {
	user := ""
	for i := 0; i < len(args); i++ {
		if args[i] == "--user" && i+1 < len(args) {
			user = args[i+1]
			i++
		}
	}
	if user == "" {
		return fmt.Errorf("usage: wpgate mint --user NAME")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	verifier := auth.NewCookieVerifier(cfg.WordPress.LoggedInKey, cfg.WordPress.LoggedInSalt)
	fmt.Printf("%s=%s\n", auth.CookieName(cfg.WordPress.URL), verifier.Mint(user, time.Now().Add(24*time.Hour)))
	return nil
}

func openStore(cfg *config.Config) (wpdb.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		return wpdb.OpenSQLite(cfg.Database.DSN, cfg.WordPress.TablePrefix, cfg.Database.QueryTimeout)
	default:
		return wpdb.OpenMySQL(cfg.Database.DSN, cfg.WordPress.TablePrefix, cfg.Database.QueryTimeout)
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
