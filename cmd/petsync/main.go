// Petsync keeps a local SQLite mirror of a pet-adoption backend in sync so
// the app works offline: reads hit the local store first, writes land locally
// and are pushed when the network allows.
//
// Usage:
//
//	petsync daemon [--config <path>]     # periodic full sync until stopped
//	petsync sync-once [--config <path>]  # single full sync pass then exit
//	petsync migrate [--config <path>]    # apply pending schema migrations
//	petsync status [--config <path>]     # show config, database, and sync state
//	petsync logout [--config <path>]     # wipe local data and image cache
//	petsync version                      # print version
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LucasFSouza552/mobile-pet-sub000/internal/config"
	"github.com/LucasFSouza552/mobile-pet-sub000/internal/connectivity"
	"github.com/LucasFSouza552/mobile-pet-sub000/internal/imagecache"
	"github.com/LucasFSouza552/mobile-pet-sub000/internal/remote"
	"github.com/LucasFSouza552/mobile-pet-sub000/internal/store"
	"github.com/LucasFSouza552/mobile-pet-sub000/internal/syncer"
	"github.com/LucasFSouza552/mobile-pet-sub000/internal/telemetry"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return printUsage()
	}

	switch cmd := os.Args[1]; cmd {
	case "daemon":
		return runSync(os.Args[2:], true)
	case "sync-once":
		return runSync(os.Args[2:], false)
	case "migrate":
		return runMigrate(os.Args[2:])
	case "status":
		return runStatus(os.Args[2:])
	case "logout":
		return runLogout(os.Args[2:])
	case "version":
		fmt.Println("petsync", version)
		return nil
	default:
		return fmt.Errorf("unknown command %q; run 'petsync' for usage", cmd)
	}
}

func printUsage() error {
	fmt.Fprintln(os.Stderr, "petsync: offline-first sync for the pet adoption app")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  petsync daemon [--config ...]     Periodic full sync until stopped")
	fmt.Fprintln(os.Stderr, "  petsync sync-once [--config ...]  Single full sync pass then exit")
	fmt.Fprintln(os.Stderr, "  petsync migrate [--config ...]    Apply pending schema migrations")
	fmt.Fprintln(os.Stderr, "  petsync status [--config ...]     Show config, database, and sync state")
	fmt.Fprintln(os.Stderr, "  petsync logout [--config ...]     Wipe local data and image cache")
	fmt.Fprintln(os.Stderr, "  petsync version                   Print version")
	os.Exit(1)
	return nil // unreachable
}

// commonFlags parses the flags every subcommand shares.
func commonFlags(name string, args []string) (cfgPath string, verbose bool, err error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	defaultCfg, _ := config.DefaultPath()
	cfg := fs.String("config", defaultCfg, "path to config.yaml")
	v := fs.Bool("verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return "", false, err
	}
	return *cfg, *v, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func dbPath(cfg *config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return store.DefaultDBPath()
}

// --- Subcommands -------------------------------------------------------------

func runSync(args []string, daemon bool) error {
	cfgPath, verbose, err := commonFlags("sync", args)
	if err != nil {
		return err
	}
	return startSync(cfgPath, verbose, daemon)
}

func runMigrate(args []string) error {
	cfgPath, verbose, err := commonFlags("migrate", args)
	if err != nil {
		return err
	}
	logger := newLogger(verbose)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config from %q: %w", cfgPath, err)
	}
	path, err := dbPath(cfg)
	if err != nil {
		return err
	}

	// Open runs pending migrations as part of startup.
	st, err := store.Open(path, logger)
	if err != nil {
		return fmt.Errorf("opening database at %q: %w", path, err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	v, err := st.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("database at %s is at schema version %d\n", path, v)
	return nil
}

func runStatus(args []string) error {
	cfgPath, _, err := commonFlags("status", args)
	if err != nil {
		return err
	}
	logger := newLogger(false)

	fmt.Println("petsync status")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  config:   %s (invalid: %v)\n", cfgPath, err)
		return nil
	}
	fmt.Printf("  config:   %s\n", cfgPath)
	fmt.Printf("  api:      %s\n", cfg.APIURL)

	path, err := dbPath(cfg)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		fmt.Println("  database: not found")
		return nil
	}
	fmt.Printf("  database: %s (%s)\n", path, humanSize(info.Size()))

	st, err := store.Open(path, logger)
	if err != nil {
		return fmt.Errorf("opening database at %q: %w", path, err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	v, err := st.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  schema:   version %d\n", v)

	for _, entry := range []struct {
		name string
		last func(context.Context) (time.Time, error)
	}{
		{"pets", st.Pets.LastSyncTime},
		{"history", st.History.LastSyncTime},
		{"achievements", st.Achievements.LastSyncTime},
	} {
		last, err := entry.last(ctx)
		if err != nil {
			return err
		}
		if last.IsZero() {
			fmt.Printf("  %-12s never synced\n", entry.name+":")
			continue
		}
		fmt.Printf("  %-12s last synced %s\n", entry.name+":", last.Local().Format(time.RFC822))
	}
	return nil
}

func runLogout(args []string) error {
	cfgPath, verbose, err := commonFlags("logout", args)
	if err != nil {
		return err
	}
	logger := newLogger(verbose)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config from %q: %w", cfgPath, err)
	}
	path, err := dbPath(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(path, logger)
	if err != nil {
		return fmt.Errorf("opening database at %q: %w", path, err)
	}
	defer st.Close()

	cache, err := openImageCache(cfg, st, logger)
	if err != nil {
		logger.Warn("image cache unavailable, skipping purge", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	session := newSession(st, cache, logger)
	if err := session.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("local data cleared")
	return nil
}

// newSession builds the session teardown, tolerating a missing image cache.
func newSession(st *store.Store, cache *imagecache.Cache, logger *slog.Logger) *syncer.Session {
	var purger syncer.ImagePurger
	if cache != nil {
		purger = cache
	}
	return syncer.NewSession(st, purger, logger)
}

func openImageCache(cfg *config.Config, st *store.Store, logger *slog.Logger) (*imagecache.Cache, error) {
	if cfg.ImageCacheDisabled() {
		return nil, nil
	}
	dir := cfg.ImageCacheDir
	if dir == "" {
		var err error
		dir, err = imagecache.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return imagecache.New(dir, imagecache.NewHTTPDownloader(), st.PetImages, logger)
}

// --- Sync core ---------------------------------------------------------------

func startSync(cfgPath string, verbose, daemon bool) error {
	logger := newLogger(verbose)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config from %q: %w", cfgPath, err)
	}
	logger.Info("config loaded", "api", cfg.APIURL, "sync_interval", cfg.SyncInterval)

	// --- Telemetry (optional) ------------------------------------------------

	if cfg.Telemetry != nil {
		telCfg := telemetry.Config{
			Endpoint:       cfg.Telemetry.OTLPEndpoint,
			Insecure:       cfg.Telemetry.Insecure,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version,
			Headers:        cfg.Telemetry.Headers,
		}
		shutdownTel, err := telemetry.Setup(context.Background(), telCfg)
		if err != nil {
			logger.Error("telemetry setup failed, continuing without telemetry", "error", err)
		} else {
			logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTel(flushCtx); err != nil {
					logger.Error("telemetry shutdown error", "error", err)
				}
			}()
		}
	}

	// --- Local store ---------------------------------------------------------

	path, err := dbPath(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(path, logger)
	if err != nil {
		return fmt.Errorf("opening database at %q: %w", path, err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", path)

	// --- Remote client & connectivity ----------------------------------------

	client := remote.NewClient(cfg.APIURL, cfg.APIToken, logger)
	oracle := connectivity.NewOracle(connectivity.ProbeFunc(client.Probe), cfg.ConnectivityTTL, logger)

	cache, err := openImageCache(cfg, st, logger)
	if err != nil {
		logger.Warn("image cache unavailable, pictures stay remote", "error", err)
		cache = nil
	}

	// --- Synchronizers -------------------------------------------------------

	var scheduler syncer.ImageCache
	if cache != nil {
		scheduler = cache
	}
	pictures := remote.NewPictureResolver(cfg.APIURL)
	accounts := syncer.NewAccountSyncer(st.Accounts, remote.NewAccountAPI(client), oracle, logger)
	pets := syncer.NewPetSyncer(st.Pets, remote.NewPetAPI(client), pictures, oracle, scheduler, logger)
	interactions := syncer.NewInteractionSyncer(st.Interactions, pets, remote.NewInteractionAPI(client), oracle, logger)
	history := syncer.NewHistorySyncer(st.History, pets, remote.NewHistoryAPI(client), oracle, logger)
	achievements := syncer.NewAchievementSyncer(st.Achievements, remote.NewAchievementAPI(client), oracle, logger)
	orch := syncer.NewOrchestrator(accounts, interactions, history, achievements, oracle, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Rejected credentials tear the session down, same as an explicit logout.
	session := newSession(st, cache, logger)
	client.OnUnauthorized(func() {
		if err := session.Logout(context.WithoutCancel(ctx)); err != nil {
			logger.Error("session teardown failed", "error", err)
		}
	})

	// --- Dispatch mode -------------------------------------------------------

	if !daemon {
		logger.Info("running single sync pass")
		stats, err := orch.SyncAll(ctx)
		logger.Info("sync complete", "succeeded", stats.Succeeded, "failed", stats.Failed)
		if cache != nil {
			cache.Wait()
		}
		return err
	}

	return runDaemon(ctx, orch, oracle, cfg.SyncInterval, logger)
}

// runDaemon runs a full pass on every tick and a catch-up pass whenever
// connectivity comes back after an outage.
func runDaemon(ctx context.Context, orch *syncer.Orchestrator, oracle *connectivity.Oracle, interval time.Duration, logger *slog.Logger) error {
	logger.Info("daemon starting", "sync_interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wasOnline := oracle.IsConnected(ctx)
	if wasOnline {
		if _, err := orch.SyncAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("initial sync failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown complete")
			return nil
		case <-ticker.C:
		}

		online := oracle.IsConnected(ctx)
		switch {
		case online && !wasOnline:
			logger.Info("connectivity restored, running catch-up sync")
			if _, err := orch.OnReconnect(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("catch-up sync failed", "error", err)
			}
		case online:
			if _, err := orch.SyncAll(ctx); err != nil && !errors.Is(err, syncer.ErrSyncInProgress) && !errors.Is(err, context.Canceled) {
				logger.Warn("sync pass failed", "error", err)
			}
		default:
			logger.Debug("offline, skipping sync pass")
		}
		wasOnline = online
	}
}

// humanSize returns a human-readable file size string.
func humanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
