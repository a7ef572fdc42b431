package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lugo/server/internal/config"
	"github.com/lugo/server/internal/data"
	"github.com/lugo/server/internal/handler"
	gonet "github.com/lugo/server/internal/net"
	"github.com/lugo/server/internal/net/packet"
	"github.com/lugo/server/internal/persist"
	"github.com/lugo/server/internal/scripting"
	"github.com/lugo/server/internal/system"
	"github.com/lugo/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// zoneHost is one running zone and the pieces wired around it.
type zoneHost struct {
	zone    *world.Zone
	input   *system.InputSystem
	scripts *scripting.Engine
}

func (h *zoneHost) close() {
	if h.scripts != nil {
		h.scripts.Close()
	}
}

// shard is every zone hosted by this process.
type shard struct {
	zones map[uint16]*zoneHost
}

// handoff moves sessions out of from into the zone their character lives in.
func (s *shard) handoff(from *zoneHost) handler.HandoffFunc {
	return func(sess *gonet.Session, zoneID uint16) (*world.Zone, bool) {
		to, ok := s.zones[zoneID]
		if !ok || to == from {
			return nil, false
		}
		from.input.Release(sess)
		to.input.Adopt(sess)
		return to.zone, true
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("LUGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	serverID := uuid.NewString()
	log.Info("starting world server",
		zap.String("name", cfg.Server.Name),
		zap.Int("id", cfg.Server.ID),
		zap.String("instance", serverID),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Connect to PostgreSQL and run migrations
	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := persist.NewDB(dbCtx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := persist.RunMigrations(dbCtx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	store := persist.NewCharacterRepo(db)

	// 4. Load static data
	tables, err := data.LoadTables(cfg.World.DataDir)
	if err != nil {
		return fmt.Errorf("load static data: %w", err)
	}
	counts := tables.Counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Info("static table loaded", zap.String("table", name), zap.Int("rows", counts[name]))
	}

	// 5. Bring up zones
	sh := &shard{zones: make(map[uint16]*zoneHost, len(cfg.World.Zones))}
	for _, id := range cfg.World.Zones {
		host, err := newZoneHost(cfg, id, serverID, tables, store, sh, log)
		if err != nil {
			for _, h := range sh.zones {
				h.close()
			}
			return fmt.Errorf("zone %d: %w", id, err)
		}
		sh.zones[id] = host
	}
	entry, ok := sh.zones[cfg.World.DefaultZone]
	if !ok {
		return fmt.Errorf("default zone %d is not hosted", cfg.World.DefaultZone)
	}

	// 6. Create network server
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, gonet.SessionOptions{
		InQueueSize:      cfg.Network.InQueueSize,
		OutQueueSize:     cfg.Network.OutQueueSize,
		PacketsPerSecond: cfg.RateLimit.PacketsPerSecond,
		WriteTimeout:     cfg.Network.WriteTimeout,
		ReadTimeout:      cfg.Network.ReadTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	log.Info("listening",
		zap.String("addr", netServer.Addr().String()),
		zap.Duration("tick", cfg.Network.TickRate),
		zap.Int("zones", len(sh.zones)),
	)

	// 7. Run every zone loop and the accept loop until a signal arrives
	g, gctx := errgroup.WithContext(ctx)
	for _, host := range sh.zones {
		host := host
		g.Go(func() error {
			defer host.close()
			return host.zone.Run(gctx)
		})
	}
	g.Go(netServer.AcceptLoop)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case sess := <-netServer.NewSessions():
				entry.input.Adopt(sess)
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		netServer.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

func newZoneHost(cfg *config.Config, id uint16, serverID string, tables *data.Tables, store world.PlayerStore, sh *shard, log *zap.Logger) (*zoneHost, error) {
	zone := world.NewZone(world.ZoneConfig{
		ZoneID:         id,
		ServerID:       serverID,
		TickRate:       cfg.Network.TickRate,
		IdleInterval:   cfg.Network.IdleInterval,
		RenderDistance: cfg.World.RenderDistance,
	}, tables, store, log)
	host := &zoneHost{zone: zone}

	// Scripts attach before the level loads so level objects get their hooks.
	if cfg.Scripting.Enabled {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, zone.Log())
		if err != nil {
			return nil, fmt.Errorf("scripting: %w", err)
		}
		engine.Attach(zone)
		host.scripts = engine
		zone.Log().Info("scripts loaded", zap.Int("scripts", engine.ScriptCount()))
	}

	levelFile := fmt.Sprintf("%d.yaml", id)
	if row, ok := tables.Zone(id); ok && row.Level != "" {
		levelFile = row.Level
	}
	level, err := data.LoadLevel(filepath.Join(cfg.World.LevelDir, levelFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		zone.Log().Warn("zone has no level file", zap.String("file", levelFile))
	case err != nil:
		host.close()
		return nil, err
	default:
		zone.LoadLevel(level)
	}

	reg := packet.NewRegistry(zone.Log())
	sessions := system.NewSessionSet()
	host.input = system.NewInputSystem(reg, sessions, cfg.Network.MaxPacketsPerTick, zone.Log())
	handler.RegisterAll(reg, &handler.Deps{
		Zone:    zone,
		Log:     zone.Log(),
		Handoff: sh.handoff(host),
	})

	runner := zone.Runner()
	runner.Register(host.input)
	runner.Register(system.NewVisibilitySystem(zone, cfg.World.ViewRefreshTicks))
	runner.Register(system.NewOutputSystem(sessions))
	runner.Register(system.NewPersistenceSystem(zone, cfg.World.SaveInterval, zone.Log()))
	runner.Register(system.NewCleanupSystem(zone, sessions, zone.Log()))
	return host, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
