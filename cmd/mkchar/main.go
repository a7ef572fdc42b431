// mkchar creates a character row for local testing.
//
// Usage:
//
//	go run ./cmd/mkchar -name Tester [-account 1] [-zone 1000] [-gm 0]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lugo/server/internal/config"
	"github.com/lugo/server/internal/core/ecs"
	"github.com/lugo/server/internal/persist"
	"go.uber.org/zap"
)

func main() {
	name := flag.String("name", "", "character name")
	account := flag.Int64("account", 1, "owning account id")
	zone := flag.Uint("zone", 0, "starting zone (default: config default zone)")
	gm := flag.Int("gm", 0, "gm level")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "Usage: mkchar -name <name> [-account id] [-zone id] [-gm level]")
		os.Exit(2)
	}
	if err := run(*name, *account, uint16(*zone), int16(*gm)); err != nil {
		fmt.Fprintf(os.Stderr, "mkchar: %v\n", err)
		os.Exit(1)
	}
}

func run(name string, account int64, zone uint16, gm int16) error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("LUGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if zone == 0 {
		zone = cfg.World.DefaultZone
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, zap.NewNop())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return err
	}

	id := ecs.NewIDGenerator(time.Now().UnixMilli()).Next(ecs.FlagCharacter | ecs.FlagPersistent)
	row := persist.NewCharacterRow(int64(id), account, name, zone)
	row.GMLevel = gm
	if err := persist.NewCharacterRepo(db).Create(ctx, row); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	fmt.Printf("Created %s (id %d) in zone %d\n", name, id, zone)
	return nil
}
