package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/memberclub-backend/pkg/config"
	"github.com/angelmondragon/memberclub-backend/pkg/db"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
	"github.com/angelmondragon/memberclub-backend/pkg/migrate"
)

const serviceName = "migrate"

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory")
	embedded := flag.Bool("embedded", false, "use the migrations compiled into this binary instead of -dir")
	name := flag.String("name", "", "migration name (create)")
	version := flag.String("version", "", "target version YYYYMMDDHHMMSS (version)")
	flag.Parse()

	if err := run(*cmd, *dir, *embedded, *name, *version); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s: %v\n", serviceName, *cmd, err)
		os.Exit(1)
	}
}

func run(cmd, dir string, embedded bool, name, version string) error {
	// Offline commands need neither config nor a database.
	switch cmd {
	case "create":
		if name == "" {
			return fmt.Errorf("missing -name")
		}
		path, err := migrate.CreateSQLMigration(dir, name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		files, err := migrate.ValidateDir(dir)
		if err != nil {
			return err
		}
		fmt.Printf("%d migrations valid\n", len(files))
		return nil
	case "up", "down", "status", "version":
	default:
		return fmt.Errorf("unknown command")
	}
	if cmd == "version" && version == "" {
		return fmt.Errorf("missing -version")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Output:      os.Stderr,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      cmd,
		"dir":      dir,
		"embedded": embedded,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}

	var runner *migrate.Runner
	if embedded {
		runner, err = migrate.NewEmbeddedRunner(sqlDB)
	} else {
		runner, err = migrate.NewDirRunner(sqlDB, dir)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate ready")

	switch cmd {
	case "up":
		return runner.Up(ctx, os.Stdout)
	case "down":
		return runner.Down(ctx, os.Stdout)
	case "status":
		return runner.Status(ctx, os.Stdout)
	default:
		return runner.MigrateTo(ctx, version)
	}
}
