// migrate aplica o revierte las migraciones embebidas del ledger.
//
// Uso: go run ./cmd/migrate [-log-level info] up|down
// La conexión sale de DATABASE_URL o de DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	var logLevel string
	flag.StringVar(&logLevel, "log-level", "info", "nivel de log (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		printUsage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: logLevel}).Component("migrate")

	dsn := cfg.DB.ConnectionString()
	switch args[0] {
	case "up":
		err = postgres.Migrate(dsn, log)
	case "down":
		err = postgres.MigrateDown(dsn, log)
	default:
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("migración fallida")
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "uso: migrate [-log-level nivel] up|down")
}
