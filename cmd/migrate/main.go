package main

import (
	"database/sql"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/lib/pq"

	"github.com/yourusername/eneza-api/internal/config"
	"github.com/yourusername/eneza-api/pkg/database"
)

// Утилита обслуживания схемы: up, down N шагов или force для очистки dirty-состояния.
func main() {
	down := flag.Int("down", 0, "откатить указанное число миграций")
	force := flag.Int("force", -1, "принудительно установить версию (снимает dirty-флаг)")
	source := flag.String("source", database.MigrationsSource, "источник миграций")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalf("Миграции применимы только к postgres (driver=%s)", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.PostgresURL())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	m, err := database.NewMigrator(db, *source)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case *force >= 0:
		log.Printf("Принудительная установка версии %d...", *force)
		err = m.Force(*force)
	case *down > 0:
		log.Printf("Откат %d миграций...", *down)
		err = m.Steps(-*down)
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("Failed to read version: %v", err)
	}
	log.Printf("Готово: версия %d, dirty=%t", version, dirty)
}
