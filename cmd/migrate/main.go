package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"clinicdesk/internal/config"
	"clinicdesk/migrations"
)

// usage: migrate [-config path] [up|down|version|force <n>]
func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("db driver: %v", err)
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatalf("source driver: %v", err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer func() { _, _ = m.Close() }()

	cmd := flag.Arg(0)
	switch cmd {
	case "", "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		v, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatalf("version: %v", verr)
		}
		fmt.Printf("version %d dirty=%v\n", v, dirty)
		return
	case "force":
		v, perr := strconv.Atoi(flag.Arg(1))
		if perr != nil {
			log.Fatalf("invalid version: %v", perr)
		}
		err = m.Force(v)
	default:
		log.Fatalf("unknown command %q", cmd)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate %s: %v", cmd, err)
	}
	fmt.Println("migrations complete")
}
