package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"alert-relay/internal/infrastructure/config"

	_ "github.com/lib/pq"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	migrationsPath := flag.String("dir", "db/migrations", "path to migrations directory")
	flag.Parse()

	cfg, err := config.LoadFromFile(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	if cfg.DB.DSN == "" {
		log.Fatal("db.dsn is not set, cannot run migrations")
	}

	absDir, err := filepath.Abs(*migrationsPath)
	if err != nil {
		log.Fatalf("resolve migrations path failed: %v", err)
	}
	if _, err := os.Stat(absDir); err != nil {
		log.Fatalf("migrations directory missing: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(absDir, "*.sql"))
	if err != nil {
		log.Fatalf("read migrations failed: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("no .sql migration files found")
	}
	sort.Strings(files)

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		log.Fatalf("open database failed: %v", err)
	}
	defer db.Close()

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read file %s failed: %v", f, err)
		}
		log.Printf("applying migration: %s", filepath.Base(f))
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			log.Fatalf("apply %s failed: %v", filepath.Base(f), err)
		}
	}

	fmt.Println("migrations applied")
}
