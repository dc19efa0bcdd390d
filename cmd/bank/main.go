package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/riteshkumar/bank-ledger/internal/console"
	"github.com/riteshkumar/bank-ledger/internal/repository"
	"github.com/riteshkumar/bank-ledger/internal/service"
)

func main() {
	storeKind := flag.String("store", "postgres", "ledger store backend: postgres or memory")
	flag.Parse()

	// Operator output goes to stdout; keep the structured log on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	var store repository.Store
	switch *storeKind {
	case "memory":
		store = repository.NewMemoryStore()
	case "postgres":
		db, err := connectDB()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		store = repository.NewPostgresStore(db)
	default:
		fmt.Fprintf(os.Stderr, "unknown store backend %q\n", *storeKind)
		os.Exit(1)
	}

	customerService := service.NewCustomerService(store, logger)
	accountService := service.NewAccountService(store, logger)
	ledgerService := service.NewLedgerService(store, logger)

	c := console.New(os.Stdin, os.Stdout, customerService, accountService, ledgerService)
	if err := c.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "console error: %v\n", err)
		os.Exit(1)
	}
}

// connectDB establishes a connection to the Postgres database using the same
// environment variables as the server.
func connectDB() (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "password"),
		getEnv("DB_NAME", "bank"),
		getEnv("DB_SSLMODE", "disable"),
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
