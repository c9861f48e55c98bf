package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/deskhub/facility-backend/internal/config"
	"github.com/deskhub/facility-backend/internal/database"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Truncated in one statement; CASCADE handles the foreign keys
var tables = []string{
	"audit_logs",
	"subscriptions",
	"membership_plans",
	"lease_contracts",
	"bookings",
	"resources",
	"user_profiles",
	"users",
}

func main() {
	dbURLFlag := pflag.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	keepUsers := pflag.Bool("keep-users", false, "keep users and profiles, clearing only facility data")
	yes := pflag.BoolP("yes", "y", false, "skip the confirmation prompt")
	pflag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := *dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and --database-url was not provided")
	}

	targets := tables
	if *keepUsers {
		targets = tables[:len(tables)-2]
	}

	if !*yes {
		fmt.Printf("This will delete all rows from: %v\nType 'yes' to continue: ", targets)
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewConnection(ctx, config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	}, logger)
	if err != nil {
		cancel()
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database. Truncating tables...")

	truncateSQL := "TRUNCATE TABLE "
	for i, t := range targets {
		if i > 0 {
			truncateSQL += ", "
		}
		truncateSQL += t
	}
	truncateSQL += " RESTART IDENTITY CASCADE"

	if _, err := db.ExecContext(ctx, truncateSQL); err != nil {
		db.Close()
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("Post-clear row counts:")
	for _, t := range targets {
		var count int
		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
