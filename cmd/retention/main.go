package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"fixhub/internal/database"
	"fixhub/internal/repository"

	"github.com/joho/godotenv"
)

// Removes read notifications past the retention window. Run from cron;
// the same cleanup is reachable over HTTP via the internal API.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	days := 30
	if v := os.Getenv("NOTIFICATION_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid NOTIFICATION_RETENTION_DAYS: %q", v)
		}
		days = n
	}

	db, err := database.Connect(databaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	notifs := repository.NewNotificationRepository(db)
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	removed, err := notifs.DeleteReadBefore(context.Background(), cutoff)
	if err != nil {
		log.Fatalf("cleanup notifications failed: %v", err)
	}

	log.Printf("retention completed: notifications=%d cutoff=%s", removed, cutoff.Format("2006-01-02"))
}
