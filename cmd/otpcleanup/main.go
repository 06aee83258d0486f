// Command otpcleanup removes old OTP code rows from DynamoDB.
//
// The API itself evaluates expiry lazily and never sweeps, so storage only
// shrinks through DynamoDB's native TTL or this job. Run it from cron when
// TTL is unavailable (e.g. LocalStack).
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/otp-auth-api/internal/config"
	"github.com/otp-auth-api/internal/infrastructure/dynamo"
)

func main() {
	days := flag.Int("days", 7, "remove OTP codes older than this many days")
	dryRun := flag.Bool("dry-run", false, "show what would be deleted without deleting")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	client := dynamo.NewClient(cfg)
	repo := dynamo.NewOTPRepo(client, cfg.DynamoTables.OTPCodes)

	ctx := context.Background()
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -*days)

	old, err := repo.ScanOlderThan(ctx, cutoff)
	if err != nil {
		log.Fatalf("scan otp codes: %v", err)
	}

	if *dryRun {
		log.Printf("DRY RUN: would delete %d OTP codes older than %d days", len(old), *days)
		for i, rec := range old {
			if i == 5 {
				log.Printf("  ... and %d more", len(old)-5)
				break
			}
			log.Printf("  - %s: %s", rec.Phone, rec.CreatedAt.Format(time.RFC3339))
		}
	} else {
		deleted := 0
		for _, rec := range old {
			if err := repo.Delete(ctx, rec.Phone); err != nil {
				log.Printf("delete %s: %v", rec.Phone, err)
				continue
			}
			deleted++
		}
		log.Printf("Deleted %d expired OTP codes", deleted)
	}

	active, err := repo.CountActive(ctx, now)
	if err != nil {
		log.Fatalf("count active otp codes: %v", err)
	}
	log.Printf("Active OTP codes remaining: %d", active)
}
