// ledger-recheck runs the reconciliation drift checks for one business and
// prints any mismatch rows it recorded.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/ledger-recheck -business <business_id>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/models"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
)

func main() {
	businessId := flag.String("business", os.Getenv("BUSINESS_ID"), "business id to check")
	flag.Parse()

	if *businessId == "" {
		fmt.Fprintln(os.Stderr, "business id is required (-business flag or BUSINESS_ID env)")
		os.Exit(2)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	ctx := utils.SetBusinessIdInContext(context.Background(), *businessId)
	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUserNameInContext(ctx, "LedgerRecheck")

	cid, err := models.RunReconciliationChecks(ctx, *businessId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation checks failed: %v\n", err)
		os.Exit(1)
	}

	var reports []models.ReconciliationReport
	if err := db.WithContext(ctx).
		Where("business_id = ? AND correlation_id = ?", *businessId, cid).
		Order("id ASC").
		Find(&reports).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to read reconciliation reports: %v\n", err)
		os.Exit(1)
	}

	if len(reports) == 0 {
		fmt.Printf("business %s: no drift detected (correlation_id=%s)\n", *businessId, cid)
		return
	}

	fmt.Printf("business %s: %d mismatch(es) (correlation_id=%s)\n", *businessId, len(reports), cid)
	for _, rep := range reports {
		fmt.Printf("  [%s] %s id=%d: %s\n", rep.CheckType, rep.EntityType, rep.EntityId, rep.Details)
	}
	os.Exit(3)
}
