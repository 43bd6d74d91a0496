package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/models"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
)

// A missing row is a 404; a broken database is not. Lookups must keep the
// two apart so callers never tell a client "no such record" during an outage.
func TestMissingRowVersusStorageFailure(t *testing.T) {
	ctx := setupIntegration(t)

	if _, err := models.GetObligation(ctx, 999999); !utils.IsNotFound(err) {
		t.Fatalf("expected not-found for missing id, got %v", err)
	}

	// Sever the connection pool and look up again. The error must NOT be
	// not-found; it is a storage failure. The next test reconnects via its
	// own setupIntegration, so closing here is safe.
	sqlDB, err := config.GetDB().DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close sql.DB: %v", err)
	}

	_, err = models.GetObligation(ctx, 999999)
	if err == nil {
		t.Fatal("expected an error from a closed pool")
	}
	if utils.IsNotFound(err) {
		t.Fatalf("storage failure surfaced as not-found: %v", err)
	}
}
