package models_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/models"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
)

// Regression: two settlements racing against the same obligation must
// serialize on the row lock so their combined amount can never exceed the
// remaining balance, and the paid amount and status always move together.
func TestConcurrentSettlementsCannotOverpay(t *testing.T) {
	ctx := setupIntegration(t)

	obligation, err := models.CreateObligation(ctx, &models.NewObligation{
		Kind:             models.ObligationKindBill,
		CounterpartyId:   101,
		CounterpartyType: models.CounterpartyTypeVendor,
		ObligationDate:   time.Now().UTC(),
		TotalAmount:      decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}

	// Two 60s against a 100 balance: exactly one must win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = models.RecordTransaction(ctx, &models.NewTransaction{
				ObligationId: obligation.ID,
				Amount:       decimal.NewFromInt(60),
				PaymentMode:  models.PaymentModeCash,
			})
		}(i)
	}
	wg.Wait()

	var overLimit *utils.OverLimitError
	switch {
	case errs[0] == nil && errs[1] == nil:
		t.Fatal("both settlements succeeded; obligation overpaid")
	case errs[0] != nil && errs[1] != nil:
		t.Fatalf("both settlements failed: %v / %v", errs[0], errs[1])
	case errs[0] != nil && !errors.As(errs[0], &overLimit):
		t.Fatalf("loser should fail with OverLimitError, got %v", errs[0])
	case errs[1] != nil && !errors.As(errs[1], &overLimit):
		t.Fatalf("loser should fail with OverLimitError, got %v", errs[1])
	}

	got, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	if got.PaidAmount.Cmp(decimal.NewFromInt(60)) != 0 {
		t.Fatalf("expected paid_amount=60, got %s", got.PaidAmount)
	}
	if got.CurrentStatus != models.ObligationStatusPartial {
		t.Fatalf("expected status Partial, got %s", got.CurrentStatus)
	}
}

func TestSettlementToleranceBoundary(t *testing.T) {
	ctx := setupIntegration(t)

	obligation, err := models.CreateObligation(ctx, &models.NewObligation{
		Kind:             models.ObligationKindReceivable,
		CounterpartyId:   202,
		CounterpartyType: models.CounterpartyTypeCustomer,
		ObligationDate:   time.Now().UTC(),
		TotalAmount:      decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}

	if _, err := models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.NewFromInt(60),
		PaymentMode:  models.PaymentModeOnline,
	}); err != nil {
		t.Fatalf("first settlement: %v", err)
	}

	// One minor unit over the remaining 40 is within tolerance.
	if _, err := models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.RequireFromString("40.01"),
		PaymentMode:  models.PaymentModeOnline,
	}); err != nil {
		t.Fatalf("tolerance settlement rejected: %v", err)
	}

	got, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	if got.CurrentStatus != models.ObligationStatusPaid {
		t.Fatalf("expected status Paid, got %s", got.CurrentStatus)
	}
	if !got.Remaining().IsZero() {
		t.Fatalf("expected remaining 0, got %s", got.Remaining())
	}

	// Fully settled: even one more paisa past tolerance must be refused.
	_, err = models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.RequireFromString("0.02"),
		PaymentMode:  models.PaymentModeCash,
	})
	var overLimit *utils.OverLimitError
	if !errors.As(err, &overLimit) {
		t.Fatalf("expected OverLimitError, got %v", err)
	}
}

func TestCancelledObligationRejectsSettlement(t *testing.T) {
	ctx := setupIntegration(t)

	obligation, err := models.CreateObligation(ctx, &models.NewObligation{
		Kind:             models.ObligationKindPayable,
		CounterpartyId:   303,
		CounterpartyType: models.CounterpartyTypeVendor,
		ObligationDate:   time.Now().UTC(),
		TotalAmount:      decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}
	if _, err := models.CancelObligation(ctx, obligation.ID, false); err != nil {
		t.Fatalf("CancelObligation: %v", err)
	}

	_, err = models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.NewFromInt(100),
		PaymentMode:  models.PaymentModeCash,
	})
	var transition *utils.InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestCancelRequiresForceAfterSettlement(t *testing.T) {
	ctx := setupIntegration(t)

	obligation, err := models.CreateObligation(ctx, &models.NewObligation{
		Kind:             models.ObligationKindBill,
		CounterpartyId:   404,
		CounterpartyType: models.CounterpartyTypeVendor,
		ObligationDate:   time.Now().UTC(),
		TotalAmount:      decimal.NewFromInt(300),
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}
	if _, err := models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.NewFromInt(50),
		PaymentMode:  models.PaymentModeCash,
	}); err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	var transition *utils.InvalidTransitionError
	if _, err := models.CancelObligation(ctx, obligation.ID, false); !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError without force, got %v", err)
	}

	cancelled, err := models.CancelObligation(ctx, obligation.ID, true)
	if err != nil {
		t.Fatalf("forced cancel: %v", err)
	}
	if cancelled.CurrentStatus != models.ObligationStatusCancelled {
		t.Fatalf("expected Cancelled, got %s", cancelled.CurrentStatus)
	}
}
