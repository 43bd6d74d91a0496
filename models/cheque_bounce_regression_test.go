package models_test

import (
	"errors"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/models"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
)

// Regression: a bounced cheque must reverse its contribution to the
// obligation in the same commit that flags the cheque, so the obligation
// can never be read bounced-but-still-paid.
func TestChequeBounceReversesObligation(t *testing.T) {
	ctx := setupIntegration(t)

	obligation, err := models.CreateObligation(ctx, &models.NewObligation{
		Kind:             models.ObligationKindBill,
		CounterpartyId:   101,
		CounterpartyType: models.CounterpartyTypeVendor,
		ObligationDate:   time.Now().UTC(),
		TotalAmount:      decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}

	issueDate := time.Now().UTC().AddDate(0, 0, -3)
	txn, err := models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.NewFromInt(80),
		PaymentMode:  models.PaymentModeCheque,
		ChequeDetails: &models.NewChequeDetails{
			Number:    "CHQ-778812",
			Bank:      "Canara Bank",
			IssueDate: &issueDate,
		},
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if txn.ChequeStatus != models.ChequeStatusPending {
		t.Fatalf("expected cheque Pending, got %s", txn.ChequeStatus)
	}

	mid, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	if mid.PaidAmount.Cmp(decimal.NewFromInt(80)) != 0 || mid.CurrentStatus != models.ObligationStatusPartial {
		t.Fatalf("expected paid=80/Partial before bounce, got %s/%s", mid.PaidAmount, mid.CurrentStatus)
	}

	bounced, err := models.UpdateChequeStatus(ctx, txn.ID, models.ChequeStatusBounced, nil)
	if err != nil {
		t.Fatalf("UpdateChequeStatus: %v", err)
	}
	if bounced.ChequeStatus != models.ChequeStatusBounced {
		t.Fatalf("expected Bounced, got %s", bounced.ChequeStatus)
	}
	if bounced.ChequeClearanceDate != nil {
		t.Fatal("bounced cheque must not carry a clearance date")
	}

	after, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation after bounce: %v", err)
	}
	if !after.PaidAmount.IsZero() {
		t.Fatalf("expected paid reversed to 0, got %s", after.PaidAmount)
	}
	if after.CurrentStatus != models.ObligationStatusPending {
		t.Fatalf("expected status back to Pending, got %s", after.CurrentStatus)
	}

	// Terminal: a second transition attempt must be refused.
	var transition *utils.InvalidTransitionError
	if _, err := models.UpdateChequeStatus(ctx, txn.ID, models.ChequeStatusCleared, nil); !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError on re-transition, got %v", err)
	}
}

func TestChequeClearSetsClearanceDate(t *testing.T) {
	ctx := setupIntegration(t)

	obligation, err := models.CreateObligation(ctx, &models.NewObligation{
		Kind:             models.ObligationKindReceivable,
		CounterpartyId:   202,
		CounterpartyType: models.CounterpartyTypeCustomer,
		ObligationDate:   time.Now().UTC(),
		TotalAmount:      decimal.NewFromInt(150),
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}
	txn, err := models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.NewFromInt(150),
		PaymentMode:  models.PaymentModeCheque,
		ChequeDetails: &models.NewChequeDetails{
			Number: "CHQ-000241",
			Bank:   "HDFC",
		},
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	clearance := time.Now().UTC().Truncate(time.Second)
	cleared, err := models.UpdateChequeStatus(ctx, txn.ID, models.ChequeStatusCleared, &clearance)
	if err != nil {
		t.Fatalf("UpdateChequeStatus: %v", err)
	}
	if cleared.ChequeClearanceDate == nil {
		t.Fatal("expected clearance date set")
	}

	// Clearing never touches the obligation's settlement.
	after, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	if after.CurrentStatus != models.ObligationStatusPaid {
		t.Fatalf("expected Paid after clearance, got %s", after.CurrentStatus)
	}
	if after.PaidAmount.Cmp(decimal.NewFromInt(150)) != 0 {
		t.Fatalf("expected paid=150, got %s", after.PaidAmount)
	}
}

// Replacing a cheque backs its amount out of the obligation, so the
// replacement cheque recorded afterwards fits the freed balance instead of
// tripping the over-limit guard.
func TestChequeReplaceFreesBalanceForReplacement(t *testing.T) {
	ctx := setupIntegration(t)

	obligation, err := models.CreateObligation(ctx, &models.NewObligation{
		Kind:             models.ObligationKindBill,
		CounterpartyId:   404,
		CounterpartyType: models.CounterpartyTypeVendor,
		ObligationDate:   time.Now().UTC(),
		TotalAmount:      decimal.NewFromInt(120),
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}
	original, err := models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.NewFromInt(120),
		PaymentMode:  models.PaymentModeCheque,
		ChequeDetails: &models.NewChequeDetails{
			Number: "CHQ-310045",
			Bank:   "Axis Bank",
		},
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}

	full, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	if full.CurrentStatus != models.ObligationStatusPaid {
		t.Fatalf("expected Paid before replacement, got %s", full.CurrentStatus)
	}

	replaced, err := models.UpdateChequeStatus(ctx, original.ID, models.ChequeStatusReplaced, nil)
	if err != nil {
		t.Fatalf("UpdateChequeStatus(Replaced): %v", err)
	}
	if replaced.ChequeStatus != models.ChequeStatusReplaced {
		t.Fatalf("expected Replaced, got %s", replaced.ChequeStatus)
	}

	freed, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation after replace: %v", err)
	}
	if !freed.PaidAmount.IsZero() || freed.CurrentStatus != models.ObligationStatusPending {
		t.Fatalf("expected paid=0/Pending after replace, got %s/%s", freed.PaidAmount, freed.CurrentStatus)
	}

	// The replacement cheque arrives as a fresh settlement for the same
	// amount and must be accepted.
	replacement, err := models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.NewFromInt(120),
		PaymentMode:  models.PaymentModeCheque,
		ChequeDetails: &models.NewChequeDetails{
			Number: "CHQ-310046",
			Bank:   "Axis Bank",
		},
	})
	if err != nil {
		t.Fatalf("replacement settlement refused: %v", err)
	}
	if replacement.ChequeStatus != models.ChequeStatusPending {
		t.Fatalf("expected replacement cheque Pending, got %s", replacement.ChequeStatus)
	}

	again, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation after replacement: %v", err)
	}
	if again.PaidAmount.Cmp(decimal.NewFromInt(120)) != 0 || again.CurrentStatus != models.ObligationStatusPaid {
		t.Fatalf("expected paid=120/Paid, got %s/%s", again.PaidAmount, again.CurrentStatus)
	}
}

// A cheque bouncing against an already-cancelled obligation flags the
// cheque but leaves the cancelled obligation untouched.
func TestChequeBounceOnCancelledObligationAbsorbs(t *testing.T) {
	ctx := setupIntegration(t)

	obligation, err := models.CreateObligation(ctx, &models.NewObligation{
		Kind:             models.ObligationKindBill,
		CounterpartyId:   303,
		CounterpartyType: models.CounterpartyTypeVendor,
		ObligationDate:   time.Now().UTC(),
		TotalAmount:      decimal.NewFromInt(90),
	})
	if err != nil {
		t.Fatalf("CreateObligation: %v", err)
	}
	txn, err := models.RecordTransaction(ctx, &models.NewTransaction{
		ObligationId: obligation.ID,
		Amount:       decimal.NewFromInt(90),
		PaymentMode:  models.PaymentModeCheque,
		ChequeDetails: &models.NewChequeDetails{
			Number: "CHQ-556677",
			Bank:   "SBI",
		},
	})
	if err != nil {
		t.Fatalf("RecordTransaction: %v", err)
	}
	if _, err := models.CancelObligation(ctx, obligation.ID, true); err != nil {
		t.Fatalf("CancelObligation: %v", err)
	}

	bounced, err := models.UpdateChequeStatus(ctx, txn.ID, models.ChequeStatusBounced, nil)
	if err != nil {
		t.Fatalf("bounce on cancelled obligation should succeed: %v", err)
	}
	if bounced.ChequeStatus != models.ChequeStatusBounced {
		t.Fatalf("expected Bounced, got %s", bounced.ChequeStatus)
	}

	after, err := models.GetObligation(ctx, obligation.ID)
	if err != nil {
		t.Fatalf("GetObligation: %v", err)
	}
	if after.CurrentStatus != models.ObligationStatusCancelled {
		t.Fatalf("cancelled obligation must stay Cancelled, got %s", after.CurrentStatus)
	}
}
