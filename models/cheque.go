package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
)

// ValidateChequeTransition checks a requested cheque status change against
// the lifecycle: Pending -> Cleared | Bounced | Replaced, all terminal.
// Pure; used by UpdateChequeStatus and directly by tests.
func ValidateChequeTransition(current, next ChequeStatus) error {
	switch next {
	case ChequeStatusCleared, ChequeStatusBounced, ChequeStatusReplaced:
	default:
		return utils.NewValidationError("status", "unrecognized cheque status")
	}
	if current != ChequeStatusPending {
		return utils.NewInvalidTransitionError(string(current), string(next))
	}
	return nil
}

// UpdateChequeStatus moves a cheque-backed transaction to a terminal state.
//
// Cleared sets the clearance date and leaves the obligation untouched (the
// transaction already contributed to paid when recorded). Bounced and
// Replaced reverse that contribution; the reversal and the cheque flag
// commit together, so the obligation can never be observed
// bounced-but-still-paid, and a replacement cheque recorded afterwards fits
// the freed balance.
func UpdateChequeStatus(ctx context.Context, transactionId int, newStatus ChequeStatus, clearanceDate *time.Time) (*Transaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	logger := config.GetLogger()
	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	transaction, err := utils.FetchForUpdate[Transaction](tx, ctx, businessId, transactionId)
	if err != nil {
		return nil, err
	}
	if transaction.PaymentMode != PaymentModeCheque {
		return nil, utils.NewValidationError("transaction_id", "transaction is not cheque-backed")
	}
	if err := ValidateChequeTransition(transaction.ChequeStatus, newStatus); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"cheque_status": newStatus}
	switch newStatus {
	case ChequeStatusCleared:
		clearedAt := time.Now().UTC()
		if clearanceDate != nil {
			clearedAt = *clearanceDate
		}
		transaction.ChequeClearanceDate = &clearedAt
		updates["cheque_clearance_date"] = &clearedAt

	case ChequeStatusBounced, ChequeStatusReplaced:
		// Either way the money never arrived; back the settlement out so a
		// replacement (or any later payment) fits the remaining balance.
		transaction.ChequeClearanceDate = nil
		updates["cheque_clearance_date"] = nil

		obligation, err := utils.FetchForUpdate[Obligation](tx, ctx, businessId, transaction.ObligationId)
		if err != nil {
			return nil, err
		}
		if obligation.CurrentStatus == ObligationStatusCancelled {
			// Cancelled is absorbing: flag the cheque, leave the
			// obligation's amounts alone.
			config.LogWarn(logger, "cheque.go", "UpdateChequeStatus", "ReverseOnCancelled",
				"cheque "+string(newStatus)+" on a cancelled obligation; settlement state not reversed")
		} else {
			newPaid := reversedPaidAmount(obligation.PaidAmount, transaction.Amount)
			derived := DeriveObligationStatus(obligation.TotalAmount, newPaid)
			if err := tx.WithContext(ctx).Model(&Obligation{}).Where("id = ?", obligation.ID).
				Updates(map[string]interface{}{
					"paid_amount":    newPaid,
					"current_status": derived,
				}).Error; err != nil {
				return nil, utils.NewPersistenceError("reverse obligation settlement", err)
			}
		}
	}

	transaction.ChequeStatus = newStatus
	if err := tx.WithContext(ctx).Model(&Transaction{}).Where("id = ?", transaction.ID).
		Updates(updates).Error; err != nil {
		return nil, utils.NewPersistenceError("update cheque status", err)
	}

	if err := PublishToLedger(ctx, tx, businessId, time.Now().UTC(), transaction.ID, LedgerReferenceTypeCheque, transaction, LedgerEventActionUpdate); err != nil {
		return nil, utils.NewPersistenceError("write outbox record", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("commit cheque update", err)
	}
	return transaction, nil
}

// reversedPaidAmount backs one settlement out of the paid amount, clamped
// at zero in minor units.
func reversedPaidAmount(paid, amount decimal.Decimal) decimal.Decimal {
	units := utils.ToMinorUnits(paid) - utils.ToMinorUnits(amount)
	if units < 0 {
		units = 0
	}
	return utils.FromMinorUnits(units)
}

// ListPendingCheques feeds the cheque register view.
func ListPendingCheques(ctx context.Context) ([]*Transaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var cheques []*Transaction
	if err := db.WithContext(ctx).
		Where("business_id = ? AND payment_mode = ? AND cheque_status = ?",
			businessId, PaymentModeCheque, ChequeStatusPending).
		Order("cheque_issue_date ASC, id ASC").
		Find(&cheques).Error; err != nil {
		return nil, utils.NewPersistenceError("list pending cheques", err)
	}
	return cheques, nil
}
