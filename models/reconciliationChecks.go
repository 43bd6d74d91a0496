package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunReconciliationChecks writes mismatch rows to reconciliation_reports.
// This is intended to be run on a schedule (nightly) or via an admin trigger.
func RunReconciliationChecks(ctx context.Context, businessId string) (correlationId string, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db := config.GetDB()
	if db == nil {
		return "", fmt.Errorf("db is nil")
	}
	logger := config.GetLogger()

	cid, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || cid == "" {
		cid = uuid.NewString()
	}
	now := time.Now().UTC()

	// 1) Obligation paid_amount vs sum of settlements, bounced cheques excluded.
	// Paid is clamped at zero on bounce, so the comparison uses GREATEST too.
	type paidMismatch struct {
		ObligationId int
		PaidAmount   string
		SettledSum   string
	}
	var paidMismatches []paidMismatch
	if err := db.WithContext(ctx).Raw(`
		SELECT
			o.id AS obligation_id,
			CAST(o.paid_amount AS CHAR) AS paid_amount,
			CAST(GREATEST(COALESCE(SUM(
				CASE
					WHEN t.payment_mode = ? AND t.cheque_status = ? THEN 0
					ELSE t.amount
				END), 0), 0) AS CHAR) AS settled_sum
		FROM obligations o
		LEFT JOIN transactions t
		  ON t.business_id = o.business_id
		 AND t.obligation_id = o.id
		WHERE o.business_id = ? AND o.current_status != ?
		GROUP BY o.id
		HAVING ABS(o.paid_amount - GREATEST(COALESCE(SUM(
			CASE
				WHEN t.payment_mode = ? AND t.cheque_status = ? THEN 0
				ELSE t.amount
			END), 0), 0)) > 0.01
	`, PaymentModeCheque, ChequeStatusBounced, businessId, ObligationStatusCancelled,
		PaymentModeCheque, ChequeStatusBounced).Scan(&paidMismatches).Error; err != nil {
		return cid, err
	}
	for _, m := range paidMismatches {
		_ = db.WithContext(ctx).Create(&ReconciliationReport{
			BusinessId:    businessId,
			CheckType:     "OBLIGATION_PAID",
			EntityType:    "Obligation",
			EntityId:      m.ObligationId,
			Details:       fmt.Sprintf("paid_amount=%s != sum(transactions.amount excl bounced)=%s", m.PaidAmount, m.SettledSum),
			CorrelationId: cid,
			CreatedAt:     now,
		}).Error
	}

	// 2) Obligation status vs derived status from the amounts.
	type statusMismatch struct {
		ObligationId  int
		CurrentStatus string
		TotalAmount   string
		PaidAmount    string
	}
	var statusMismatches []statusMismatch
	if err := db.WithContext(ctx).Raw(`
		SELECT
			o.id AS obligation_id,
			o.current_status,
			CAST(o.total_amount AS CHAR) AS total_amount,
			CAST(o.paid_amount AS CHAR) AS paid_amount
		FROM obligations o
		WHERE o.business_id = ?
		  AND o.current_status != ?
		  AND o.current_status != (
			CASE
				WHEN o.total_amount - o.paid_amount <= 0.01 THEN ?
				WHEN o.paid_amount <= 0.01 THEN ?
				ELSE ?
			END)
	`, businessId, ObligationStatusCancelled,
		ObligationStatusPaid, ObligationStatusPending, ObligationStatusPartial).Scan(&statusMismatches).Error; err != nil {
		return cid, err
	}
	for _, m := range statusMismatches {
		_ = db.WithContext(ctx).Create(&ReconciliationReport{
			BusinessId:    businessId,
			CheckType:     "OBLIGATION_STATUS",
			EntityType:    "Obligation",
			EntityId:      m.ObligationId,
			Details:       fmt.Sprintf("current_status=%s inconsistent with total=%s paid=%s", m.CurrentStatus, m.TotalAmount, m.PaidAmount),
			CorrelationId: cid,
			CreatedAt:     now,
		}).Error
	}

	// 3) Stock current_quantity vs sum(inventory_movements.quantity_delta).
	// Movements store the applied delta, so equality holds exactly even when
	// a downward adjustment was clamped at zero.
	type stockMismatch struct {
		StockId     int
		ExpectedQty string
		ActualQty   string
	}
	var stockMismatches []stockMismatch
	if err := db.WithContext(ctx).Raw(`
		SELECT
			s.id AS stock_id,
			CAST(s.current_quantity AS CHAR) AS expected_qty,
			CAST(COALESCE(SUM(m.quantity_delta), 0) AS CHAR) AS actual_qty
		FROM inventory_stocks s
		LEFT JOIN inventory_movements m
		  ON m.business_id = s.business_id
		 AND m.stock_id = s.id
		WHERE s.business_id = ?
		GROUP BY s.id
		HAVING ROUND(s.current_quantity, 4) <> ROUND(COALESCE(SUM(m.quantity_delta), 0), 4)
	`, businessId).Scan(&stockMismatches).Error; err != nil {
		return cid, err
	}
	for _, m := range stockMismatches {
		_ = db.WithContext(ctx).Create(&ReconciliationReport{
			BusinessId:    businessId,
			CheckType:     "STOCK_QUANTITY",
			EntityType:    "InventoryStock",
			EntityId:      m.StockId,
			Details:       fmt.Sprintf("current_quantity=%s != sum(inventory_movements.quantity_delta)=%s", m.ExpectedQty, m.ActualQty),
			CorrelationId: cid,
			CreatedAt:     now,
		}).Error
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":             "ReconciliationChecks",
			"business_id":       businessId,
			"correlation_id":    cid,
			"paid_mismatches":   len(paidMismatches),
			"status_mismatches": len(statusMismatches),
			"stock_mismatches":  len(stockMismatches),
		}).Info("reconciliation checks completed")
	}
	return cid, nil
}
