package workflow

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProcessLedgerEvent handles one outbox message end to end. It runs inside a
// single DB transaction under the per-business posting lock so that balance
// rebuilds for the same business are strictly ordered across instances.
// Processing is idempotent: a rebuild recomputes from the obligations table,
// so redelivery of the same message converges to the same row.
func ProcessLedgerEvent(ctx context.Context, logger *logrus.Logger, m config.PubSubMessage) error {
	db := config.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireBusinessPostingLock(tx.WithContext(ctx), m.BusinessId); err != nil {
			return err
		}
		defer ReleaseBusinessPostingLock(tx.WithContext(ctx), m.BusinessId)

		if err := ProcessLedgerEventWorkflow(tx.WithContext(ctx), logger, m); err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.WithContext(ctx).Model(&models.LedgerEventRecord{}).
			Where("id = ?", m.ID).
			Updates(map[string]interface{}{
				"is_processed": true,
				"processed_at": &now,
			}).Error
	})
}

// ProcessLedgerEventWorkflow routes a ledger event to its balance effect.
// Settlement and cheque events change an obligation's paid amount, so the
// affected counterparty's summary is rebuilt. Dyeing events carry no
// counterparty and are a no-op here.
func ProcessLedgerEventWorkflow(tx *gorm.DB, logger *logrus.Logger, msg config.PubSubMessage) error {
	switch msg.ReferenceType {
	case string(models.LedgerReferenceTypeSettlement), string(models.LedgerReferenceTypeCheque):
		var txn models.Transaction
		if err := json.Unmarshal(msg.NewObj, &txn); err != nil {
			config.LogError(logger, "BalanceWorkflow.go", "ProcessLedgerEventWorkflow", "Unmarshal msg.NewObj", msg.NewObj, err)
			return err
		}

		var obligation models.Obligation
		err := tx.Where("business_id = ?", msg.BusinessId).First(&obligation, txn.ObligationId).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				// Obligation was deleted after the event was written; nothing to rebuild.
				config.LogWarn(logger, "BalanceWorkflow.go", "ProcessLedgerEventWorkflow", "GetObligation", "obligation no longer exists, skipping rebuild")
				return nil
			}
			config.LogError(logger, "BalanceWorkflow.go", "ProcessLedgerEventWorkflow", "GetObligation", txn.ObligationId, err)
			return err
		}

		return RebuildCounterpartyBalance(tx, logger, msg.BusinessId, obligation.CounterpartyId, obligation.CounterpartyType)
	case string(models.LedgerReferenceTypeDyeingRun):
		return nil
	default:
		config.LogWarn(logger, "BalanceWorkflow.go", "ProcessLedgerEventWorkflow", "Route", "unknown reference type "+msg.ReferenceType)
		return nil
	}
}

type balanceAggregateRow struct {
	Kind             models.ObligationKind
	TotalOutstanding decimal.Decimal
}

// RebuildCounterpartyBalance recomputes the payable and receivable totals
// for one counterparty from the obligations table and upserts the summary
// row. Cancelled obligations are excluded; overpaid rows contribute zero.
func RebuildCounterpartyBalance(tx *gorm.DB, logger *logrus.Logger, businessId string, counterpartyId int, counterpartyType models.CounterpartyType) error {
	var rows []balanceAggregateRow
	err := tx.Raw(`
		SELECT
			kind,
			COALESCE(SUM(GREATEST(total_amount - paid_amount, 0)), 0) AS total_outstanding
		FROM obligations
		WHERE business_id = ?
		  AND counterparty_id = ?
		  AND counterparty_type = ?
		  AND current_status != ?
		GROUP BY kind
	`, businessId, counterpartyId, counterpartyType, models.ObligationStatusCancelled).Scan(&rows).Error
	if err != nil {
		config.LogError(logger, "BalanceWorkflow.go", "RebuildCounterpartyBalance", "AggregateObligations", counterpartyId, err)
		return err
	}

	totalPayable := decimal.Zero
	totalReceivable := decimal.Zero
	for _, row := range rows {
		switch row.Kind {
		case models.ObligationKindPayable, models.ObligationKindBill:
			totalPayable = totalPayable.Add(row.TotalOutstanding)
		case models.ObligationKindReceivable:
			totalReceivable = totalReceivable.Add(row.TotalOutstanding)
		}
	}

	balance := models.CounterpartyBalance{
		BusinessId:       businessId,
		CounterpartyId:   counterpartyId,
		CounterpartyType: counterpartyType,
		TotalPayable:     totalPayable,
		TotalReceivable:  totalReceivable,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "business_id"}, {Name: "counterparty_id"}, {Name: "counterparty_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_payable", "total_receivable", "updated_at"}),
	}).Create(&balance).Error
	if err != nil {
		config.LogError(logger, "BalanceWorkflow.go", "RebuildCounterpartyBalance", "UpsertBalance", balance, err)
		return err
	}

	// The cached copy is stale once the summary row changes; the next read repopulates it.
	config.DeleteRedisKey(models.CounterpartyBalanceCacheKey(businessId, counterpartyId))

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"field":             "BalanceWorkflow",
			"business_id":       businessId,
			"counterparty_id":   counterpartyId,
			"counterparty_type": counterpartyType,
			"total_payable":     totalPayable.String(),
			"total_receivable":  totalReceivable.String(),
		}).Info("counterparty balance rebuilt")
	}
	return nil
}
