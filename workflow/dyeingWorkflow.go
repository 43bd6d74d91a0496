package workflow

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/models"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CompleteDyeingRunInput struct {
	OutputQuantity  decimal.Decimal        `json:"output_quantity"`
	ResultStatus    models.DyeingRunStatus `json:"result_status" binding:"required"`
	PostToInventory *bool                  `json:"post_to_inventory"`
	Notes           string                 `json:"notes"`
}

// CompleteDyeingRun drives a run out of Pending: consume the raw thread,
// record the dyed output, and (for completed runs) post finished goods to
// stock. Everything runs in one DB transaction under the business posting
// lock, so a committed run is never half-applied: either the material is
// consumed AND the output posted, or neither.
//
// The flow is retriable: a run completed without posting can be posted
// later by a second call; InventoryPosted blocks a second posting and the
// raw material's Raw -> Colored flip is skipped when already applied.
func CompleteDyeingRun(ctx context.Context, runId int, input *CompleteDyeingRunInput) (*models.DyeingRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	logger := config.GetLogger()
	if !input.ResultStatus.IsValid() || input.ResultStatus == models.DyeingRunStatusPending {
		return nil, utils.NewValidationError("result_status", "invalid result status")
	}
	if input.OutputQuantity.IsNegative() {
		return nil, utils.NewValidationError("output_quantity", "output quantity cannot be negative")
	}
	postToInventory := utils.DereferencePtr(input.PostToInventory)

	db := config.GetDB()
	var run *models.DyeingRun
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
			return utils.NewPersistenceError("acquire posting lock", err)
		}
		// GET_LOCK is connection-scoped: releasing must happen while this
		// transaction still owns the connection, before commit/rollback,
		// or the lock leaks into the pool for the GET_LOCK timeout.
		defer ReleaseBusinessPostingLock(tx, businessId)

		fetched, err := utils.FetchForUpdate[models.DyeingRun](tx, ctx, businessId, runId)
		if err != nil {
			return err
		}
		run = fetched

		if input.OutputQuantity.GreaterThan(run.InputQuantity) {
			return utils.NewOverLimitError("output quantity exceeds input quantity", run.InputQuantity)
		}

		transitioning, err := validateDyeingRunAction(run.ResultStatus, run.InventoryPosted, input.ResultStatus, postToInventory)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		// Raw thread leaves stock exactly once: when the run first leaves
		// Pending. Partial -> Completed finalizes without re-consuming.
		if run.ResultStatus == models.DyeingRunStatusPending {
			if _, err := models.AdjustStockQuantity(tx, ctx, businessId, run.RawStockId, run.InputQuantity.Neg(),
				models.MovementRef{Type: models.MovementReferenceTypeDyeingConsume, Id: run.ID, Date: now}); err != nil {
				return err
			}
		}

		if transitioning {
			run.OutputQuantity = input.OutputQuantity
			run.WastagePercent = wastagePercent(run.InputQuantity, input.OutputQuantity)
			run.ResultStatus = input.ResultStatus
			if input.Notes != "" {
				run.Notes = input.Notes
			}
		}
		if run.ResultStatus == models.DyeingRunStatusCompleted && run.CompletedAt == nil {
			run.CompletedAt = &now
		}

		if postToInventory && run.ResultStatus == models.DyeingRunStatusCompleted {
			raw, err := utils.FetchForUpdate[models.InventoryStock](tx, ctx, businessId, run.RawStockId)
			if err != nil {
				return err
			}
			colored, err := models.LocateOrCreateColoredStock(tx, ctx, businessId, raw)
			if err != nil {
				return err
			}
			if _, err := models.AdjustStockQuantity(tx, ctx, businessId, colored.ID, run.OutputQuantity,
				models.MovementRef{Type: models.MovementReferenceTypeDyeingProduce, Id: run.ID, Date: now}); err != nil {
				return err
			}
			run.OutputStockId = colored.ID
			run.InventoryPosted = models.InventoryPostStatusAdded

			// idempotent status flip on the source lot
			if raw.MaterialStatus == models.MaterialStatusRaw {
				if err := tx.WithContext(ctx).Model(&models.InventoryStock{}).Where("id = ?", raw.ID).
					Update("material_status", models.MaterialStatusColored).Error; err != nil {
					return utils.NewPersistenceError("flip material status", err)
				}
			}
		}

		if err := tx.WithContext(ctx).Save(run).Error; err != nil {
			config.LogError(logger, "dyeingWorkflow.go", "CompleteDyeingRun", "SaveRun", run, err)
			return utils.NewPersistenceError("save dyeing run", err)
		}

		if err := models.PublishToLedger(ctx, tx, businessId, now, run.ID, models.LedgerReferenceTypeDyeingRun, run, models.LedgerEventActionUpdate); err != nil {
			return utils.NewPersistenceError("write outbox record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// validateDyeingRunAction decides what a completion call against a run in
// the given state may do. It returns transitioning=true when the run itself
// moves to the requested status; false means the call is a posting-only
// retry against an already Completed run. InventoryPosted=Added blocks any
// further posting, terminal statuses block any further transition.
func validateDyeingRunAction(current models.DyeingRunStatus, posted models.InventoryPostStatus, requested models.DyeingRunStatus, postToInventory bool) (transitioning bool, err error) {
	transitioning = current == models.DyeingRunStatusPending ||
		current == models.DyeingRunStatusPartial
	postingOnly := !transitioning && postToInventory

	if !transitioning && !postingOnly {
		return false, utils.NewInvalidTransitionError(string(current), string(requested))
	}
	if postingOnly && current != models.DyeingRunStatusCompleted {
		return false, utils.NewInvalidTransitionError(string(current), "inventory posting")
	}
	if postToInventory && posted == models.InventoryPostStatusAdded {
		return false, utils.NewInvalidTransitionError(string(models.InventoryPostStatusAdded), string(models.InventoryPostStatusAdded))
	}
	return transitioning, nil
}

func wastagePercent(input, output decimal.Decimal) decimal.Decimal {
	if !input.IsPositive() {
		return decimal.Zero
	}
	return input.Sub(output).Div(input).Mul(decimal.NewFromInt(100)).Round(utils.MinorUnitPlaces)
}
