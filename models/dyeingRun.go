package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
)

// DyeingRun links one raw-thread consumption to zero-or-one dyed-thread
// production. The two-phase workflow (create, then complete) is retriable:
// InventoryPosted guards against double-posting finished goods.
type DyeingRun struct {
	ID              int                 `gorm:"primary_key" json:"id"`
	BusinessId      string              `gorm:"size:64;index;not null" json:"business_id"`
	RunNumber       string              `gorm:"size:255;not null" json:"run_number"`
	RawStockId      int                 `gorm:"index;not null" json:"raw_stock_id"`
	OutputStockId   int                 `gorm:"index;default:null" json:"output_stock_id"`
	InputQuantity   decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"input_quantity"`
	OutputQuantity  decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"output_quantity"`
	WastagePercent  decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"wastage_percent"`
	ResultStatus    DyeingRunStatus     `gorm:"type:enum('Pending','Partial','Completed','Failed');default:Pending" json:"result_status"`
	InventoryPosted InventoryPostStatus `gorm:"type:enum('Pending','Added');default:Pending" json:"inventory_posted"`
	CompletedAt     *time.Time          `gorm:"default:null" json:"completed_at"`
	Notes           string              `gorm:"type:text;default:null" json:"notes"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewDyeingRun struct {
	RawStockId    int             `json:"raw_stock_id" binding:"required"`
	InputQuantity decimal.Decimal `json:"input_quantity"`
	Notes         string          `json:"notes"`
}

func CreateDyeingRun(ctx context.Context, input *NewDyeingRun) (*DyeingRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if !input.InputQuantity.IsPositive() {
		return nil, utils.NewValidationError("input_quantity", "input quantity must be positive")
	}

	stock, err := utils.FetchModel[InventoryStock](ctx, businessId, input.RawStockId)
	if err != nil {
		return nil, err
	}
	// advisory pre-check; the guard re-checks under lock at completion
	if stock.CurrentQuantity.LessThan(input.InputQuantity) {
		return nil, utils.NewOverLimitError("input quantity is more than the current stock on hand", stock.CurrentQuantity)
	}

	now := time.Now().UTC()
	run := DyeingRun{
		BusinessId:      businessId,
		RunNumber:       utils.GenerateReferenceNumber("DYE", now),
		RawStockId:      stock.ID,
		InputQuantity:   input.InputQuantity,
		ResultStatus:    DyeingRunStatusPending,
		InventoryPosted: InventoryPostStatusPending,
		Notes:           input.Notes,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, utils.NewPersistenceError("create dyeing run", err)
	}
	return &run, nil
}

func GetDyeingRun(ctx context.Context, id int) (*DyeingRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[DyeingRun](ctx, businessId, id)
}
