package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryStock is a quantity-bearing item (thread lot, dyed lot, fabric).
// CurrentQuantity is the single concurrency-sensitive field; it is only
// ever written through AdjustStockQuantity.
type InventoryStock struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"size:64;index;not null" json:"business_id"`
	ItemName        string          `gorm:"size:255;not null" json:"item_name" binding:"required"`
	ItemCode        string          `gorm:"size:100;index" json:"item_code"`
	MaterialStatus  MaterialStatus  `gorm:"type:enum('Raw','Colored');default:Raw" json:"material_status"`
	Unit            string          `gorm:"size:50;default:null" json:"unit"`
	CurrentQuantity decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_quantity"`
	MinStockLevel   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_stock_level"`
	CostPerUnit     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost_per_unit"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sale_price"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// InventoryMovement is the immutable audit row paired with every quantity
// change: one movement per committed adjustment, carrying the APPLIED delta
// (which differs from the requested delta when clamping occurred) and the
// cost at movement time.
type InventoryMovement struct {
	ID            int                   `gorm:"primary_key" json:"id"`
	BusinessId    string                `gorm:"size:64;index;not null" json:"business_id"`
	StockId       int                   `gorm:"index;not null" json:"stock_id"`
	ReferenceType MovementReferenceType `gorm:"type:enum('Purchase','Sale','DyeingConsume','DyeingProduce','Adjustment','OpeningStock');not null" json:"reference_type"`
	ReferenceId   int                   `gorm:"index" json:"reference_id"`
	QuantityDelta decimal.Decimal       `gorm:"type:decimal(20,4);not null" json:"quantity_delta"`
	UnitCost      decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"unit_cost"`
	TotalCost     decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"total_cost"`
	MovementDate  time.Time             `gorm:"index;not null" json:"movement_date"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
}

// MovementRef names the causal event of a quantity change.
type MovementRef struct {
	Type MovementReferenceType
	Id   int
	Date time.Time
}

type NewInventoryStock struct {
	ItemName        string          `json:"item_name" binding:"required"`
	ItemCode        string          `json:"item_code"`
	MaterialStatus  MaterialStatus  `json:"material_status"`
	Unit            string          `json:"unit"`
	OpeningQuantity decimal.Decimal `json:"opening_quantity"`
	MinStockLevel   decimal.Decimal `json:"min_stock_level"`
	CostPerUnit     decimal.Decimal `json:"cost_per_unit"`
	SalePrice       decimal.Decimal `json:"sale_price"`
}

func CreateInventoryStock(ctx context.Context, input *NewInventoryStock) (*InventoryStock, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if input.OpeningQuantity.IsNegative() {
		return nil, utils.NewValidationError("opening_quantity", "opening quantity cannot be negative")
	}

	materialStatus := input.MaterialStatus
	if materialStatus == "" {
		materialStatus = MaterialStatusRaw
	}

	stock := InventoryStock{
		BusinessId:      businessId,
		ItemName:        input.ItemName,
		ItemCode:        input.ItemCode,
		MaterialStatus:  materialStatus,
		Unit:            input.Unit,
		CurrentQuantity: decimal.Zero,
		MinStockLevel:   input.MinStockLevel,
		CostPerUnit:     input.CostPerUnit,
		SalePrice:       input.SalePrice,
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).Create(&stock).Error; err != nil {
		return nil, utils.NewPersistenceError("create inventory stock", err)
	}
	if input.OpeningQuantity.IsPositive() {
		if _, err := AdjustStockQuantity(tx, ctx, businessId, stock.ID, input.OpeningQuantity,
			MovementRef{Type: MovementReferenceTypeOpeningStock, Id: stock.ID, Date: time.Now().UTC()}); err != nil {
			return nil, err
		}
		stock.CurrentQuantity = input.OpeningQuantity
	}
	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("commit inventory stock", err)
	}
	return &stock, nil
}

// AdjustStockQuantity is the single choke point for quantity changes: a
// locked read-modify-write plus exactly one movement row, all inside the
// caller's open transaction. Callers must never compute the new quantity
// themselves and issue an unconditional SET; split read/write round trips
// are the classic lost-update hazard this guard exists to close.
//
// A consumption that would drive the quantity negative is clamped to zero
// or rejected, per config.StockAdjustPolicy(). Returns the new quantity.
func AdjustStockQuantity(tx *gorm.DB, ctx context.Context, businessId string, stockId int, delta decimal.Decimal, ref MovementRef) (decimal.Decimal, error) {

	stock, err := utils.FetchForUpdate[InventoryStock](tx, ctx, businessId, stockId)
	if err != nil {
		return decimal.Zero, err
	}

	applied := delta
	newQuantity := stock.CurrentQuantity.Add(delta)
	if newQuantity.IsNegative() {
		if config.StockAdjustPolicy() == "reject" {
			return decimal.Zero, utils.NewOverLimitError("insufficient stock for "+stock.ItemName, stock.CurrentQuantity)
		}
		applied = stock.CurrentQuantity.Neg()
		newQuantity = decimal.Zero
	}

	if err := tx.WithContext(ctx).Model(&InventoryStock{}).Where("id = ?", stock.ID).
		Update("current_quantity", newQuantity).Error; err != nil {
		return decimal.Zero, utils.NewPersistenceError("update stock quantity", err)
	}

	movementDate := ref.Date
	if movementDate.IsZero() {
		movementDate = time.Now().UTC()
	}
	movement := InventoryMovement{
		BusinessId:    businessId,
		StockId:       stock.ID,
		ReferenceType: ref.Type,
		ReferenceId:   ref.Id,
		QuantityDelta: applied,
		UnitCost:      stock.CostPerUnit,
		TotalCost:     applied.Mul(stock.CostPerUnit),
		MovementDate:  movementDate,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return decimal.Zero, utils.NewPersistenceError("create inventory movement", err)
	}

	return newQuantity, nil
}

// AdjustQuantity wraps the guard in its own transaction for single-row
// callers (manual adjustments, goods receipt).
func AdjustQuantity(ctx context.Context, stockId int, delta decimal.Decimal, ref MovementRef) (decimal.Decimal, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return decimal.Zero, errors.New("business id is required")
	}

	db := config.GetDB()
	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	newQuantity, err := AdjustStockQuantity(tx, ctx, businessId, stockId, delta, ref)
	if err != nil {
		return decimal.Zero, err
	}
	if err := tx.Commit().Error; err != nil {
		return decimal.Zero, utils.NewPersistenceError("commit quantity adjustment", err)
	}
	return newQuantity, nil
}

func GetInventoryStock(ctx context.Context, id int) (*InventoryStock, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[InventoryStock](ctx, businessId, id)
}

func ListInventoryMovements(ctx context.Context, stockId int) ([]*InventoryMovement, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var movements []*InventoryMovement
	if err := db.WithContext(ctx).
		Where("business_id = ? AND stock_id = ?", businessId, stockId).
		Order("movement_date ASC, id ASC").
		Find(&movements).Error; err != nil {
		return nil, utils.NewPersistenceError("list inventory movements", err)
	}
	return movements, nil
}

// LocateOrCreateColoredStock finds the finished-goods counterpart of a raw
// thread lot, creating it on first production.
func LocateOrCreateColoredStock(tx *gorm.DB, ctx context.Context, businessId string, raw *InventoryStock) (*InventoryStock, error) {
	var colored InventoryStock
	err := tx.WithContext(ctx).
		Clauses(utils.ForUpdateClause()).
		Where("business_id = ? AND item_code = ? AND material_status = ?",
			businessId, raw.ItemCode, MaterialStatusColored).
		First(&colored).Error
	if err == nil {
		return &colored, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, utils.NewPersistenceError("locate colored stock", err)
	}

	colored = InventoryStock{
		BusinessId:      businessId,
		ItemName:        raw.ItemName + " (Dyed)",
		ItemCode:        raw.ItemCode,
		MaterialStatus:  MaterialStatusColored,
		Unit:            raw.Unit,
		CurrentQuantity: decimal.Zero,
		MinStockLevel:   raw.MinStockLevel,
		CostPerUnit:     raw.CostPerUnit,
		SalePrice:       raw.SalePrice,
	}
	if err := tx.WithContext(ctx).Create(&colored).Error; err != nil {
		return nil, utils.NewPersistenceError("create colored stock", err)
	}
	return &colored, nil
}
