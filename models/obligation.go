package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
)

// Obligation is a single debt or receivable: a purchase bill, a sales
// receivable, or a generic ledger entry against a counterparty.
//
// PaidAmount and CurrentStatus are one unit; they are never written
// independently. CurrentStatus is derived from the amounts, except
// Cancelled which is an explicit terminal transition.
type Obligation struct {
	ID                     int              `gorm:"primary_key" json:"id"`
	BusinessId             string           `gorm:"size:64;index;not null" json:"business_id"`
	Kind                   ObligationKind   `gorm:"type:enum('Payable','Receivable','Bill');not null" json:"kind" binding:"required"`
	ObligationNumber       string           `gorm:"size:255;not null" json:"obligation_number"`
	CounterpartyId         int              `gorm:"index;not null" json:"counterparty_id" binding:"required"`
	CounterpartyType       CounterpartyType `gorm:"type:enum('Vendor','Customer');not null" json:"counterparty_type" binding:"required"`
	ObligationDate         time.Time        `gorm:"not null" json:"obligation_date"`
	PaymentTerms           PaymentTerms     `gorm:"type:enum('Net15','Net30','Net45','Net60','DueOnReceipt','DueMonthEnd','Custom');default:DueOnReceipt" json:"payment_terms"`
	PaymentTermsCustomDays int              `gorm:"default:0" json:"payment_terms_custom_days"`
	DueDate                *time.Time       `gorm:"default:null" json:"due_date"`
	ReferenceNumber        string           `gorm:"size:255;default:null" json:"reference_number"`
	Notes                  string           `gorm:"type:text;default:null" json:"notes"`
	TotalAmount            decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount             decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	CurrentStatus          ObligationStatus `gorm:"type:enum('Pending','Partial','Paid','Cancelled');default:Pending" json:"current_status"`
	CreatedAt              time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewObligation struct {
	Kind                   ObligationKind   `json:"kind" binding:"required"`
	ObligationNumber       string           `json:"obligation_number"`
	CounterpartyId         int              `json:"counterparty_id" binding:"required"`
	CounterpartyType       CounterpartyType `json:"counterparty_type" binding:"required"`
	ObligationDate         time.Time        `json:"obligation_date"`
	PaymentTerms           PaymentTerms     `json:"payment_terms"`
	PaymentTermsCustomDays int              `json:"payment_terms_custom_days"`
	ReferenceNumber        string           `json:"reference_number"`
	Notes                  string           `json:"notes"`
	TotalAmount            decimal.Decimal  `json:"total_amount"`
}

// Remaining is the unsettled portion, tolerance-clamped. Always computed,
// never stored; the stored pair is (TotalAmount, PaidAmount).
func (o *Obligation) Remaining() decimal.Decimal {
	return utils.RemainingAmount(o.TotalAmount, o.PaidAmount)
}

// DeriveObligationStatus maps the amount pair to a settlement status.
// Total and deterministic; Cancelled is never returned here.
func DeriveObligationStatus(total, paid decimal.Decimal) ObligationStatus {
	remaining := utils.RemainingAmount(total, paid)
	if remaining.IsZero() {
		return ObligationStatusPaid
	}
	if utils.ToMinorUnits(paid) <= 1 {
		return ObligationStatusPending
	}
	return ObligationStatusPartial
}

func (input NewObligation) validate() error {
	if !input.Kind.IsValid() {
		return utils.NewValidationError("kind", "invalid obligation kind")
	}
	if !input.CounterpartyType.IsValid() {
		return utils.NewValidationError("counterparty_type", "invalid counterparty type")
	}
	if input.CounterpartyId <= 0 {
		return utils.NewValidationError("counterparty_id", "counterparty is required")
	}
	if input.TotalAmount.IsNegative() {
		return utils.NewValidationError("total_amount", "total amount cannot be negative")
	}
	return nil
}

func CreateObligation(ctx context.Context, input *NewObligation) (*Obligation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	obligationDate := input.ObligationDate
	if obligationDate.IsZero() {
		obligationDate = time.Now().UTC()
	}
	paymentTerms := input.PaymentTerms
	if paymentTerms == "" {
		paymentTerms = PaymentTermsDueOnReceipt
	}
	obligationNumber := input.ObligationNumber
	if obligationNumber == "" {
		obligationNumber = utils.GenerateReferenceNumber("OBL", obligationDate)
	}

	obligation := Obligation{
		BusinessId:             businessId,
		Kind:                   input.Kind,
		ObligationNumber:       obligationNumber,
		CounterpartyId:         input.CounterpartyId,
		CounterpartyType:       input.CounterpartyType,
		ObligationDate:         obligationDate,
		PaymentTerms:           paymentTerms,
		PaymentTermsCustomDays: input.PaymentTermsCustomDays,
		DueDate:                calculateDueDate(obligationDate, paymentTerms, input.PaymentTermsCustomDays),
		ReferenceNumber:        input.ReferenceNumber,
		Notes:                  input.Notes,
		TotalAmount:            utils.Round2(input.TotalAmount),
		PaidAmount:             decimal.Zero,
		CurrentStatus:          DeriveObligationStatus(input.TotalAmount, decimal.Zero),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&obligation).Error; err != nil {
		return nil, utils.NewPersistenceError("create obligation", err)
	}
	return &obligation, nil
}

func GetObligation(ctx context.Context, id int) (*Obligation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Obligation](ctx, businessId, id)
}

type ObligationFilter struct {
	Kind             ObligationKind
	CurrentStatus    ObligationStatus
	CounterpartyId   int
	CounterpartyType CounterpartyType
	OverdueOnly      bool
}

func ListObligations(ctx context.Context, filter ObligationFilter) ([]*Obligation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if filter.Kind != "" {
		dbCtx = dbCtx.Where("kind = ?", filter.Kind)
	}
	if filter.CurrentStatus != "" {
		dbCtx = dbCtx.Where("current_status = ?", filter.CurrentStatus)
	}
	if filter.CounterpartyId > 0 {
		dbCtx = dbCtx.Where("counterparty_id = ?", filter.CounterpartyId)
	}
	if filter.CounterpartyType != "" {
		dbCtx = dbCtx.Where("counterparty_type = ?", filter.CounterpartyType)
	}
	if filter.OverdueOnly {
		dbCtx = dbCtx.Where("due_date IS NOT NULL AND due_date < ? AND current_status IN ?",
			time.Now().UTC(), []ObligationStatus{ObligationStatusPending, ObligationStatusPartial})
	}

	var obligations []*Obligation
	if err := dbCtx.Order("obligation_date DESC, id DESC").Find(&obligations).Error; err != nil {
		return nil, utils.NewPersistenceError("list obligations", err)
	}
	return obligations, nil
}

// CancelObligation is the one explicit status transition. Cancelling an
// obligation with cleared settlements needs force, so a paid bill cannot be
// silently written off.
func CancelObligation(ctx context.Context, id int, force bool) (*Obligation, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
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

	obligation, err := utils.FetchForUpdate[Obligation](tx, ctx, businessId, id)
	if err != nil {
		return nil, err
	}
	if obligation.CurrentStatus == ObligationStatusCancelled {
		return nil, utils.NewInvalidTransitionError(string(ObligationStatusCancelled), string(ObligationStatusCancelled))
	}

	if !force {
		var settled int64
		if err := tx.WithContext(ctx).Model(&Transaction{}).
			Where("business_id = ? AND obligation_id = ?", businessId, id).
			Where("payment_mode <> ? OR cheque_status = ?", PaymentModeCheque, ChequeStatusCleared).
			Count(&settled).Error; err != nil {
			return nil, utils.NewPersistenceError("count settlements", err)
		}
		if settled > 0 {
			return nil, utils.NewInvalidTransitionError(string(obligation.CurrentStatus), string(ObligationStatusCancelled))
		}
	}

	obligation.CurrentStatus = ObligationStatusCancelled
	if err := tx.WithContext(ctx).Model(&Obligation{}).Where("id = ?", obligation.ID).
		Update("current_status", ObligationStatusCancelled).Error; err != nil {
		return nil, utils.NewPersistenceError("cancel obligation", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("commit cancel", err)
	}

	// Cancellation is the one write that discards money state, so it leaves
	// an audit trail of who pulled the trigger.
	userId, _ := utils.GetUserIdFromContext(ctx)
	userName, _ := utils.GetUserNameFromContext(ctx)
	config.LogWarn(config.GetLogger(), "obligation.go", "CancelObligation", "Audit",
		fmt.Sprintf("obligation %d cancelled by user %d (%s), force=%t", id, userId, userName, force))
	return obligation, nil
}

func calculateDueDate(date time.Time, paymentTerms PaymentTerms, customDays int) *time.Time {
	var dueDate time.Time
	switch terms := paymentTerms; terms {
	case PaymentTermsDueOnReceipt:
		dueDate = date
	case PaymentTermsNet15:
		dueDate = date.AddDate(0, 0, 15)
	case PaymentTermsNet30:
		dueDate = date.AddDate(0, 0, 30)
	case PaymentTermsNet45:
		dueDate = date.AddDate(0, 0, 45)
	case PaymentTermsNet60:
		dueDate = date.AddDate(0, 0, 60)
	case PaymentTermsDueMonthEnd:
		year, month, _ := date.Date()
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, date.Location())
		dueDate = firstOfMonth.AddDate(0, 1, -1)
	case PaymentTermsCustom:
		dueDate = date.AddDate(0, 0, customDays)
	default:
		dueDate = date
	}
	return &dueDate
}
