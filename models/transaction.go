package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
)

// Transaction is an immutable settlement record against exactly one
// Obligation. Once created, the only mutable part is the embedded cheque
// sub-record, which transitions Pending -> Cleared | Bounced | Replaced.
type Transaction struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	BusinessId          string          `gorm:"size:64;index;not null" json:"business_id"`
	ObligationId        int             `gorm:"index;not null" json:"obligation_id"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentMode         PaymentMode     `gorm:"type:enum('Cash','Cheque','Online');not null" json:"payment_mode"`
	ChequeNumber        string          `gorm:"size:100;default:null" json:"cheque_number,omitempty"`
	ChequeBank          string          `gorm:"size:255;default:null" json:"cheque_bank,omitempty"`
	ChequeStatus        ChequeStatus    `gorm:"type:enum('Pending','Cleared','Bounced','Replaced');default:null" json:"cheque_status,omitempty"`
	ChequeIssueDate     *time.Time      `gorm:"default:null" json:"cheque_issue_date,omitempty"`
	ChequeClearanceDate *time.Time      `gorm:"default:null" json:"cheque_clearance_date,omitempty"`
	TransactionDate     time.Time       `gorm:"index;not null" json:"transaction_date"`
	ReferenceNumber     string          `gorm:"size:255;default:null" json:"reference_number"`
	Notes               string          `gorm:"type:text;default:null" json:"notes"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewChequeDetails struct {
	Number    string     `json:"number"`
	Bank      string     `json:"bank"`
	IssueDate *time.Time `json:"issue_date"`
}

type NewTransaction struct {
	ObligationId    int               `json:"obligation_id" binding:"required"`
	Amount          decimal.Decimal   `json:"amount"`
	PaymentMode     PaymentMode       `json:"payment_mode" binding:"required"`
	ChequeDetails   *NewChequeDetails `json:"cheque_details"`
	TransactionDate *time.Time        `json:"transaction_date"`
	ReferenceNumber string            `json:"reference_number"`
	Notes           string            `json:"notes"`
}

func (input NewTransaction) validate() error {
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount", "amount must be positive")
	}
	if !input.PaymentMode.IsValid() {
		return utils.NewValidationError("payment_mode", "unrecognized payment mode")
	}
	if input.PaymentMode == PaymentModeCheque {
		if input.ChequeDetails == nil {
			return utils.NewValidationError("cheque_details", "cheque details are required for cheque payments")
		}
		if input.ChequeDetails.Number == "" {
			return utils.NewValidationError("cheque_details.number", "cheque number is required")
		}
		if input.ChequeDetails.Bank == "" {
			return utils.NewValidationError("cheque_details.bank", "cheque bank is required")
		}
	}
	return nil
}

// RecordTransaction appends a settlement record and moves the obligation's
// paid amount and status in one atomic unit of work. The obligation row is
// read under a write lock, so two concurrent settlements serialize and the
// second sees the first's committed paid amount.
func RecordTransaction(ctx context.Context, input *NewTransaction) (*Transaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	// All validation happens before any mutation; failures are
	// side-effect-free.
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	// always rollback on early-return or panic to avoid leaking DB locks
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	obligation, err := utils.FetchForUpdate[Obligation](tx, ctx, businessId, input.ObligationId)
	if err != nil {
		return nil, err
	}
	if obligation.CurrentStatus == ObligationStatusCancelled {
		return nil, utils.NewInvalidTransitionError(string(ObligationStatusCancelled), "settled")
	}

	remaining := obligation.Remaining()
	if utils.ExceedsRemaining(input.Amount, remaining) {
		return nil, utils.NewOverLimitError("the amount entered is more than the balance for obligation "+obligation.ObligationNumber, remaining)
	}

	transactionDate := time.Now().UTC()
	if input.TransactionDate != nil {
		transactionDate = *input.TransactionDate
	}
	referenceNumber := input.ReferenceNumber
	if referenceNumber == "" {
		referenceNumber = utils.GenerateReferenceNumber("TXN", transactionDate)
	}

	transaction := Transaction{
		BusinessId:      businessId,
		ObligationId:    obligation.ID,
		Amount:          utils.Round2(input.Amount),
		PaymentMode:     input.PaymentMode,
		TransactionDate: transactionDate,
		ReferenceNumber: referenceNumber,
		Notes:           input.Notes,
	}
	if input.PaymentMode == PaymentModeCheque {
		transaction.ChequeNumber = input.ChequeDetails.Number
		transaction.ChequeBank = input.ChequeDetails.Bank
		transaction.ChequeStatus = ChequeStatusPending
		transaction.ChequeIssueDate = input.ChequeDetails.IssueDate
	}

	if err := tx.WithContext(ctx).Create(&transaction).Error; err != nil {
		return nil, utils.NewPersistenceError("create transaction", err)
	}

	newPaid := utils.Round2(obligation.PaidAmount.Add(transaction.Amount))
	newStatus := DeriveObligationStatus(obligation.TotalAmount, newPaid)
	if err := tx.WithContext(ctx).Model(&Obligation{}).Where("id = ?", obligation.ID).
		Updates(map[string]interface{}{
			"paid_amount":    newPaid,
			"current_status": newStatus,
		}).Error; err != nil {
		return nil, utils.NewPersistenceError("update obligation settlement", err)
	}
	obligation.PaidAmount = newPaid
	obligation.CurrentStatus = newStatus

	// counterparty balance re-aggregation happens downstream of the outbox
	if err := PublishToLedger(ctx, tx, businessId, transactionDate, transaction.ID, LedgerReferenceTypeSettlement, &transaction, LedgerEventActionCreate); err != nil {
		return nil, utils.NewPersistenceError("write outbox record", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.NewPersistenceError("commit transaction", err)
	}
	return &transaction, nil
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Transaction](ctx, businessId, id)
}

func ListTransactions(ctx context.Context, obligationId int) ([]*Transaction, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	var transactions []*Transaction
	if err := db.WithContext(ctx).
		Where("business_id = ? AND obligation_id = ?", businessId, obligationId).
		Order("transaction_date ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return nil, utils.NewPersistenceError("list transactions", err)
	}
	return transactions, nil
}
