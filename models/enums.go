package models

import (
	"errors"
)

type ObligationKind string

const (
	ObligationKindPayable    ObligationKind = "Payable"
	ObligationKindReceivable ObligationKind = "Receivable"
	ObligationKindBill       ObligationKind = "Bill"
)

func (k ObligationKind) IsValid() bool {
	switch k {
	case ObligationKindPayable, ObligationKindReceivable, ObligationKindBill:
		return true
	}
	return false
}

func ParseObligationKind(s string) (ObligationKind, error) {
	k := ObligationKind(s)
	if !k.IsValid() {
		return "", errors.New("invalid obligation kind")
	}
	return k, nil
}

type ObligationStatus string

const (
	ObligationStatusPending   ObligationStatus = "Pending"
	ObligationStatusPartial   ObligationStatus = "Partial"
	ObligationStatusPaid      ObligationStatus = "Paid"
	ObligationStatusCancelled ObligationStatus = "Cancelled"
)

type CounterpartyType string

const (
	CounterpartyTypeVendor   CounterpartyType = "Vendor"
	CounterpartyTypeCustomer CounterpartyType = "Customer"
)

func (t CounterpartyType) IsValid() bool {
	return t == CounterpartyTypeVendor || t == CounterpartyTypeCustomer
}

type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "Cash"
	PaymentModeCheque PaymentMode = "Cheque"
	PaymentModeOnline PaymentMode = "Online"
)

func (m PaymentMode) IsValid() bool {
	switch m {
	case PaymentModeCash, PaymentModeCheque, PaymentModeOnline:
		return true
	}
	return false
}

type ChequeStatus string

const (
	ChequeStatusPending  ChequeStatus = "Pending"
	ChequeStatusCleared  ChequeStatus = "Cleared"
	ChequeStatusBounced  ChequeStatus = "Bounced"
	ChequeStatusReplaced ChequeStatus = "Replaced"
)

// IsTerminal reports whether no further cheque transition is allowed.
// Cheques do not un-clear and a bounce is never re-applied.
func (s ChequeStatus) IsTerminal() bool {
	switch s {
	case ChequeStatusCleared, ChequeStatusBounced, ChequeStatusReplaced:
		return true
	}
	return false
}

type DyeingRunStatus string

const (
	DyeingRunStatusPending   DyeingRunStatus = "Pending"
	DyeingRunStatusPartial   DyeingRunStatus = "Partial"
	DyeingRunStatusCompleted DyeingRunStatus = "Completed"
	DyeingRunStatusFailed    DyeingRunStatus = "Failed"
)

func (s DyeingRunStatus) IsValid() bool {
	switch s {
	case DyeingRunStatusPending, DyeingRunStatusPartial, DyeingRunStatusCompleted, DyeingRunStatusFailed:
		return true
	}
	return false
}

type InventoryPostStatus string

const (
	InventoryPostStatusPending InventoryPostStatus = "Pending"
	InventoryPostStatusAdded   InventoryPostStatus = "Added"
)

type MaterialStatus string

const (
	MaterialStatusRaw     MaterialStatus = "Raw"
	MaterialStatusColored MaterialStatus = "Colored"
)

type MovementReferenceType string

const (
	MovementReferenceTypePurchase      MovementReferenceType = "Purchase"
	MovementReferenceTypeSale          MovementReferenceType = "Sale"
	MovementReferenceTypeDyeingConsume MovementReferenceType = "DyeingConsume"
	MovementReferenceTypeDyeingProduce MovementReferenceType = "DyeingProduce"
	MovementReferenceTypeAdjustment    MovementReferenceType = "Adjustment"
	MovementReferenceTypeOpeningStock  MovementReferenceType = "OpeningStock"
)

type PaymentTerms string

const (
	PaymentTermsNet15        PaymentTerms = "Net15"
	PaymentTermsNet30        PaymentTerms = "Net30"
	PaymentTermsNet45        PaymentTerms = "Net45"
	PaymentTermsNet60        PaymentTerms = "Net60"
	PaymentTermsDueOnReceipt PaymentTerms = "DueOnReceipt"
	PaymentTermsDueMonthEnd  PaymentTerms = "DueMonthEnd"
	PaymentTermsCustom       PaymentTerms = "Custom"
)

type LedgerEventAction string

const (
	LedgerEventActionCreate LedgerEventAction = "C"
	LedgerEventActionUpdate LedgerEventAction = "U"
)

type LedgerReferenceType string

const (
	LedgerReferenceTypeSettlement LedgerReferenceType = "ST"
	LedgerReferenceTypeCheque     LedgerReferenceType = "CQ"
	LedgerReferenceTypeDyeingRun  LedgerReferenceType = "DY"
)
