package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// CounterpartyBalance is a denormalized summary row rebuilt from the
// obligations table by the balance workflow whenever a settlement or a
// bounce commits. It is eventually consistent with the obligations (the
// outbox dispatcher drives the rebuild after commit); the obligations
// themselves stay the source of truth.
type CounterpartyBalance struct {
	ID               int              `gorm:"primary_key" json:"id"`
	BusinessId       string           `gorm:"size:64;index:idx_cpb_identity,unique,priority:1;not null" json:"business_id"`
	CounterpartyId   int              `gorm:"index:idx_cpb_identity,unique,priority:2;not null" json:"counterparty_id"`
	CounterpartyType CounterpartyType `gorm:"type:enum('Vendor','Customer');index:idx_cpb_identity,unique,priority:3;not null" json:"counterparty_type"`
	TotalPayable     decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"total_payable"`
	TotalReceivable  decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"total_receivable"`
	CreatedAt        time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func CounterpartyBalanceCacheKey(businessId string, counterpartyId int) string {
	return "cpBalance:" + businessId + ":" + strconv.Itoa(counterpartyId)
}
