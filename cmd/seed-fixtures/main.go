// seed-fixtures writes a demo dataset for the read-only fixture data source
// (DATA_SOURCE_MODE=fixture). The output file shape matches
// models.FixtureData.
//
// Usage (from backend directory):
//
//	go run ./cmd/seed-fixtures -out fixtures.json -business demo-business
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/models"
	"github.com/shopspring/decimal"
)

func main() {
	out := flag.String("out", "fixtures.json", "output path")
	businessId := flag.String("business", "demo-business", "business id stamped on every row")
	flag.Parse()

	now := time.Now().UTC()
	dueDate := now.AddDate(0, 0, 30)
	clearance := now.AddDate(0, 0, -2)

	data := models.FixtureData{
		Obligations: []*models.Obligation{
			{
				ID:               1,
				BusinessId:       *businessId,
				Kind:             models.ObligationKindBill,
				ObligationNumber: "BILL-0001",
				CounterpartyId:   101,
				CounterpartyType: models.CounterpartyTypeVendor,
				ObligationDate:   now.AddDate(0, 0, -40),
				PaymentTerms:     models.PaymentTermsNet30,
				DueDate:          &dueDate,
				TotalAmount:      decimal.NewFromInt(150000),
				PaidAmount:       decimal.NewFromInt(90000),
				CurrentStatus:    models.ObligationStatusPartial,
			},
			{
				ID:               2,
				BusinessId:       *businessId,
				Kind:             models.ObligationKindReceivable,
				ObligationNumber: "RCV-0001",
				CounterpartyId:   202,
				CounterpartyType: models.CounterpartyTypeCustomer,
				ObligationDate:   now.AddDate(0, 0, -10),
				PaymentTerms:     models.PaymentTermsDueOnReceipt,
				TotalAmount:      decimal.NewFromInt(48000),
				PaidAmount:       decimal.NewFromInt(48000),
				CurrentStatus:    models.ObligationStatusPaid,
			},
		},
		Transactions: []*models.Transaction{
			{
				ID:              1,
				BusinessId:      *businessId,
				ObligationId:    1,
				Amount:          decimal.NewFromInt(50000),
				PaymentMode:     models.PaymentModeCash,
				TransactionDate: now.AddDate(0, 0, -30),
			},
			{
				ID:                  2,
				BusinessId:          *businessId,
				ObligationId:        1,
				Amount:              decimal.NewFromInt(40000),
				PaymentMode:         models.PaymentModeCheque,
				ChequeNumber:        "CHQ-778812",
				ChequeBank:          "Canara Bank",
				ChequeStatus:        models.ChequeStatusCleared,
				ChequeClearanceDate: &clearance,
				TransactionDate:     now.AddDate(0, 0, -7),
			},
			{
				ID:              3,
				BusinessId:      *businessId,
				ObligationId:    2,
				Amount:          decimal.NewFromInt(48000),
				PaymentMode:     models.PaymentModeOnline,
				TransactionDate: now.AddDate(0, 0, -3),
			},
		},
		Stocks: []*models.InventoryStock{
			{
				ID:              1,
				BusinessId:      *businessId,
				ItemName:        "Cotton thread 40s",
				ItemCode:        "CT-40",
				MaterialStatus:  models.MaterialStatusRaw,
				Unit:            "kg",
				CurrentQuantity: decimal.NewFromInt(320),
				MinStockLevel:   decimal.NewFromInt(50),
				CostPerUnit:     decimal.NewFromInt(410),
				SalePrice:       decimal.NewFromInt(520),
			},
			{
				ID:              2,
				BusinessId:      *businessId,
				ItemName:        "Cotton thread 40s (Dyed)",
				ItemCode:        "CT-40",
				MaterialStatus:  models.MaterialStatusColored,
				Unit:            "kg",
				CurrentQuantity: decimal.NewFromInt(95),
				CostPerUnit:     decimal.NewFromInt(465),
				SalePrice:       decimal.NewFromInt(610),
			},
		},
		Movements: []*models.InventoryMovement{
			{
				ID:            1,
				BusinessId:    *businessId,
				StockId:       1,
				ReferenceType: models.MovementReferenceTypeOpeningStock,
				QuantityDelta: decimal.NewFromInt(420),
				MovementDate:  now.AddDate(0, -1, 0),
			},
			{
				ID:            2,
				BusinessId:    *businessId,
				StockId:       1,
				ReferenceType: models.MovementReferenceTypeDyeingConsume,
				ReferenceId:   1,
				QuantityDelta: decimal.NewFromInt(-100),
				MovementDate:  now.AddDate(0, 0, -5),
			},
			{
				ID:            3,
				BusinessId:    *businessId,
				StockId:       2,
				ReferenceType: models.MovementReferenceTypeDyeingProduce,
				ReferenceId:   1,
				QuantityDelta: decimal.NewFromInt(95),
				MovementDate:  now.AddDate(0, 0, -5),
			},
		},
		DyeingRuns: []*models.DyeingRun{
			{
				ID:              1,
				BusinessId:      *businessId,
				RunNumber:       "DYE-20240601-0001",
				RawStockId:      1,
				OutputStockId:   2,
				InputQuantity:   decimal.NewFromInt(100),
				OutputQuantity:  decimal.NewFromInt(95),
				WastagePercent:  decimal.NewFromInt(5),
				ResultStatus:    models.DyeingRunStatusCompleted,
				InventoryPosted: models.InventoryPostStatusAdded,
			},
		},
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal fixtures: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d obligations, %d transactions, %d stocks)\n",
		*out, len(data.Obligations), len(data.Transactions), len(data.Stocks))
}
