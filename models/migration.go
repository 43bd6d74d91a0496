package models

import (
	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
)

// MigrateTable auto-migrates the reconciliation core's schema.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Obligation{},
		&Transaction{},
		&InventoryStock{},
		&InventoryMovement{},
		&DyeingRun{},
		&CounterpartyBalance{},
		&LedgerEventRecord{},
		&ReconciliationReport{},
	)
	utils.ErrorPanic(err)
}
