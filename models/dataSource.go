package models

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/sirupsen/logrus"
)

// DataSource is the read-side capability consumed by the HTTP surface.
// Two implementations exist: the live gorm-backed store and a read-only
// fixture store for demo environments. The choice is an explicit startup
// configuration (DATA_SOURCE_MODE) — never a runtime fallback triggered by
// catching a persistence error.
type DataSource interface {
	GetObligation(ctx context.Context, id int) (*Obligation, error)
	ListObligations(ctx context.Context, filter ObligationFilter) ([]*Obligation, error)
	ListTransactions(ctx context.Context, obligationId int) ([]*Transaction, error)
	ListPendingCheques(ctx context.Context) ([]*Transaction, error)
	GetInventoryStock(ctx context.Context, id int) (*InventoryStock, error)
	ListInventoryMovements(ctx context.Context, stockId int) ([]*InventoryMovement, error)
	GetDyeingRun(ctx context.Context, id int) (*DyeingRun, error)
}

// SelectDataSource picks the configured implementation at startup.
func SelectDataSource(logger *logrus.Logger) (DataSource, error) {
	if config.DataSourceMode() == "fixture" {
		path := os.Getenv("FIXTURE_PATH")
		if path == "" {
			path = "fixtures.json"
		}
		store, err := NewFixtureStore(path)
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{"module": "dataSource.go", "path": path}).Warn("running on fixture data source")
		return store, nil
	}
	return LiveStore{}, nil
}

// LiveStore reads through the model operations against the global DB.
type LiveStore struct{}

func (LiveStore) GetObligation(ctx context.Context, id int) (*Obligation, error) {
	return GetObligation(ctx, id)
}

func (LiveStore) ListObligations(ctx context.Context, filter ObligationFilter) ([]*Obligation, error) {
	return ListObligations(ctx, filter)
}

func (LiveStore) ListTransactions(ctx context.Context, obligationId int) ([]*Transaction, error) {
	return ListTransactions(ctx, obligationId)
}

func (LiveStore) ListPendingCheques(ctx context.Context) ([]*Transaction, error) {
	return ListPendingCheques(ctx)
}

func (LiveStore) GetInventoryStock(ctx context.Context, id int) (*InventoryStock, error) {
	return GetInventoryStock(ctx, id)
}

func (LiveStore) ListInventoryMovements(ctx context.Context, stockId int) ([]*InventoryMovement, error) {
	return ListInventoryMovements(ctx, stockId)
}

func (LiveStore) GetDyeingRun(ctx context.Context, id int) (*DyeingRun, error) {
	return GetDyeingRun(ctx, id)
}

// FixtureData is the on-disk shape consumed by the fixture store
// (written by cmd/seed-fixtures).
type FixtureData struct {
	Obligations  []*Obligation        `json:"obligations"`
	Transactions []*Transaction       `json:"transactions"`
	Stocks       []*InventoryStock    `json:"stocks"`
	Movements    []*InventoryMovement `json:"movements"`
	DyeingRuns   []*DyeingRun         `json:"dyeing_runs"`
}

// FixtureStore serves a fixed dataset from memory. Reads only; the mutating
// operations live on the models and always require the live store.
type FixtureStore struct {
	mu   sync.RWMutex
	data FixtureData
}

func NewFixtureStore(path string) (*FixtureStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data FixtureData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &FixtureStore{data: data}, nil
}

func (s *FixtureStore) GetObligation(ctx context.Context, id int) (*Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.data.Obligations {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

func (s *FixtureStore) ListObligations(ctx context.Context, filter ObligationFilter) ([]*Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Obligation
	for _, o := range s.data.Obligations {
		if filter.Kind != "" && o.Kind != filter.Kind {
			continue
		}
		if filter.CurrentStatus != "" && o.CurrentStatus != filter.CurrentStatus {
			continue
		}
		if filter.CounterpartyId > 0 && o.CounterpartyId != filter.CounterpartyId {
			continue
		}
		if filter.CounterpartyType != "" && o.CounterpartyType != filter.CounterpartyType {
			continue
		}
		if filter.OverdueOnly {
			open := o.CurrentStatus == ObligationStatusPending || o.CurrentStatus == ObligationStatusPartial
			if o.DueDate == nil || !o.DueDate.Before(time.Now().UTC()) || !open {
				continue
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *FixtureStore) ListTransactions(ctx context.Context, obligationId int) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Transaction
	for _, t := range s.data.Transactions {
		if t.ObligationId == obligationId {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *FixtureStore) ListPendingCheques(ctx context.Context) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Transaction
	for _, t := range s.data.Transactions {
		if t.PaymentMode == PaymentModeCheque && t.ChequeStatus == ChequeStatusPending {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *FixtureStore) GetInventoryStock(ctx context.Context, id int) (*InventoryStock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.data.Stocks {
		if st.ID == id {
			return st, nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

func (s *FixtureStore) ListInventoryMovements(ctx context.Context, stockId int) ([]*InventoryMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*InventoryMovement
	for _, m := range s.data.Movements {
		if m.StockId == stockId {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *FixtureStore) GetDyeingRun(ctx context.Context, id int) (*DyeingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.data.DyeingRuns {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

// ErrFixtureReadOnly is returned by handlers when a mutation is attempted
// in fixture mode.
var ErrFixtureReadOnly = errors.New("fixture data source is read-only")
