// Package store provides in-memory amc.Store implementations.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/amc-engine/amc"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	clients map[string]amc.Client
	orders  map[string]amc.Order
	amcs    map[string]amc.AMC
}

func NewMemory() *Memory {
	return &Memory{
		clients: make(map[string]amc.Client),
		orders:  make(map[string]amc.Order),
		amcs:    make(map[string]amc.AMC),
	}
}

func (m *Memory) SaveClient(_ context.Context, c amc.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID] = c
	return nil
}

func (m *Memory) GetClient(_ context.Context, id string) (*amc.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) SaveOrder(_ context.Context, o amc.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = copyOrder(o)
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id string) (*amc.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	o = copyOrder(o)
	return &o, nil
}

func (m *Memory) ListAMCs(_ context.Context) ([]amc.AMC, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]amc.AMC, 0, len(m.amcs))
	for _, a := range m.amcs {
		if a.IsDeleted() {
			continue
		}
		result = append(result, copyAMC(a))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetAMC(_ context.Context, id string) (*amc.AMC, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.amcs[id]
	if !ok || a.IsDeleted() {
		return nil, nil
	}
	a = copyAMC(a)
	return &a, nil
}

func (m *Memory) GetAMCByOrder(_ context.Context, orderID string) (*amc.AMC, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.amcs {
		if a.OrderID == orderID && !a.IsDeleted() {
			a = copyAMC(a)
			return &a, nil
		}
	}
	return nil, nil
}

// AppendPayments appends and updates cached cost under one lock.
func (m *Memory) AppendPayments(_ context.Context, amcID string, payments []amc.Payment, amount, totalCost decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.amcs[amcID]
	if !ok {
		return errors.New("amc " + amcID + " not found")
	}
	a.Payments = append(append([]amc.Payment(nil), a.Payments...), payments...)
	a.Amount = amount
	a.TotalCost = totalCost
	m.amcs[amcID] = a
	return nil
}

func (m *Memory) SaveAMC(_ context.Context, a amc.AMC) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.amcs[a.ID] = copyAMC(a)
	return nil
}

func copyAMC(a amc.AMC) amc.AMC {
	a.Payments = append([]amc.Payment(nil), a.Payments...)
	return a
}

func copyOrder(o amc.Order) amc.Order {
	o.Customizations = append([]amc.Customization(nil), o.Customizations...)
	o.Licenses = append([]amc.License(nil), o.Licenses...)
	o.Agreements = append([]amc.Agreement(nil), o.Agreements...)
	o.StatusLogs = append([]amc.StatusLog(nil), o.StatusLogs...)
	return o
}

// =============================================================================
// FAILING STORE - Wraps a store and fails selected AMCs (for testing)
// =============================================================================

// Failing wraps a Store and returns Err for writes to the listed AMC ids.
type Failing struct {
	amc.Store
	FailAMCs map[string]bool
	Err      error
}

func (f *Failing) AppendPayments(ctx context.Context, amcID string, payments []amc.Payment, amount, totalCost decimal.Decimal) error {
	if f.FailAMCs[amcID] {
		return f.Err
	}
	return f.Store.AppendPayments(ctx, amcID, payments, amount, totalCost)
}

func (f *Failing) SaveAMC(ctx context.Context, a amc.AMC) error {
	if f.FailAMCs[a.ID] {
		return f.Err
	}
	return f.Store.SaveAMC(ctx, a)
}
