/*
store.go - Persistence collaborators for the billing engine

KEY INTERFACES:
  OrderRepository:  Orders with customizations, licenses, agreements, status logs
  ClientRepository: Read-only billing cadence
  AMCRepository:    AMC documents and their payment lists
  Store:            All three (what the Synchronizer needs)

NOT FOUND:
  Getters return (nil, nil) for a missing record. Errors are reserved for
  storage failures.

ATOMIC APPEND:
  AppendPayments adds payments to the end of an AMC's list and updates the
  cached Amount/TotalCost in one write. Either everything lands or nothing does.

IMPLEMENTATIONS:
  - amc/store/memory.go:   In-memory for tests and dev
  - store/sqlite/sqlite.go: SQLite
*/
package amc

import (
	"context"

	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	GetOrder(ctx context.Context, id string) (*Order, error)
	SaveOrder(ctx context.Context, order Order) error
}

type ClientRepository interface {
	GetClient(ctx context.Context, id string) (*Client, error)
}

type AMCRepository interface {
	// ListAMCs returns every AMC that is not soft-deleted.
	ListAMCs(ctx context.Context) ([]AMC, error)
	GetAMC(ctx context.Context, id string) (*AMC, error)
	GetAMCByOrder(ctx context.Context, orderID string) (*AMC, error)

	// AppendPayments appends payments and sets Amount/TotalCost atomically.
	AppendPayments(ctx context.Context, amcID string, payments []Payment, amount, totalCost decimal.Decimal) error

	// SaveAMC writes the whole document, payments included.
	SaveAMC(ctx context.Context, amc AMC) error
}

type Store interface {
	OrderRepository
	ClientRepository
	AMCRepository
}
