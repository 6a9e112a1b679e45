package uowmock

import (
	"context"
	"errors"
	"sync"

	"tradecore/internal/domain/trade"
	"tradecore/internal/domain/uow"
)

// Ensure compile-time compliance
var (
	_ uow.UnitOfWork = (*UoW)(nil)
	_ uow.Locker     = (*Locker)(nil)
)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn      func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinTradeTxFn func(ctx context.Context, tradeID string, fn func(r uow.Repos, t *trade.Trade) error) error
}

// Convenience fluent setters
func New() *UoW { return &UoW{} }
func (m *UoW) WithWithinTx(fn func(context.Context, func(uow.Repos) error) error) *UoW {
	m.WithinTxFn = fn
	return m
}
func (m *UoW) WithWithinTradeTx(fn func(context.Context, string, func(uow.Repos, *trade.Trade) error) error) *UoW {
	m.WithinTradeTxFn = fn
	return m
}
func (m *UoW) Reset() { *m = UoW{} }

// Passthrough wires both methods to the given repos with no real transaction.
// WithinTradeTx loads the trade through GetByTradeIDForUpdate like the gorm implementation.
func Passthrough(r uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(r) },
		WithinTradeTxFn: func(ctx context.Context, tradeID string, fn func(uow.Repos, *trade.Trade) error) error {
			t, err := r.Trades.GetByTradeIDForUpdate(ctx, tradeID)
			if err != nil {
				return err
			}
			return fn(r, t)
		},
	}
}

// Methods implementing UnitOfWork
func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}
func (m *UoW) WithinTradeTx(ctx context.Context, tradeID string, fn func(r uow.Repos, t *trade.Trade) error) error {
	if m.WithinTradeTxFn != nil {
		return m.WithinTradeTxFn(ctx, tradeID, fn)
	}
	return errUnimplemented
}

// Locker records the keys it was asked to lock.
type Locker struct {
	mu     sync.Mutex
	Keys   []string
	LockFn func(ctx context.Context, key string) (func(), error)
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	l.Keys = append(l.Keys, key)
	l.mu.Unlock()
	if l.LockFn != nil {
		return l.LockFn(ctx, key)
	}
	return func() {}, nil
}
