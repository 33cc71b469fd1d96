package service

import (
	"context"
	"log"

	"wayfare/internal/metrics"
)

type MutationState string

const (
	MutationPending    MutationState = "pending"
	MutationCommitted  MutationState = "committed"
	MutationRolledBack MutationState = "rolled_back"
)

// Mutation records one list write. It leaves Pending exactly once.
type Mutation struct {
	Op     string
	ListID string
	State  MutationState
	Err    error
}

func (m *Mutation) settle(err error) {
	if m.State != MutationPending {
		return
	}
	if err != nil {
		m.State, m.Err = MutationRolledBack, err
	} else {
		m.State = MutationCommitted
	}
	metrics.ListMutations.WithLabelValues(m.Op, string(m.State)).Inc()
	if err != nil {
		log.Printf("[LISTS] %s list=%s rolled back: %v", m.Op, m.ListID, err)
	}
}

// Transactor runs fn inside a transaction; a nested call joins the outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txScopeKey struct{}

// txScope holds the mutations that joined one outermost transaction.
type txScope struct {
	pending []*Mutation
}

// inTx runs fn through tx. Only the outermost call settles the mutations
// made inside it, once the whole transaction has committed or rolled back.
func inTx(ctx context.Context, tx Transactor, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(txScopeKey{}).(*txScope); nested {
		return tx.WithinTx(ctx, fn)
	}
	scope := &txScope{}
	err := tx.WithinTx(context.WithValue(ctx, txScopeKey{}, scope), fn)
	for _, m := range scope.pending {
		m.settle(err)
	}
	return err
}

// run executes fn and, when recompute is set, the centroid update in one
// transaction. Either both are committed or neither is. Inside a caller's
// transaction the mutation stays pending until that transaction ends,
// unless fn itself fails.
func (s *ListService) run(ctx context.Context, op, listID string, recompute bool, fn func(ctx context.Context, m *Mutation) error) (*Mutation, error) {
	m := &Mutation{Op: op, ListID: listID, State: MutationPending}
	err := inTx(ctx, s.tx, func(ctx context.Context) error {
		if scope, ok := ctx.Value(txScopeKey{}).(*txScope); ok {
			scope.pending = append(scope.pending, m)
		}
		err := fn(ctx, m)
		if err == nil && recompute {
			err = s.center.RecomputeListCenter(ctx, m.ListID)
		}
		if err != nil {
			m.settle(err)
		}
		return err
	})
	return m, err
}
