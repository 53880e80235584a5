package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/ports"
)

type stockKey struct {
	node     kernel.UUID
	resource string
}

type worldChangeKind int

const (
	changeWithdraw worldChangeKind = iota
	changeDeposit
	changeCredit
)

type worldChange struct {
	kind     worldChangeKind
	node     kernel.UUID
	resource string
	amount   float64
}

// worldChanges buffers the stock and construction changes of one stage. Amounts are
// decided against the storehouse snapshots plus what the stage already moved, and the
// world only sees them through apply, after the unit of work committed. A stage that
// rolls back leaves the world untouched.
type worldChanges struct {
	storehouses  ports.Storehouses
	construction ports.ConstructionLedger
	logger       *slog.Logger

	pending map[stockKey]float64
	changes []worldChange
}

func newWorldChanges(storehouses ports.Storehouses, construction ports.ConstructionLedger, logger *slog.Logger) *worldChanges {
	return &worldChanges{
		storehouses:  storehouses,
		construction: construction,
		logger:       logger,
		pending:      make(map[stockKey]float64),
	}
}

// stock returns the snapshot's amount adjusted by the changes staged so far.
func (w *worldChanges) stock(store ports.Storehouse, resourceID string) float64 {
	return store.StockOf(resourceID) + w.pending[stockKey{node: store.NodeID, resource: resourceID}]
}

// full reports whether a bounded resource has no room left.
func (w *worldChanges) full(store ports.Storehouse, resourceID string) bool {
	limit, bounded := store.Capacity[resourceID]
	return bounded && w.stock(store, resourceID) >= limit
}

// withdraw stages the removal of up to amount and returns what will be removed.
func (w *worldChanges) withdraw(store ports.Storehouse, resourceID string, amount float64) float64 {
	taken := min(amount, max(w.stock(store, resourceID), 0))
	if taken <= 0 {
		return 0
	}
	w.pending[stockKey{node: store.NodeID, resource: resourceID}] -= taken
	w.changes = append(w.changes, worldChange{kind: changeWithdraw, node: store.NodeID, resource: resourceID, amount: taken})
	return taken
}

// deposit stages the addition of up to the free capacity and returns what will be accepted.
func (w *worldChanges) deposit(store ports.Storehouse, resourceID string, amount float64) float64 {
	accepted := amount
	if limit, bounded := store.Capacity[resourceID]; bounded {
		accepted = min(amount, max(limit-w.stock(store, resourceID), 0))
	}
	if accepted <= 0 {
		return 0
	}
	w.pending[stockKey{node: store.NodeID, resource: resourceID}] += accepted
	w.changes = append(w.changes, worldChange{kind: changeDeposit, node: store.NodeID, resource: resourceID, amount: accepted})
	return accepted
}

// credit stages a construction delivery.
func (w *worldChanges) credit(nodeID kernel.UUID, resourceID string, amount float64) {
	if amount <= 0 {
		return
	}
	w.changes = append(w.changes, worldChange{kind: changeCredit, node: nodeID, resource: resourceID, amount: amount})
}

// apply hands the staged changes to the world in order. It runs after Commit, so a
// failure here is reported and never retried against the committed pipeline state.
func (w *worldChanges) apply(ctx context.Context) error {
	var problems []error
	for _, c := range w.changes {
		switch c.kind {
		case changeWithdraw:
			got, err := w.storehouses.Withdraw(ctx, c.node, c.resource, c.amount)
			if err != nil {
				problems = append(problems, fmt.Errorf("withdraw %s from %s: %w", c.resource, c.node, err))
			} else if got < c.amount {
				w.logger.WarnContext(ctx, "storehouse released less than committed",
					"node", c.node.String(), "resource", c.resource, "committed", c.amount, "withdrawn", got)
			}
		case changeDeposit:
			got, err := w.storehouses.Deposit(ctx, c.node, c.resource, c.amount)
			if err != nil {
				problems = append(problems, fmt.Errorf("deposit %s into %s: %w", c.resource, c.node, err))
			} else if got < c.amount {
				w.logger.WarnContext(ctx, "storehouse accepted less than settled",
					"node", c.node.String(), "resource", c.resource, "settled", c.amount, "accepted", got)
			}
		case changeCredit:
			if err := w.construction.AddDelivered(ctx, c.node, c.resource, c.amount); err != nil {
				problems = append(problems, fmt.Errorf("credit %s to %s: %w", c.resource, c.node, err))
			}
		}
	}
	w.changes = nil
	clear(w.pending)
	return errors.Join(problems...)
}
