package services

import (
	"slices"

	"logistics/internal/core/domain/model/order"
)

// OrderConsolidator merges Created orders that share source, destination and resource
// type. The earliest order of each group is kept as the canonical one and absorbs the
// requested amounts of the others, which end up Cancelled with a merged-into reference.
type OrderConsolidator struct{}

func NewOrderConsolidator() OrderConsolidator {
	return OrderConsolidator{}
}

// Consolidate returns the canonical orders in creation order together with the orders
// that were merged away. The input slice is not modified.
func (c OrderConsolidator) Consolidate(orders []*order.Order) (kept, merged []*order.Order, err error) {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b *order.Order) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})

	canonical := make(map[order.ConsolidationKey]*order.Order, len(sorted))
	for _, o := range sorted {
		if err = o.Validate(); err != nil {
			return nil, nil, err
		}
		key := o.ConsolidationKey()
		first, ok := canonical[key]
		if !ok {
			canonical[key] = o
			kept = append(kept, o)
			continue
		}
		if err = first.Absorb(o); err != nil {
			return nil, nil, err
		}
		merged = append(merged, o)
	}
	return kept, merged, nil
}
