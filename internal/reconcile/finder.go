package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tapi/api/internal/matching"
	"tapi/api/internal/repository"
)

// Match is an order found for a transfer description. AlreadyPaid is set when
// only a paid order fits, meaning the transfer pays for it a second time.
type Match struct {
	Order       *repository.OrderRow
	Identifier  string
	Rule        matching.Rule
	AlreadyPaid bool
}

// Finder locates the order a transfer description refers to.
type Finder struct {
	ScanLimit int
}

type orderLookup struct {
	byID   func(ctx context.Context, q repository.Querier, id string) (*repository.OrderRow, error)
	recent func(ctx context.Context, q repository.Querier, limit int) ([]*repository.OrderRow, error)
}

var (
	pendingOrders = orderLookup{byID: repository.PendingOrderByID, recent: repository.RecentPendingOrders}
	paidOrders    = orderLookup{byID: repository.PaidOrderByID, recent: repository.RecentPaidOrders}
)

// Find extracts identifiers from description and resolves them to a pending,
// unverified order, falling back to paid orders. It returns
// matching.ErrNoOrderID when the description holds no identifier and
// matching.ErrNoMatch when no order fits.
func (f Finder) Find(ctx context.Context, q repository.Querier, description string) (*Match, error) {
	ids, err := matching.ExtractAll(description)
	if err != nil {
		return nil, err
	}

	m, err := f.search(ctx, q, ids, pendingOrders)
	if err != nil || m != nil {
		return m, err
	}
	m, err = f.search(ctx, q, ids, paidOrders)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.AlreadyPaid = true
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", matching.ErrNoMatch, strings.Join(ids, ", "))
}

// search tries an exact lookup for every UUID-shaped identifier, then one
// bounded scan matched against each identifier in rank order. A nil Match
// with a nil error means nothing fitted.
func (f Finder) search(ctx context.Context, q repository.Querier, ids []string, lookup orderLookup) (*Match, error) {
	for _, id := range ids {
		canonical, ok := matching.CanonicalUUID(id)
		if !ok {
			continue
		}
		order, err := lookup.byID(ctx, q, canonical)
		switch {
		case err == nil:
			return &Match{Order: order, Identifier: id, Rule: matching.RuleExact}, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("lookup order %s: %w", canonical, err)
		}
	}

	orders, err := lookup.recent(ctx, q, f.ScanLimit)
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	for _, id := range ids {
		candidates := matching.Candidates(id)
		for _, o := range orders {
			if rule, ok := matching.Match(o.ID, candidates); ok {
				return &Match{Order: o, Identifier: id, Rule: rule}, nil
			}
		}
	}
	return nil, nil
}
