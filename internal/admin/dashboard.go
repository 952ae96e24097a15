// AngelaMos | 2026
// dashboard.go

package admin

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/buildmc/storefront/internal/order"
)

type CatalogCounter interface {
	Counts(ctx context.Context) (products, categories int, err error)
}

type OrderSummarizer interface {
	Summarize(ctx context.Context) (order.Summary, error)
}

type Dashboard struct {
	TotalProducts   int     `json:"total_products"`
	TotalOrders     int     `json:"total_orders"`
	TotalCategories int     `json:"total_categories"`
	TotalRevenue    float64 `json:"total_revenue"`
	PendingOrders   int     `json:"pending_orders"`
}

// BuildDashboard gathers catalog and order figures concurrently.
func BuildDashboard(ctx context.Context, catalog CatalogCounter, orders OrderSummarizer) (Dashboard, error) {
	var (
		d       Dashboard
		summary order.Summary
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.TotalProducts, d.TotalCategories, err = catalog.Counts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = orders.Summarize(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.TotalOrders = summary.Total
	d.TotalRevenue = summary.Revenue
	d.PendingOrders = summary.Pending
	return d, nil
}
