package services

import (
	"context"
	"fmt"
	"log/slog"

	"spendlog/internal/cache"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
)

// DashboardQuery selects the bucket period and an optional "YYYY-MM" month.
type DashboardQuery struct {
	Period core.Period
	Month  string
}

// DashboardView is everything the dashboard renders, chart-ready.
type DashboardView struct {
	Period        core.Period      `json:"period"`
	Month         string           `json:"month"`
	TotalAll      float64          `json:"total_all"`
	TotalSelected float64          `json:"total_selected"`
	RecordCount   int              `json:"record_count"`
	Line          []core.LinePoint `json:"line"`
	Pie           []core.PieSlice  `json:"pie"`
	Categories    []string         `json:"categories"`
	MonthOptions  []string         `json:"month_options"`
}

// DashboardService computes dashboard views from a snapshot. Views are cached
// per snapshot version so a refresh never serves stale data.
type DashboardService struct {
	snapshot *Snapshot
	views    cache.Cache[DashboardView]
}

// NewDashboardService refreshes the snapshot once, as on first mount. A nil
// cache disables caching.
func NewDashboardService(ctx context.Context, snapshot *Snapshot, views cache.Cache[DashboardView]) *DashboardService {
	snapshot.Refresh(ctx)
	return &DashboardService{
		snapshot: snapshot,
		views:    views,
	}
}

// Activate reloads the snapshot. Call it whenever the dashboard becomes
// visible again.
func (d *DashboardService) Activate(ctx context.Context) {
	d.snapshot.Refresh(ctx)
	slog.DebugContext(ctx, "Dashboard activated",
		applog.FieldComponent, applog.ComponentDashboard,
		"version", d.snapshot.Version())
}

// View returns the dashboard for q computed from the current snapshot.
func (d *DashboardService) View(_ context.Context, q DashboardQuery) DashboardView {
	if q.Period == "" {
		q.Period = core.Monthly
	}
	records, categories, version := d.snapshot.Data()

	key := fmt.Sprintf("%d|%s|%s", version, q.Period, q.Month)
	if d.views != nil {
		if v, ok := d.views.Get(key); ok {
			return v
		}
	}

	v := BuildDashboard(records, categories, q)
	if d.views != nil {
		d.views.Set(key, v)
	}
	return v
}

// BuildDashboard derives a dashboard view from records and categories.
func BuildDashboard(records []core.Record, categories []string, q DashboardQuery) DashboardView {
	if q.Period == "" {
		q.Period = core.Monthly
	}
	filtered := core.FilterByMonth(records, q.Month)
	return DashboardView{
		Period:        q.Period,
		Month:         q.Month,
		TotalAll:      core.Total(records),
		TotalSelected: core.Total(filtered),
		RecordCount:   len(filtered),
		Line:          core.LineSeries(core.Group(filtered, q.Period), categories),
		Pie:           core.PieSeries(filtered, categories),
		Categories:    append([]string{}, categories...),
		MonthOptions:  core.MonthOptions(records),
	}
}
