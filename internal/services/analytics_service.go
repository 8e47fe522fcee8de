package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"gagyebu/internal/analytics"
	"gagyebu/internal/core"
	"gagyebu/internal/narrative"
	"gagyebu/internal/store"
)

// ErrNoStats is returned when a narrative is requested for a period with
// no spending at all.
var ErrNoStats = errors.New("no data to analyze")

// ErrNoAnalyzer is returned when no LLM analyzer was configured.
var ErrNoAnalyzer = errors.New("analyzer not configured")

// AnalyticsService computes reports over persisted items. It never writes.
type AnalyticsService struct {
	store    store.Store
	analyzer narrative.Analyzer
}

func NewAnalyticsService(s store.Store, analyzer narrative.Analyzer) *AnalyticsService {
	return &AnalyticsService{store: s, analyzer: analyzer}
}

// PeriodReport is the full analytics view for one window.
type PeriodReport struct {
	Period      analytics.Period         `json:"period"`
	Label       string                   `json:"label"`
	TotalAmount int64                    `json:"totalAmount"`
	Stats       []analytics.CategoryStat `json:"stats"`
	Budgets     []analytics.BudgetStatus `json:"budgets"`
}

// Report aggregates the window containing ref. Budgets anchored at the
// window start are overlaid with actual spend.
func (s *AnalyticsService) Report(ctx context.Context, userID string, ref core.Date, mode core.PeriodType) (PeriodReport, error) {
	period := analytics.PeriodFor(ref, mode)

	items, err := s.store.ListItemsInRange(ctx, userID, period.Start, period.End)
	if err != nil {
		return PeriodReport{}, fmt.Errorf("list items: %w", err)
	}
	names, err := s.categoryNames(ctx, userID)
	if err != nil {
		return PeriodReport{}, err
	}

	stats, total := analytics.Aggregate(items, names)

	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return PeriodReport{}, fmt.Errorf("list budgets: %w", err)
	}
	spentByCategory := make(map[string]int64)
	for _, st := range stats {
		spentByCategory[st.CategoryID] = st.TotalAmount
	}
	var statuses []analytics.BudgetStatus
	for _, b := range budgets {
		if b.PeriodType != mode || !b.StartDate.Equal(period.Start.Time) {
			continue
		}
		spent := total
		if b.CategoryID != nil {
			spent = spentByCategory[*b.CategoryID]
		}
		statuses = append(statuses, analytics.BudgetProgress(b, spent))
	}

	return PeriodReport{
		Period:      period,
		Label:       period.Label(),
		TotalAmount: total,
		Stats:       stats,
		Budgets:     statuses,
	}, nil
}

// TrendReport is the multi-month series plus the color assignment.
type TrendReport struct {
	Series []analytics.MonthlyData   `json:"series"`
	Colors []analytics.CategoryColor `json:"colors"`
}

// Trends builds the n-month series ending at ref's month. Months are
// fetched concurrently; each result lands in its own slot so the series
// order never depends on completion order.
func (s *AnalyticsService) Trends(ctx context.Context, userID string, ref core.Date, months int) (TrendReport, error) {
	windows := analytics.MonthWindows(ref, months)
	monthItems := make([][]core.TransactionItem, len(windows))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range windows {
		g.Go(func() error {
			items, err := s.store.ListItemsInRange(gctx, userID, w.Start, w.End)
			if err != nil {
				return fmt.Errorf("month %s: %w", w.Start, err)
			}
			monthItems[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TrendReport{}, err
	}

	names, err := s.categoryNames(ctx, userID)
	if err != nil {
		return TrendReport{}, err
	}
	series, colors := analytics.BuildSeries(windows, monthItems, names)
	return TrendReport{Series: series, Colors: colors}, nil
}

// CalendarDay is one cell of the monthly calendar view.
type CalendarDay struct {
	Date  core.Date `json:"date"`
	Total int64     `json:"total"`
	Count int       `json:"count"`
}

// Calendar sums transactions per day over the month containing ref.
func (s *AnalyticsService) Calendar(ctx context.Context, userID string, ref core.Date) ([]CalendarDay, error) {
	period := analytics.PeriodFor(ref, core.Monthly)
	txs, err := s.store.ListTransactions(ctx, userID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	byDay := make(map[string]*CalendarDay)
	for _, t := range txs {
		key := t.Date.String()
		day, ok := byDay[key]
		if !ok {
			day = &CalendarDay{Date: t.Date}
			byDay[key] = day
		}
		day.Total += t.TotalAmount
		day.Count++
	}

	days := make([]CalendarDay, 0, len(byDay))
	for d := period.Start; !d.After(period.End); d = d.AddDays(1) {
		if day, ok := byDay[d.String()]; ok {
			days = append(days, *day)
		}
	}
	return days, nil
}

// Narrative runs the window's stats through the LLM analyzer.
func (s *AnalyticsService) Narrative(ctx context.Context, userID string, ref core.Date, mode core.PeriodType) (string, error) {
	if s.analyzer == nil {
		return "", ErrNoAnalyzer
	}
	report, err := s.Report(ctx, userID, ref, mode)
	if err != nil {
		return "", err
	}
	if report.TotalAmount == 0 && len(report.Stats) == 0 {
		return "", ErrNoStats
	}
	return s.analyzer.Analyze(ctx, narrative.Request{
		PeriodLabel: report.Label,
		Mode:        mode,
		TotalAmount: report.TotalAmount,
		Stats:       report.Stats,
	})
}

func (s *AnalyticsService) categoryNames(ctx context.Context, userID string) (map[string]string, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names, nil
}
