package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gagyebu/internal/core"
	"gagyebu/internal/narrative"
	"gagyebu/internal/store/memory"
)

func seedMarch(t *testing.T, mem *memory.Store) (foodID string) {
	t.Helper()
	ctx := context.Background()
	ledger := NewLedgerService(mem, nil)

	food, err := ledger.CreateCategory(ctx, "u1", "식비")
	if err != nil {
		t.Fatal(err)
	}

	created, err := ledger.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", Date: core.NewDate(2025, 3, 12), Place: "이마트",
	}, []core.TransactionItem{
		{ProductName: "우유", Quantity: 2, UnitPrice: 1300},
		{ProductName: "세제", Quantity: 1, UnitPrice: 8000},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.UpdateItemCategory(ctx, "u1", created.Items[0].ID, &food.ID); err != nil {
		t.Fatal(err)
	}
	return food.ID
}

func TestReportMonthly(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	foodID := seedMarch(t, mem)
	svc := NewAnalyticsService(mem, nil)

	ledger := NewLedgerService(mem, nil)
	if _, err := ledger.UpsertBudget(ctx, core.Budget{
		UserID: "u1", PeriodType: core.Monthly, StartDate: core.NewDate(2025, 3, 1), Amount: 10000,
	}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.Report(ctx, "u1", core.NewDate(2025, 3, 20), core.Monthly)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.TotalAmount != 10600 {
		t.Errorf("total = %d, want 10600", report.TotalAmount)
	}
	if report.Label != "2025년 3월" {
		t.Errorf("label = %q", report.Label)
	}
	if len(report.Stats) != 2 {
		t.Fatalf("stats = %+v", report.Stats)
	}
	// 세제 (8000, uncategorized) outranks 식비 (2600).
	if report.Stats[0].CategoryID != "uncategorized" || report.Stats[1].CategoryID != foodID {
		t.Errorf("stat order = %+v", report.Stats)
	}

	if len(report.Budgets) != 1 {
		t.Fatalf("budgets = %+v", report.Budgets)
	}
	b := report.Budgets[0]
	if !b.IsOverBudget || b.Spent != 10600 || b.Remaining != -600 {
		t.Errorf("budget status = %+v", b)
	}
}

func TestReportBudgetWindowMustMatch(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	seedMarch(t, mem)
	ledger := NewLedgerService(mem, nil)
	// Budget anchored at a different month stays out of the report.
	if _, err := ledger.UpsertBudget(ctx, core.Budget{
		UserID: "u1", PeriodType: core.Monthly, StartDate: core.NewDate(2025, 2, 1), Amount: 10000,
	}); err != nil {
		t.Fatal(err)
	}

	report, err := NewAnalyticsService(mem, nil).Report(ctx, "u1", core.NewDate(2025, 3, 20), core.Monthly)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Budgets) != 0 {
		t.Errorf("budgets = %+v, want none", report.Budgets)
	}
}

func TestTrends(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	seedMarch(t, mem)
	ledger := NewLedgerService(mem, nil)
	if _, err := ledger.CreateTransaction(ctx, core.Transaction{
		UserID: "u1", Date: core.NewDate(2025, 1, 5), Place: "GS25",
	}, []core.TransactionItem{{ProductName: "삼각김밥", Quantity: 1, UnitPrice: 1500}}); err != nil {
		t.Fatal(err)
	}

	trends, err := NewAnalyticsService(mem, nil).Trends(ctx, "u1", core.NewDate(2025, 3, 20), 3)
	if err != nil {
		t.Fatalf("trends: %v", err)
	}
	if len(trends.Series) != 3 {
		t.Fatalf("series = %d", len(trends.Series))
	}
	if trends.Series[0].TotalAmount != 1500 {
		t.Errorf("january = %+v", trends.Series[0])
	}
	if trends.Series[1].TotalAmount != 0 {
		t.Errorf("february = %+v", trends.Series[1])
	}
	if trends.Series[2].TotalAmount != 10600 {
		t.Errorf("march = %+v", trends.Series[2])
	}
	if len(trends.Colors) == 0 {
		t.Error("colors missing")
	}
}

func TestCalendar(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	ledger := NewLedgerService(mem, nil)
	for _, d := range []int{5, 5, 20} {
		if _, err := ledger.CreateTransaction(ctx, core.Transaction{
			UserID: "u1", Date: core.NewDate(2025, 3, d), Place: "GS25",
		}, []core.TransactionItem{{ProductName: "생수", Quantity: 1, UnitPrice: 1000}}); err != nil {
			t.Fatal(err)
		}
	}

	days, err := NewAnalyticsService(mem, nil).Calendar(ctx, "u1", core.NewDate(2025, 3, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 {
		t.Fatalf("days = %+v", days)
	}
	if days[0].Date.String() != "2025-03-05" || days[0].Total != 2000 || days[0].Count != 2 {
		t.Errorf("day[0] = %+v", days[0])
	}
	if days[1].Date.String() != "2025-03-20" || days[1].Total != 1000 {
		t.Errorf("day[1] = %+v", days[1])
	}
}

type fakeAnalyzer struct {
	lastReq narrative.Request
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req narrative.Request) (string, error) {
	f.lastReq = req
	return "분석 결과", nil
}

func TestNarrative(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	seedMarch(t, mem)
	fa := &fakeAnalyzer{}
	svc := NewAnalyticsService(mem, fa)

	text, err := svc.Narrative(ctx, "u1", core.NewDate(2025, 3, 20), core.Monthly)
	if err != nil {
		t.Fatalf("narrative: %v", err)
	}
	if text != "분석 결과" {
		t.Errorf("text = %q", text)
	}
	if fa.lastReq.TotalAmount != 10600 || !strings.Contains(fa.lastReq.PeriodLabel, "2025년") {
		t.Errorf("request = %+v", fa.lastReq)
	}
}

func TestNarrativeEmptyPeriod(t *testing.T) {
	svc := NewAnalyticsService(memory.New(), &fakeAnalyzer{})
	_, err := svc.Narrative(context.Background(), "u1", core.NewDate(2025, 3, 20), core.Monthly)
	if !errors.Is(err, ErrNoStats) {
		t.Errorf("err = %v, want ErrNoStats", err)
	}
}
