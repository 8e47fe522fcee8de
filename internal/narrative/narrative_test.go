package narrative

import (
	"strings"
	"testing"

	"gagyebu/internal/analytics"
	"gagyebu/internal/core"
)

func TestBuildPromptMonthly(t *testing.T) {
	prompt := BuildPrompt(Request{
		PeriodLabel: "2025년 3월",
		Mode:        core.Monthly,
		TotalAmount: 1234567,
		Stats: []analytics.CategoryStat{
			{CategoryName: "식비", TotalAmount: 800000, ItemCount: 24, Percentage: 64.8},
			{CategoryName: "미분류", TotalAmount: 434567, ItemCount: 7, Percentage: 35.2},
		},
	})

	for _, want := range []string{
		"월간 지출 데이터",
		"**기간**: 2025년 3월",
		"**총 지출**: 1,234,567원",
		"- 식비: 800,000원 (64.8%, 24건)",
		"- 미분류: 434,567원 (35.2%, 7건)",
		"다음 달에 적정한 총 예산",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptWeekly(t *testing.T) {
	prompt := BuildPrompt(Request{
		PeriodLabel: "3월 10일 - 3월 16일",
		Mode:        core.Weekly,
		TotalAmount: 50000,
		Stats:       []analytics.CategoryStat{{CategoryName: "식비", TotalAmount: 50000, ItemCount: 3, Percentage: 100}},
	})
	if !strings.Contains(prompt, "주간 지출 데이터") {
		t.Error("weekly prompt should mention 주간")
	}
	if !strings.Contains(prompt, "다음 주에 적정한 총 예산") {
		t.Error("weekly prompt should recommend next week's budget")
	}
}
