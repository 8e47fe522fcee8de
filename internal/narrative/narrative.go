// Package narrative turns period statistics into a Korean spending review
// written by an LLM.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"gagyebu/internal/analytics"
	"gagyebu/internal/core"
	applog "gagyebu/internal/log"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

const maxOutputTokens = 2048

// Request is everything the prompt needs. Stats must be non-empty; the
// handler rejects empty periods before reaching the analyzer.
type Request struct {
	PeriodLabel string
	Mode        core.PeriodType
	TotalAmount int64
	Stats       []analytics.CategoryStat
}

// Analyzer produces the narrative text for a period.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

type Gemini struct {
	client *genai.Client
	model  string
	logger *applog.Logger
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{
		client: client,
		model:  model,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentNarrative),
	}, nil
}

func (g *Gemini) Analyze(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: BuildPrompt(req)}},
		},
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate analysis: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generate analysis: empty response")
	}

	g.logger.InfoContext(ctx, "narrative generated",
		applog.FieldOperation, applog.OpAnalyze,
		applog.FieldPeriod, req.PeriodLabel,
		"model", g.model)
	return text, nil
}

// BuildPrompt renders the analysis prompt. Exported so tests can pin the
// template without calling the model.
func BuildPrompt(req Request) string {
	window := "월간"
	unit := "달"
	if req.Mode == core.Weekly {
		window = "주간"
		unit = "주"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "당신은 가계부 분석 전문가입니다. 다음 %s 지출 데이터를 분석하고 인사이트를 제공해주세요.\n\n", window)
	fmt.Fprintf(&b, "**기간**: %s\n", req.PeriodLabel)
	fmt.Fprintf(&b, "**총 지출**: %s원\n\n", core.GroupThousands(req.TotalAmount))
	b.WriteString("**카테고리별 지출:**\n")
	for _, stat := range req.Stats {
		fmt.Fprintf(&b, "- %s: %s원 (%.1f%%, %d건)\n",
			stat.CategoryName, core.GroupThousands(stat.TotalAmount), stat.Percentage, stat.ItemCount)
	}

	fmt.Fprintf(&b, `
다음 항목들을 포함하여 한국어로 상세히 분석해주세요:

1. **전체 지출 패턴 분석**
   - 총 지출 금액에 대한 평가 (많은지, 적절한지)
   - %s 지출로서 적정 수준인지

2. **카테고리별 분석**
   - 가장 많이 지출한 카테고리와 그 이유 추정
   - 각 카테고리 지출이 합리적인지 평가
   - 이상 지출 패턴 감지 (너무 높거나 낮은 항목)

3. **절약 제안**
   - 줄일 수 있는 지출 카테고리
   - 구체적인 절약 방법 3가지

4. **예산 추천**
   - 다음 %s에 적정한 총 예산
   - 카테고리별 권장 예산 배분

5. **종합 평가**
   - 전반적인 소비 습관 평가
   - 개선이 필요한 부분

응답은 이모지를 적절히 활용하여 읽기 쉽게 작성해주세요. 마크다운 형식으로 작성하되, 각 섹션을 명확히 구분해주세요.`, window, unit)

	return b.String()
}
