package receipt

import (
	"testing"

	"gagyebu/internal/core"
)

var fixedToday = core.NewDate(2025, 6, 15)

func TestParseEmptyInputYieldsDefaults(t *testing.T) {
	for _, in := range []string{"", "\n\n", "   \n \n"} {
		got := parseAt(in, fixedToday)
		if got.Place != PlaceholderPlace {
			t.Errorf("Parse(%q).Place = %q, want placeholder", in, got.Place)
		}
		if got.Date != fixedToday {
			t.Errorf("Parse(%q).Date = %v, want today", in, got.Date)
		}
		if len(got.Items) != 1 {
			t.Fatalf("Parse(%q) items = %d, want exactly one placeholder", in, len(got.Items))
		}
		it := got.Items[0]
		if it.ProductName != "" || it.Quantity != 1 || it.PricePerUnit != 0 {
			t.Errorf("placeholder item = %+v", it)
		}
		if got.TotalAmount != 0 {
			t.Errorf("Parse(%q).TotalAmount = %d, want 0", in, got.TotalAmount)
		}
	}
}

func TestParseFullReceipt(t *testing.T) {
	text := `이마트 성수점
서울특별시 성동구
전화: 02-1234-5678
2025-03-10
001 서리필속지(20매)
8809074396277.    1,300 2    2600
002 합지0량3공바인다
4,500 1 4,500
합계: 7,100`

	got := parseAt(text, fixedToday)

	if got.Place != "이마트 성수점" {
		t.Errorf("Place = %q", got.Place)
	}
	if got.Date.String() != "2025-03-10" {
		t.Errorf("Date = %s", got.Date)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items = %+v", got.Items)
	}
	want := []core.CandidateItem{
		{ProductName: "서리필속지(20매)", Quantity: 2, PricePerUnit: 1300},
		{ProductName: "합지0량3공바인다", Quantity: 1, PricePerUnit: 4500},
	}
	for i, w := range want {
		if got.Items[i] != w {
			t.Errorf("item %d = %+v, want %+v", i, got.Items[i], w)
		}
	}
	if got.TotalAmount != 7100 {
		t.Errorf("TotalAmount = %d, want 7100 (explicit 합계 line)", got.TotalAmount)
	}
}

func TestParseTotalFallsBackToItemSum(t *testing.T) {
	text := `다이소
2025-03-10
001 서리필속지(20매)
1,300 2 2,600
002 볼펜
2,600 1 2,600`

	got := parseAt(text, fixedToday)
	if got.TotalAmount != 2*1300+1*2600 {
		t.Errorf("TotalAmount = %d, want 5200", got.TotalAmount)
	}
}

func TestExtractDateNormalizesSeparators(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"결제일 2025.03.10 14:22", "2025-03-10"},
		{"2025/3/5", "2025-03-05"},
		{"2025-12-31", "2025-12-31"},
	}
	for _, tc := range cases {
		d, ok := extractDate(tc.in)
		if !ok || d.String() != tc.want {
			t.Errorf("extractDate(%q) = %v, %v; want %s", tc.in, d, ok, tc.want)
		}
	}
}

func TestExtractDateSkipsCalendarInvalidMatches(t *testing.T) {
	// The first syntactic match has month 13; the search continues to the
	// next valid one instead of accepting it.
	d, ok := extractDate("2025-13-01 something 2025-03-10")
	if !ok || d.String() != "2025-03-10" {
		t.Fatalf("extractDate = %v, %v; want 2025-03-10", d, ok)
	}

	if _, ok := extractDate("2025-13-40"); ok {
		t.Fatal("expected no valid date")
	}
}

func TestExtractPlacePriority(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"chain pattern", "어쩌구\n홈플러스 강동점\n2025-01-01", "홈플러스 강동점"},
		{"store marker line", "영수증\n성수기업점\n전화: 02-123-4567", "성수기업점"},
		{"short hangul line", "RECEIPT\n김밥천국분식\n02-1234-5678", "김밥천국분식"},
		{"placeholder", "RECEIPT\n1234\nhttp://example.com", PlaceholderPlace},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseAt(tc.text, fixedToday)
			if got.Place != tc.want {
				t.Errorf("Place = %q, want %q", got.Place, tc.want)
			}
		})
	}
}

func TestPriceLookAheadSkipsBoilerplate(t *testing.T) {
	// The line right after the product is boilerplate (URL); the price two
	// lines down must still be attributed to the product.
	text := `001 서리필속지(20매)
http://www.emart.com
1,300 2 2,600`

	got := parseAt(text, fixedToday)
	if len(got.Items) != 1 {
		t.Fatalf("items = %+v", got.Items)
	}
	if got.Items[0].PricePerUnit != 1300 || got.Items[0].Quantity != 2 {
		t.Errorf("item = %+v", got.Items[0])
	}
}

func TestPriceLookAheadStopsAfterThreeLines(t *testing.T) {
	text := `001 서리필속지(20매)
noise
noise
noise
1,300 2 2,600`

	got := parseAt(text, fixedToday)
	// No price within 3 lines: the parser still returns the placeholder
	// item rather than mis-attributing a distant price line.
	if len(got.Items) != 1 || got.Items[0].ProductName != "" {
		t.Fatalf("items = %+v, want single placeholder", got.Items)
	}
}

func TestProductLineRequiresScriptCharacter(t *testing.T) {
	// "001 12345" is a code followed by digits only, not a product name.
	text := "001 12345\n1,300 2 2,600"
	got := parseAt(text, fixedToday)
	if len(got.Items) != 1 || got.Items[0].ProductName != "" {
		t.Fatalf("items = %+v, want single placeholder", got.Items)
	}
}

func TestParseNeverReturnsZeroItems(t *testing.T) {
	got := parseAt("합계: 3,000", fixedToday)
	if len(got.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(got.Items))
	}
	if got.TotalAmount != 3000 {
		t.Errorf("TotalAmount = %d, want 3000", got.TotalAmount)
	}
}

func TestBarcodePrefixIsIgnored(t *testing.T) {
	text := "001 맛있는우유\n8809074396277. 2,500 3 7,500"
	got := parseAt(text, fixedToday)
	if len(got.Items) != 1 {
		t.Fatalf("items = %+v", got.Items)
	}
	w := core.CandidateItem{ProductName: "맛있는우유", Quantity: 3, PricePerUnit: 2500}
	if got.Items[0] != w {
		t.Errorf("item = %+v, want %+v", got.Items[0], w)
	}
}
