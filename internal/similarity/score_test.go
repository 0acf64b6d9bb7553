package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		a       string
		b       string
		wantMin float64
		wantMax float64
	}{
		{name: "identical", a: "WHOLE FOODS MARKET", b: "WHOLE FOODS MARKET", wantMin: 100, wantMax: 100},
		{name: "reordered", a: "FOODS WHOLE MARKET", b: "WHOLE FOODS MARKET", wantMin: 100, wantMax: 100},
		{name: "domain suffix and marketplace", a: "AMAZON COM", b: "AMAZON MKTPLACE", wantMin: 100, wantMax: 100},
		{name: "extra location token", a: "STARBUCKS SEATTLE", b: "STARBUCKS", wantMin: 100, wantMax: 100},
		{name: "disjoint", a: "NETFLIX", b: "SPOTIFY USA", wantMin: 0, wantMax: 0},
		{name: "shared short word only", a: "THE GAP", b: "THE HOME DEPOT", wantMin: 0, wantMax: 20},
		{name: "shared long word dominates", a: "SAFEWAY FUEL", b: "SAFEWAY STORE", wantMin: 60, wantMax: 80},
		{name: "empty", a: "", b: "NETFLIX", wantMin: 0, wantMax: 0},
		{name: "only domain noise", a: "COM", b: "COM", wantMin: 0, wantMax: 0},
		{name: "short identical tokens", a: "BP", b: "BP", wantMin: 100, wantMax: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.wantMin)
			assert.LessOrEqual(t, got, tt.wantMax)
		})
	}
}

func TestScore_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"AMAZON COM", "AMAZON MKTPLACE PMTS"},
		{"THE GAP", "THE HOME DEPOT"},
		{"SAFEWAY FUEL", "SAFEWAY STORE"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Score(p[0], p[1]), Score(p[1], p[0]), 1e-9)
	}
}

func TestScore_Bounded(t *testing.T) {
	inputs := []string{"", "A", "AB CD", "AMAZON", "AMAZON AMAZON", "X Y Z", "LONGMERCHANTNAME INC"}
	for _, a := range inputs {
		for _, b := range inputs {
			s := Score(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
		}
	}
}
