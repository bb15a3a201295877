package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Amount", "amount"},
		{"spaces and punctuation", "  My Col (%)", "my_col"},
		{"interior punctuation", "unit-price ($)", "unit_price"},
		{"leading digit", "2024 totals", "_2024_totals"},
		{"accents fold to ascii", "Café Münster", "cafe_munster"},
		{"empty", "", "col"},
		{"only punctuation", "!!!", "col"},
		{"already normalized", "load_ts", "load_ts"},
		{"mixed case", "CustomerID", "customerid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"  My Col (%)", "2024 totals", "Café", "", "a__b", "_x_", strings.Repeat("long", 40)}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", in)
	}
}

func TestNormalizeTruncates(t *testing.T) {
	long := strings.Repeat("abcde_", 20)
	got := Normalize(long)
	assert.LessOrEqual(t, len(got), MaxLength)
	assert.False(t, strings.HasSuffix(got, "_"))
}

func TestNormalizeTable(t *testing.T) {
	assert.Equal(t, "sales_2024", NormalizeTable([]string{"sales", "2024"}))
	assert.Equal(t, "_2024_q1", NormalizeTable([]string{"2024", "Q1"}))
	assert.Equal(t, "data_sales", NormalizeTable([]string{"Data", "Sales!"}))
	assert.Equal(t, "col", NormalizeTable([]string{"###"}))
	assert.Equal(t, "sales", NormalizeTable([]string{"sales", "###"}))
}

func TestDedupe(t *testing.T) {
	t.Run("suffixes in input order", func(t *testing.T) {
		assert.Equal(t, []string{"x", "x_2", "x_3"}, Dedupe([]string{"x", "x", "x"}))
	})

	t.Run("collisions after normalization", func(t *testing.T) {
		got := Dedupe([]string{"My Col", "my col", "MY_COL"})
		assert.Equal(t, []string{"my_col", "my_col_2", "my_col_3"}, got)
	})

	t.Run("distinct names untouched", func(t *testing.T) {
		got := Dedupe([]string{"id", "name", "when"})
		assert.Equal(t, []string{"id", "name", "when"}, got)
	})

	t.Run("order stable", func(t *testing.T) {
		first := Dedupe([]string{"a", "b", "a", "b", "a"})
		second := Dedupe([]string{"a", "b", "a", "b", "a"})
		assert.Equal(t, first, second)
		assert.Equal(t, []string{"a", "b", "a_2", "b_2", "a_3"}, first)
	})

	t.Run("suffix respects length limit", func(t *testing.T) {
		long := strings.Repeat("z", MaxLength)
		got := Dedupe([]string{long, long})
		for _, name := range got {
			assert.LessOrEqual(t, len(name), MaxLength)
		}
		assert.NotEqual(t, got[0], got[1])
	})
}
