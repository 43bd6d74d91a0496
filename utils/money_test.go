package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1", 100},
		{"1.23", 123},
		{"1.234", 123},
		{"1.235", 124}, // half away from zero
		{"-1.235", -124},
		{"999999.99", 99999999},
		{"0.005", 1},
		{"0.004", 0},
	}
	for _, c := range cases {
		if got := ToMinorUnits(d(t, c.in)); got != c.want {
			t.Errorf("ToMinorUnits(%s) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFromMinorUnitsRoundTrip(t *testing.T) {
	for _, units := range []int64{0, 1, -1, 123, 99999999} {
		if got := ToMinorUnits(FromMinorUnits(units)); got != units {
			t.Errorf("round trip %d -> %d", units, got)
		}
	}
}

func TestRemainingAmount(t *testing.T) {
	cases := []struct {
		name  string
		total string
		paid  string
		want  string
	}{
		{"untouched", "100", "0", "100"},
		{"partial", "100", "40", "60"},
		{"exact", "100", "100", "0"},
		{"one paisa short clamps", "100", "99.99", "0"},
		{"one paisa over clamps", "100", "100.01", "0"},
		{"two paisa short stays open", "100", "99.98", "0.02"},
		{"overpaid never negative", "100", "150", "0"},
		{"fractional inputs", "10.005", "0", "10.01"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := RemainingAmount(d(t, c.total), d(t, c.paid))
			if !got.Equal(d(t, c.want)) {
				t.Errorf("RemainingAmount(%s, %s) = %s, want %s", c.total, c.paid, got, c.want)
			}
		})
	}
}

func TestRemainingAmountNeverNegative(t *testing.T) {
	totals := []string{"0", "1", "99.99", "100", "5000.55"}
	paids := []string{"0", "0.01", "100", "100.01", "1000000"}
	for _, total := range totals {
		for _, paid := range paids {
			got := RemainingAmount(d(t, total), d(t, paid))
			if got.IsNegative() {
				t.Errorf("RemainingAmount(%s, %s) = %s is negative", total, paid, got)
			}
		}
	}
}

func TestAmountsEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"100", "100", true},
		{"100", "100.01", true},
		{"100", "99.99", true},
		{"100", "100.02", false},
		{"100", "99.98", false},
	}
	for _, c := range cases {
		if got := AmountsEqual(d(t, c.a), d(t, c.b)); got != c.want {
			t.Errorf("AmountsEqual(%s, %s) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestExceedsRemaining(t *testing.T) {
	cases := []struct {
		amount    string
		remaining string
		want      bool
	}{
		{"60", "60", false},
		{"60.01", "60", false}, // one minor unit of slack
		{"60.02", "60", true},
		{"0.01", "0", false},
		{"0.02", "0", true},
		{"100", "40", true},
	}
	for _, c := range cases {
		if got := ExceedsRemaining(d(t, c.amount), d(t, c.remaining)); got != c.want {
			t.Errorf("ExceedsRemaining(%s, %s) = %v, want %v", c.amount, c.remaining, got, c.want)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	if v, err := ParseDecimal(""); err != nil || !v.IsZero() {
		t.Errorf("ParseDecimal(\"\") = %s, %v; want 0, nil", v, err)
	}
	if v, err := ParseDecimal("123.45"); err != nil || !v.Equal(d(t, "123.45")) {
		t.Errorf("ParseDecimal(123.45) = %s, %v", v, err)
	}
	if _, err := ParseDecimal("not-a-number"); err == nil {
		t.Error("ParseDecimal accepted garbage input")
	}
}
