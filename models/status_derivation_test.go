package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

func TestDeriveObligationStatus(t *testing.T) {
	cases := []struct {
		name  string
		total string
		paid  string
		want  ObligationStatus
	}{
		{"nothing paid", "100", "0", ObligationStatusPending},
		{"one paisa paid is still pending", "100", "0.01", ObligationStatusPending},
		{"two paisa paid is partial", "100", "0.02", ObligationStatusPartial},
		{"half paid", "100", "50", ObligationStatusPartial},
		{"exactly paid", "100", "100", ObligationStatusPaid},
		{"paid within tolerance", "100", "99.99", ObligationStatusPaid},
		{"short by two paisa", "100", "99.98", ObligationStatusPartial},
		{"overpaid is paid", "100", "100.50", ObligationStatusPaid},
		{"zero total zero paid", "0", "0", ObligationStatusPaid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := DeriveObligationStatus(dec(t, c.total), dec(t, c.paid))
			if got != c.want {
				t.Errorf("DeriveObligationStatus(%s, %s) = %s, want %s", c.total, c.paid, got, c.want)
			}
		})
	}
}

func TestObligationRemaining(t *testing.T) {
	o := &Obligation{
		TotalAmount: dec(t, "1500.00"),
		PaidAmount:  dec(t, "600.25"),
	}
	if got := o.Remaining(); !got.Equal(dec(t, "899.75")) {
		t.Errorf("Remaining() = %s, want 899.75", got)
	}

	// The pair (total, paid) is the source of truth; remaining is never stored,
	// so updating paid must be immediately visible.
	o.PaidAmount = dec(t, "1500.00")
	if got := o.Remaining(); !got.IsZero() {
		t.Errorf("Remaining() after full payment = %s, want 0", got)
	}
}

func TestStatusDerivationMatchesRemaining(t *testing.T) {
	// Whenever remaining is zero the status must be Paid and vice versa;
	// a Partial obligation always has both paid > tolerance and remaining > 0.
	totals := []string{"1", "99.99", "100", "2500.50"}
	paids := []string{"0", "0.01", "0.02", "50", "99.98", "99.99", "100", "2500.50", "9999"}
	for _, total := range totals {
		for _, paid := range paids {
			tot, pd := dec(t, total), dec(t, paid)
			status := DeriveObligationStatus(tot, pd)
			remaining := (&Obligation{TotalAmount: tot, PaidAmount: pd}).Remaining()
			switch status {
			case ObligationStatusPaid:
				if !remaining.IsZero() {
					t.Errorf("total=%s paid=%s: Paid but remaining=%s", total, paid, remaining)
				}
			case ObligationStatusPending, ObligationStatusPartial:
				if remaining.IsZero() {
					t.Errorf("total=%s paid=%s: %s but remaining is zero", total, paid, status)
				}
			}
		}
	}
}
