package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestProcessValidationErrors(t *testing.T) {
	type payload struct {
		ObligationId int    `validate:"required"`
		PaymentMode  string `validate:"required"`
	}

	v := validator.New()
	err := v.Struct(payload{})
	out := ProcessValidationErrors(err)

	if msg, ok := out["obligationId"]; !ok || !strings.Contains(msg, "required") {
		t.Fatalf("expected obligationId flagged as required, got %v", out)
	}
	if msg, ok := out["paymentMode"]; !ok || !strings.Contains(msg, "required") {
		t.Fatalf("expected paymentMode flagged as required, got %v", out)
	}
}

func TestProcessValidationErrorsNonValidator(t *testing.T) {
	out := ProcessValidationErrors(errors.New("unexpected EOF"))
	if out["error"] != "unexpected EOF" {
		t.Fatalf("expected raw message under error key, got %v", out)
	}
}

func TestLowercaseFirst(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"Amount", "amount"},
		{"paymentMode", "paymentMode"},
		{"A", "a"},
	}
	for _, c := range cases {
		if got := LowercaseFirst(c.in); got != c.want {
			t.Errorf("LowercaseFirst(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
