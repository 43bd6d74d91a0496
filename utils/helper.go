package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm/clause"
)

func ForUpdateClause() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

// ProcessValidationErrors flattens validator.v10 errors into field:message
// pairs for 400 responses.
func ProcessValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		out["error"] = err.Error()
		return out
	}
	for _, fieldErr := range validationErrors {
		out[LowercaseFirst(fieldErr.Field())] = fmt.Sprintf("failed on '%s'", fieldErr.Tag())
	}
	return out
}

func LowercaseFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// GenerateReferenceNumber builds a short unique reference like "TXN-20240610-4F2A".
func GenerateReferenceNumber(prefix string, at time.Time) string {
	b := make([]byte, 2)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s-%s-%02X%02X", prefix, at.Format("20060102"), b[0], b[1])
}
