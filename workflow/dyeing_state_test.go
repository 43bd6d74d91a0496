package workflow

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/textile_backend/models"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"github.com/shopspring/decimal"
)

func TestValidateDyeingRunAction(t *testing.T) {
	cases := []struct {
		name          string
		current       models.DyeingRunStatus
		posted        models.InventoryPostStatus
		requested     models.DyeingRunStatus
		post          bool
		transitioning bool
		wantErr       bool
	}{
		{"pending to completed", models.DyeingRunStatusPending, models.InventoryPostStatusPending, models.DyeingRunStatusCompleted, true, true, false},
		{"pending to partial", models.DyeingRunStatusPending, models.InventoryPostStatusPending, models.DyeingRunStatusPartial, false, true, false},
		{"pending to failed", models.DyeingRunStatusPending, models.InventoryPostStatusPending, models.DyeingRunStatusFailed, false, true, false},
		{"partial to completed", models.DyeingRunStatusPartial, models.InventoryPostStatusPending, models.DyeingRunStatusCompleted, true, true, false},
		{"completed without posting is terminal", models.DyeingRunStatusCompleted, models.InventoryPostStatusPending, models.DyeingRunStatusCompleted, false, false, true},
		{"failed is terminal", models.DyeingRunStatusFailed, models.InventoryPostStatusPending, models.DyeingRunStatusCompleted, false, false, true},
		{"posting retry on completed run", models.DyeingRunStatusCompleted, models.InventoryPostStatusPending, models.DyeingRunStatusCompleted, true, false, false},
		{"posting retry on failed run rejected", models.DyeingRunStatusFailed, models.InventoryPostStatusPending, models.DyeingRunStatusFailed, true, false, true},
		{"second posting blocked", models.DyeingRunStatusCompleted, models.InventoryPostStatusAdded, models.DyeingRunStatusCompleted, true, false, true},
		{"transition with posting after already posted blocked", models.DyeingRunStatusPartial, models.InventoryPostStatusAdded, models.DyeingRunStatusCompleted, true, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			transitioning, err := validateDyeingRunAction(c.current, c.posted, c.requested, c.post)
			if c.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var transitionErr *utils.InvalidTransitionError
				if !errors.As(err, &transitionErr) {
					t.Fatalf("expected InvalidTransitionError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if transitioning != c.transitioning {
				t.Errorf("transitioning = %v, want %v", transitioning, c.transitioning)
			}
		})
	}
}

func TestWastagePercent(t *testing.T) {
	cases := []struct {
		input  string
		output string
		want   string
	}{
		{"100", "95", "5"},
		{"100", "100", "0"},
		{"100", "0", "100"},
		{"320", "298.4", "6.75"},
		{"3", "1", "66.67"}, // rounded to 2 places
		{"0", "0", "0"},     // guard against divide by zero
	}
	for _, c := range cases {
		in, err := decimal.NewFromString(c.input)
		if err != nil {
			t.Fatal(err)
		}
		out, err := decimal.NewFromString(c.output)
		if err != nil {
			t.Fatal(err)
		}
		want, err := decimal.NewFromString(c.want)
		if err != nil {
			t.Fatal(err)
		}
		if got := wastagePercent(in, out); !got.Equal(want) {
			t.Errorf("wastagePercent(%s, %s) = %s, want %s", c.input, c.output, got, want)
		}
	}
}
