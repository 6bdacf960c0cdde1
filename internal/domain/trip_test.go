package domain

import (
	"errors"
	"math"
	"testing"
)

func TestCheckBudget(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want error
	}{
		{800, nil},
		{800.5, nil},
		{800.55, nil},
		{0.01, nil},
		{MaxBudget, nil},
		{0, ErrBudgetNotPositive},
		{-10, ErrBudgetNotPositive},
		{math.NaN(), ErrBudgetNotPositive},
		{800.555, ErrBudgetPrecision},
		{0.001, ErrBudgetPrecision},
		{1e10, ErrBudgetTooLarge},
		{math.Inf(1), ErrBudgetTooLarge},
	}
	for _, tc := range cases {
		if got := CheckBudget(tc.in); !errors.Is(got, tc.want) {
			t.Fatalf("CheckBudget(%v)=%v want=%v", tc.in, got, tc.want)
		}
	}
}
