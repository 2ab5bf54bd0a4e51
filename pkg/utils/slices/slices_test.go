package slices_test

import (
	"testing"

	"github.com/mlopslab/mlreg/pkg/cmp"
	"github.com/mlopslab/mlreg/pkg/utils/slices"
)

func TestSliceUtils(t *testing.T) {
	t.Run("Map maps slice to another", func(t *testing.T) {
		input := []int{3, 5, 7, 11}
		called := 0
		mapper := func(v int) int {
			called += 1
			return v * 2
		}
		output := slices.Map(input, mapper)

		if called != len(input) {
			t.Errorf("mapper has not been called enough. (actual, expected) = (%d, %d)", called, len(input))
		}

		expected := []int{6, 10, 14, 22}
		if !cmp.SliceEq(output, expected) {
			t.Errorf("mapped result is wrong. (actual, expected) = (%v, %v)", output, expected)
		}
	})

	t.Run("Filter keeps only matching elements", func(t *testing.T) {
		input := []int{3, 4, 5, 6, 7, 8}
		output := slices.Filter(input, func(v int) bool { return v%2 == 0 })

		expected := []int{4, 6, 8}
		if !cmp.SliceEq(output, expected) {
			t.Errorf("filtered result is wrong. (actual, expected) = (%v, %v)", output, expected)
		}
	})

	t.Run("Filter of no matches is empty, not nil", func(t *testing.T) {
		output := slices.Filter([]int{1, 3, 5}, func(v int) bool { return v%2 == 0 })
		if output == nil || len(output) != 0 {
			t.Errorf("filtered result is wrong. (actual, expected) = (%v, %v)", output, []int{})
		}
	})
}
