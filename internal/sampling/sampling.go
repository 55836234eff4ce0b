// Package sampling selects a bounded, distribution-weighted subset of a
// primary-key population.
package sampling

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/ElaineAng/db-fork/internal/types"
)

// ErrInvalidArgument is returned for out-of-range sampling parameters or a
// distribution that does not honor its contract.
var ErrInvalidArgument = errors.New("invalid argument")

// Options is an immutable sampling request. It is passed by value.
type Options struct {
	Rate         float64
	Cap          int
	Distribution Distribution
	SortKeyIndex int
}

// SampleSize returns max(1, min(cap, floor(populationSize*rate))).
func SampleSize(populationSize int, rate float64, cap int) int {
	n := int(math.Floor(float64(populationSize) * rate))
	return max(1, min(cap, n))
}

// SampledIndices draws SampleSize(...) indices into a population of the given
// size. Each distribution value v maps to floor(v * (populationSize-1)).
// Duplicates are kept so the requested shape survives.
func SampledIndices(populationSize int, rate float64, cap int, dist Distribution) ([]int, error) {
	if !(rate > 0 && rate <= 1.0) {
		return nil, fmt.Errorf("%w: sampling rate must be in (0, 1], got %v", ErrInvalidArgument, rate)
	}
	if cap < 1 {
		return nil, fmt.Errorf("%w: sampling cap must be positive, got %d", ErrInvalidArgument, cap)
	}
	if populationSize < 1 {
		return nil, fmt.Errorf("%w: population is empty", ErrInvalidArgument)
	}
	if dist == nil {
		return nil, fmt.Errorf("%w: distribution is nil", ErrInvalidArgument)
	}

	size := SampleSize(populationSize, rate, cap)
	raw := dist.Sample(size)
	if len(raw) != size {
		return nil, fmt.Errorf("%w: distribution returned %d values, want %d", ErrInvalidArgument, len(raw), size)
	}

	scale := float64(populationSize - 1)
	indices := make([]int, size)
	for i, v := range raw {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return nil, fmt.Errorf("%w: distribution value %v outside [0, 1]", ErrInvalidArgument, v)
		}
		indices[i] = int(math.Floor(v * scale))
	}
	return indices, nil
}

// SortPopulation sorts keys ascending by the column at keyIndex. Ties fall
// back to the natural ordering of the whole tuple, and the sort is stable.
func SortPopulation(population []types.Key, keyIndex int) error {
	if keyIndex < 0 {
		return fmt.Errorf("%w: sort key index %d is negative", ErrInvalidArgument, keyIndex)
	}
	for _, k := range population {
		if keyIndex >= len(k) {
			return fmt.Errorf("%w: sort key index %d exceeds key arity %d", ErrInvalidArgument, keyIndex, len(k))
		}
	}

	slices.SortStableFunc(population, func(a, b types.Key) int {
		if c := types.CompareValues(a[keyIndex], b[keyIndex]); c != 0 {
			return c
		}
		return a.Compare(b)
	})
	return nil
}

// Select sorts population in place by opts.SortKeyIndex and returns the keys
// at the sampled indices, in sample order.
func Select(population []types.Key, opts Options) ([]types.Key, error) {
	if err := SortPopulation(population, opts.SortKeyIndex); err != nil {
		return nil, err
	}
	indices, err := SampledIndices(len(population), opts.Rate, opts.Cap, opts.Distribution)
	if err != nil {
		return nil, err
	}

	picked := make([]types.Key, len(indices))
	for i, idx := range indices {
		picked[i] = population[idx]
	}
	return picked, nil
}
