package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrZeroDistribution is returned by Normalize when all weights are zero.
var ErrZeroDistribution = errors.New("discrete distribution: total weight is zero")

// DiscreteDistribution is a prefix-sum-based categorical sampler over
// non-negative weights. Weights are accumulated with Append, then Normalize
// must be called once before sampling; the total is never recomputed
// implicitly. Sampling an empty or unnormalized distribution panics;
// callers guard on emptiness.
type DiscreteDistribution struct {
	cdf        []float64 // Unnormalized cumulative sums
	sum        float64   // Total weight, cached by Normalize
	normalized bool
}

// NewDiscreteDistribution creates an empty distribution with capacity for n entries
func NewDiscreteDistribution(n int) *DiscreteDistribution {
	return &DiscreteDistribution{cdf: make([]float64, 0, n)}
}

// Append adds an entry with the given weight. Weights must be non-negative.
func (d *DiscreteDistribution) Append(weight float64) {
	if weight < 0 {
		panic(fmt.Sprintf("discrete distribution: negative weight %g", weight))
	}
	var prev float64
	if len(d.cdf) > 0 {
		prev = d.cdf[len(d.cdf)-1]
	}
	d.cdf = append(d.cdf, prev+weight)
	d.normalized = false
}

// Count returns the number of entries
func (d *DiscreteDistribution) Count() int {
	return len(d.cdf)
}

// Sum returns the total weight computed by the last Normalize call
func (d *DiscreteDistribution) Sum() float64 {
	return d.sum
}

// Normalize caches the total weight and enables sampling.
// Returns ErrZeroDistribution if the total is zero.
func (d *DiscreteDistribution) Normalize() error {
	if len(d.cdf) == 0 {
		return ErrZeroDistribution
	}
	d.sum = d.cdf[len(d.cdf)-1]
	if d.sum <= 0 {
		return ErrZeroDistribution
	}
	d.normalized = true
	return nil
}

// PDF returns the normalized probability of entry i
func (d *DiscreteDistribution) PDF(i int) float64 {
	d.mustBeSampleable()
	lo := 0.0
	if i > 0 {
		lo = d.cdf[i-1]
	}
	return (d.cdf[i] - lo) / d.sum
}

// Sample maps a uniform u in [0,1) to the smallest index whose cumulative
// probability exceeds u, via binary search over the prefix-sum table
func (d *DiscreteDistribution) Sample(u float64) int {
	d.mustBeSampleable()
	scaled := u * d.sum
	index := sort.Search(len(d.cdf), func(i int) bool { return d.cdf[i] > scaled })
	if index >= len(d.cdf) {
		index = len(d.cdf) - 1
	}
	return index
}

// SampleReusePDF samples like Sample and additionally returns the selected
// entry's normalized probability together with a fresh uniform value obtained
// by rescaling the residual of u within the selected cumulative interval, so
// that one random number serves both the discrete choice and a continuous
// offset without correlation.
func (d *DiscreteDistribution) SampleReusePDF(u float64) (index int, pdf float64, reused float64) {
	index = d.Sample(u)

	lo := 0.0
	if index > 0 {
		lo = d.cdf[index-1]
	}
	width := d.cdf[index] - lo
	pdf = width / d.sum

	reused = (u*d.sum - lo) / width
	if reused < 0 {
		reused = 0
	} else if reused >= 1 {
		reused = math.Nextafter(1, 0)
	}
	return index, pdf, reused
}

func (d *DiscreteDistribution) mustBeSampleable() {
	if len(d.cdf) == 0 {
		panic("discrete distribution: sampling an empty distribution")
	}
	if !d.normalized {
		panic("discrete distribution: Normalize must be called before sampling")
	}
}
