package core

import (
	"math"
	"math/rand"
	"testing"
)

func buildDistribution(t *testing.T, weights []float64) *DiscreteDistribution {
	t.Helper()
	d := NewDiscreteDistribution(len(weights))
	for _, w := range weights {
		d.Append(w)
	}
	if err := d.Normalize(); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return d
}

func TestDistributionNormalizeZeroTotal(t *testing.T) {
	d := NewDiscreteDistribution(2)
	d.Append(0)
	d.Append(0)
	if err := d.Normalize(); err == nil {
		t.Error("Expected error normalizing all-zero weights")
	}

	empty := NewDiscreteDistribution(0)
	if err := empty.Normalize(); err == nil {
		t.Error("Expected error normalizing empty distribution")
	}
}

func TestDistributionAppendNegativePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for negative weight")
		}
	}()
	d := NewDiscreteDistribution(1)
	d.Append(-1.0)
}

func TestDistributionSampleEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic when sampling an empty distribution")
		}
	}()
	d := NewDiscreteDistribution(0)
	d.Sample(0.5)
}

func TestDistributionSampleBoundaries(t *testing.T) {
	d := buildDistribution(t, []float64{1, 1, 2})

	// Cumulative probabilities are 0.25, 0.5, 1.0
	cases := []struct {
		u    float64
		want int
	}{
		{0.0, 0},
		{0.2499, 0},
		{0.25, 1}, // smallest index whose cumulative probability exceeds u
		{0.4999, 1},
		{0.5, 2},
		{0.9999, 2},
	}
	for _, c := range cases {
		if got := d.Sample(c.u); got != c.want {
			t.Errorf("Sample(%v) = %d, want %d", c.u, got, c.want)
		}
	}
}

func TestDistributionPDF(t *testing.T) {
	d := buildDistribution(t, []float64{1, 3})
	if pdf := d.PDF(0); math.Abs(pdf-0.25) > 1e-12 {
		t.Errorf("PDF(0) = %v, want 0.25", pdf)
	}
	if pdf := d.PDF(1); math.Abs(pdf-0.75) > 1e-12 {
		t.Errorf("PDF(1) = %v, want 0.75", pdf)
	}
}

// Empirical frequencies of Sample must converge to w_i / sum(w) under a
// chi-squared criterion.
func TestDistributionSampleFrequencies(t *testing.T) {
	weights := []float64{1, 2, 3, 4}
	d := buildDistribution(t, weights)

	const draws = 100000
	random := rand.New(rand.NewSource(42))
	counts := make([]int, len(weights))
	for i := 0; i < draws; i++ {
		counts[d.Sample(random.Float64())]++
	}

	totalWeight := 0.0
	for _, w := range weights {
		totalWeight += w
	}

	chiSquared := 0.0
	for i, w := range weights {
		expected := float64(draws) * w / totalWeight
		diff := float64(counts[i]) - expected
		chiSquared += diff * diff / expected
	}

	// 3 degrees of freedom, 99.9% critical value
	if chiSquared > 16.27 {
		t.Errorf("Chi-squared %v exceeds critical value 16.27; counts=%v", chiSquared, counts)
	}
}

func TestSampleReusePDF(t *testing.T) {
	d := buildDistribution(t, []float64{1, 1})

	// u=0.75 lands in entry 1 (interval [0.5, 1.0]); residual rescales to 0.5
	index, pdf, reused := d.SampleReusePDF(0.75)
	if index != 1 {
		t.Errorf("Expected index 1, got %d", index)
	}
	if math.Abs(pdf-0.5) > 1e-12 {
		t.Errorf("Expected pdf 0.5, got %v", pdf)
	}
	if math.Abs(reused-0.5) > 1e-12 {
		t.Errorf("Expected reused 0.5, got %v", reused)
	}
}

// The reused random number must itself be uniform over [0,1) when u is
// uniform, with no correlation leak from the discrete choice.
func TestSampleReuseUniformity(t *testing.T) {
	d := buildDistribution(t, []float64{1, 2, 5, 0.5})

	const draws = 100000
	const buckets = 10
	random := rand.New(rand.NewSource(7))
	counts := make([]int, buckets)
	for i := 0; i < draws; i++ {
		_, _, reused := d.SampleReusePDF(random.Float64())
		if reused < 0 || reused >= 1 {
			t.Fatalf("Reused value %v outside [0,1)", reused)
		}
		counts[int(reused*buckets)]++
	}

	expected := float64(draws) / buckets
	chiSquared := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		chiSquared += diff * diff / expected
	}

	// 9 degrees of freedom, 99.9% critical value
	if chiSquared > 27.88 {
		t.Errorf("Reused values not uniform: chi-squared %v, counts=%v", chiSquared, counts)
	}
}

func TestSampleReuseZeroWeightEntriesNeverSelected(t *testing.T) {
	d := buildDistribution(t, []float64{0, 1, 0, 1})
	random := rand.New(rand.NewSource(3))
	for i := 0; i < 10000; i++ {
		index, pdf, _ := d.SampleReusePDF(random.Float64())
		if index == 0 || index == 2 {
			t.Fatalf("Selected zero-weight entry %d", index)
		}
		if math.Abs(pdf-0.5) > 1e-12 {
			t.Fatalf("Expected pdf 0.5, got %v", pdf)
		}
	}
}
