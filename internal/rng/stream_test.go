package rng

import "testing"

func TestNewIsDeterministic(t *testing.T) {
	a := New(42, 3)
	b := New(42, 3)
	for i := 0; i < 50; i++ {
		va := a.Float64()
		vb := b.Float64()
		if va != vb {
			t.Fatalf("draw %d diverged: %v != %v", i, va, vb)
		}
	}
}

func TestStreamsPerWorkerIndexDiffer(t *testing.T) {
	a := New(42, 0)
	b := New(42, 1)
	same := true
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("worker streams 0 and 1 produced identical sequences")
	}
}

func TestStreamsPerSeedDiffer(t *testing.T) {
	a := New(1, 0)
	b := New(2, 0)
	same := true
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different job seeds produced identical sequences")
	}
}

func TestUniformIntBounds(t *testing.T) {
	s := New(7, 0)
	for i := 0; i < 1000; i++ {
		v := s.UniformInt(3, 5)
		if v < 3 || v > 5 {
			t.Fatalf("UniformInt(3,5) returned out-of-range %d", v)
		}
	}
}

func TestUniformIntDegenerate(t *testing.T) {
	s := New(7, 0)
	if v := s.UniformInt(5, 5); v != 5 {
		t.Fatalf("UniformInt(5,5) = %d, want 5", v)
	}
	if v := s.UniformInt(5, 3); v != 5 {
		t.Fatalf("UniformInt(5,3) = %d, want min 5", v)
	}
}

func TestUniformFloatBounds(t *testing.T) {
	s := New(7, 0)
	for i := 0; i < 1000; i++ {
		v := s.UniformFloat(1.5, 2.5)
		if v < 1.5 || v >= 2.5 {
			t.Fatalf("UniformFloat(1.5,2.5) returned out-of-range %v", v)
		}
	}
}

func TestBoolEdgeProbabilities(t *testing.T) {
	s := New(7, 0)
	for i := 0; i < 20; i++ {
		if s.Bool(0) {
			t.Fatal("Bool(0) returned true")
		}
		if !s.Bool(1) {
			t.Fatal("Bool(1) returned false")
		}
	}
}

func TestCategoricalNegativeOrZeroWeights(t *testing.T) {
	s := New(7, 0)
	if idx := s.Categorical([]float64{0, 0, 0}); idx != -1 {
		t.Fatalf("Categorical(all zero) = %d, want -1", idx)
	}
	if idx := s.Categorical(nil); idx != -1 {
		t.Fatalf("Categorical(nil) = %d, want -1", idx)
	}
}

func TestCategoricalSingleBucket(t *testing.T) {
	s := New(7, 0)
	for i := 0; i < 20; i++ {
		if idx := s.Categorical([]float64{0, 5, 0}); idx != 1 {
			t.Fatalf("Categorical with a single positive weight = %d, want 1", idx)
		}
	}
}

func TestCategoricalDistribution(t *testing.T) {
	s := New(123, 0)
	counts := make([]int, 3)
	const n = 20000
	for i := 0; i < n; i++ {
		idx := s.Categorical([]float64{1, 2, 1})
		if idx < 0 || idx > 2 {
			t.Fatalf("Categorical returned out-of-range index %d", idx)
		}
		counts[idx]++
	}
	// Expect roughly 25/50/25 split; allow generous tolerance since this is
	// a statistical property, not an exact one.
	frac0 := float64(counts[0]) / n
	frac1 := float64(counts[1]) / n
	if frac0 < 0.20 || frac0 > 0.30 {
		t.Fatalf("bucket 0 fraction %v outside expected range", frac0)
	}
	if frac1 < 0.45 || frac1 > 0.55 {
		t.Fatalf("bucket 1 fraction %v outside expected range", frac1)
	}
}
