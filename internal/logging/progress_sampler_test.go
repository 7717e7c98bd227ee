package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	s := NewProgressSampler(0, -1)
	if s.bucketSize != 5 {
		t.Fatalf("bucketSize = %v, want 5", s.bucketSize)
	}
	if s.byteStep != defaultByteStep {
		t.Fatalf("byteStep = %d, want %d", s.byteStep, defaultByteStep)
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(10, 100) {
		t.Fatal("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerKnownTotal(t *testing.T) {
	s := NewProgressSampler(10, 0)
	steps := []struct {
		written int64
		want    bool
	}{
		{0, true},
		{5, false},
		{9, false},
		{10, true},
		{15, false},
		{35, true},
		{36, false},
		{100, true},
		{100, false},
	}
	for _, step := range steps {
		if got := s.ShouldLog(step.written, 100); got != step.want {
			t.Fatalf("ShouldLog(%d, 100) = %v, want %v", step.written, got, step.want)
		}
	}
}

func TestProgressSamplerUnknownTotal(t *testing.T) {
	s := NewProgressSampler(10, 1000)
	if !s.ShouldLog(100, -1) {
		t.Fatal("first sample should log")
	}
	if s.ShouldLog(999, -1) {
		t.Fatal("sample inside the first step should not log")
	}
	if !s.ShouldLog(1000, -1) {
		t.Fatal("crossing a byte step should log")
	}
	if s.ShouldLog(1500, -1) {
		t.Fatal("sample inside the second step should not log")
	}
}

func TestProgressSamplerReset(t *testing.T) {
	s := NewProgressSampler(50, 0)
	s.ShouldLog(10, 100)
	if s.ShouldLog(20, 100) {
		t.Fatal("expected same bucket to be suppressed")
	}
	s.Reset()
	if !s.ShouldLog(20, 100) {
		t.Fatal("expected first sample after reset to log")
	}
}
