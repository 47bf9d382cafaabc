package app_test

import (
	"math"
	"math/rand"
	"testing"

	"examprep-quiz/internal/app"
	"examprep-quiz/internal/domain"
)

func TestSampleSizeBound(t *testing.T) {
	sampler := app.NewSamplerWithSource(rand.NewSource(1))
	pool := questionPool(5)

	cases := []struct {
		size int
		want int
	}{
		{0, 0},
		{3, 3},
		{5, 5},
		{12, 5},
	}
	for _, tc := range cases {
		got := sampler.Sample(pool, tc.size)
		if len(got) != tc.want {
			t.Fatalf("size %d: expected %d questions, got %d", tc.size, tc.want, len(got))
		}
		seen := make(map[string]bool)
		for _, q := range got {
			if seen[q.ID] {
				t.Fatalf("size %d: duplicate question %s", tc.size, q.ID)
			}
			seen[q.ID] = true
			if !inPool(pool, q.ID) {
				t.Fatalf("size %d: question %s not from pool", tc.size, q.ID)
			}
		}
	}
}

func TestSampleEmptyPool(t *testing.T) {
	sampler := app.NewSamplerWithSource(rand.NewSource(1))
	if got := sampler.Sample(nil, 10); len(got) != 0 {
		t.Fatalf("expected empty sample, got %d", len(got))
	}
}

func TestSampleDoesNotMutatePool(t *testing.T) {
	sampler := app.NewSamplerWithSource(rand.NewSource(7))
	pool := questionPool(8)
	before := make([]string, len(pool))
	for i, q := range pool {
		before[i] = q.ID
	}
	for i := 0; i < 20; i++ {
		sampler.Sample(pool, 4)
	}
	for i, q := range pool {
		if q.ID != before[i] {
			t.Fatalf("pool reordered at %d: %s != %s", i, q.ID, before[i])
		}
	}
}

func TestSampleNegativeSizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for negative size")
		}
	}()
	app.NewSampler().Sample(questionPool(3), -1)
}

func TestSampleInclusionIsUniform(t *testing.T) {
	sampler := app.NewSamplerWithSource(rand.NewSource(42))
	pool := questionPool(10)
	const (
		size   = 3
		trials = 20000
	)
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		for _, q := range sampler.Sample(pool, size) {
			counts[q.ID]++
		}
	}
	want := float64(size) / float64(len(pool))
	for _, q := range pool {
		got := float64(counts[q.ID]) / trials
		if math.Abs(got-want) > 0.03 {
			t.Fatalf("question %s included with frequency %.3f, expected about %.3f", q.ID, got, want)
		}
	}

	// A size at least as large as the pool always includes everything.
	for i := 0; i < 100; i++ {
		if got := sampler.Sample(pool, 10); len(got) != len(pool) {
			t.Fatalf("expected full pool, got %d", len(got))
		}
	}
}

func TestSampleBankKeepsSectionOrder(t *testing.T) {
	sampler := app.NewSamplerWithSource(rand.NewSource(3))
	bank := []domain.Section{
		{Title: "A", Questions: questionPool(4)},
		{Title: "B"},
		{Title: "C", Questions: questionPool(2)},
	}
	got := sampler.SampleBank(bank, 3)
	if len(got) != 3 || got[0].Title != "A" || got[1].Title != "B" || got[2].Title != "C" {
		t.Fatalf("unexpected sections %+v", got)
	}
	if len(got[0].Questions) != 3 || len(got[1].Questions) != 0 || len(got[2].Questions) != 2 {
		t.Fatalf("unexpected section sizes %d/%d/%d", len(got[0].Questions), len(got[1].Questions), len(got[2].Questions))
	}
}

func inPool(pool []domain.Question, id string) bool {
	for _, q := range pool {
		if q.ID == id {
			return true
		}
	}
	return false
}
