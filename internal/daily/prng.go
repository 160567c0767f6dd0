package daily

import "math"

// PRNG is the sine-based generator driving all daily-deal randomness. It is
// deliberately low quality: outputs must stay reproducible against prior
// published sets, so the generator cannot change.
type PRNG struct {
	seed float64
}

func NewPRNG(seed float64) *PRNG {
	return &PRNG{seed: seed}
}

// Next returns a pseudo-random value in [0, 1).
func (p *PRNG) Next() float64 {
	x := math.Sin(p.seed) * 10000
	p.seed++
	return x - math.Floor(x)
}

// Intn returns a pseudo-random index in [0, n).
func (p *PRNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	idx := int(p.Next() * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// SeedFromDate sums the character codes of a UTC date string ("2026-08-28")
// into the numeric seed. Same day, same seed.
func SeedFromDate(date string) float64 {
	var sum float64
	for _, r := range date {
		sum += float64(r)
	}
	return sum
}
