package engine

// rng is a 64-bit linear-congruential generator. The generator is part of the
// reproducibility contract: a service seeded with the same value produces the
// same genetic and annealing trajectories, and therefore the same result, on
// every platform. Do not replace it with math/rand.
type rng struct {
	state uint64
}

// Knuth MMIX multiplier and increment.
const (
	lcgMul = 6364136223846793005
	lcgInc = 1442695040888963407
)

func newRNG(seed int64) *rng {
	return &rng{state: uint64(seed)}
}

func (r *rng) next() uint64 {
	r.state = r.state*lcgMul + lcgInc
	return r.state
}

// Float64 returns a value in [0, 1).
func (r *rng) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// Intn returns a value in [0, n). n must be positive. The draw comes from
// the high bits via Float64; the low bits of a power-of-two-modulus LCG
// cycle with tiny periods and must never feed a modulo.
func (r *rng) Intn(n int) int {
	return int(r.Float64() * float64(n))
}

// Perm returns a random permutation of [0, n) via Fisher-Yates.
func (r *rng) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}
