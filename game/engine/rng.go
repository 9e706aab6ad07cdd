package engine

// SeededStream is a mulberry32 generator. The output must stay bit-identical
// for a given seed: day reproducibility depends on it.
type SeededStream struct {
	state uint32
	seed  uint32
	calls int64
}

// NewSeededStream creates a stream positioned at the start of seed's sequence
func NewSeededStream(seed uint32) *SeededStream {
	return &SeededStream{state: seed, seed: seed}
}

// Uint32 advances the stream and returns the next raw 32-bit word
func (s *SeededStream) Uint32() uint32 {
	s.state += 0x6D2B79F5
	s.calls++
	t := s.state
	r := (t ^ (t >> 15)) * (t | 1)
	r ^= r + (r^(r>>7))*(r|61)
	return r ^ (r >> 14)
}

// Float64 returns the next value in [0, 1)
func (s *SeededStream) Float64() float64 {
	return float64(s.Uint32()) / 4294967296.0
}

// Intn returns floor(Float64() * n). n must be positive.
func (s *SeededStream) Intn(n int) int {
	return int(s.Float64() * float64(n))
}

// Seed returns the seed the stream was created with
func (s *SeededStream) Seed() uint32 {
	return s.seed
}

// Calls returns how many values have been drawn
func (s *SeededStream) Calls() int64 {
	return s.calls
}

// DaySeed derives the seed for a day
func DaySeed(day int) uint32 {
	return BaseSeed + uint32(day)
}
