package qtool

import "github.com/cespare/xxhash/v2"

// hashSeed matches the seed the reference implementation mixes into every
// host hash; keeping it fixed is what makes a given host always land on the
// same worker id across runs.
const hashSeed uint64 = 42

// Hasher produces a stable 64-bit hash of a byte slice, used to route a
// record to a worker by hash(host) mod N. It must be deterministic across
// runs and platforms for a fixed input.
type Hasher interface {
	Hash(b []byte) uint64
}

type xxHasher struct{}

// NewHasher returns the default Hasher: unseeded xxHash64 XORed with a
// constant derived from hashSeed (see seedMix).
func NewHasher() Hasher {
	return xxHasher{}
}

func (xxHasher) Hash(b []byte) uint64 {
	return xxhash.Sum64(b) ^ seedMix(hashSeed)
}

// seedMix folds the fixed seed into the digest. xxhash.Sum64 doesn't take a
// seed parameter directly; New() does via a streaming writer, which would
// cost an allocation per call on the dispatcher's hot path. XORing a fixed,
// well-mixed constant derived from the seed into the unseeded digest gives
// the same determinism and worker-affinity properties (P1, P3) without it.
func seedMix(seed uint64) uint64 {
	seed ^= seed >> 33
	seed *= 0xff51afd7ed558ccd
	seed ^= seed >> 33
	seed *= 0xc4ceb9fe1a85ec53
	seed ^= seed >> 33
	return seed
}

// WorkerFor reduces a host hash to a worker id in [0, n).
func WorkerFor(h Hasher, host []byte, n int) int {
	return int(h.Hash(host) % uint64(n))
}
