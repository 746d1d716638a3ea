// Package entropy seeds the simulation's random sources. A configured
// seed is used as given; zero draws one from crypto/rand.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	mrand "math/rand"
	"time"
)

// CryptoSeed returns a seed read from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but the clock is a usable fallback.
		slog.Warn("crypto seed unavailable, using clock", "error", err)
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}

// Seed returns configured, or a fresh crypto seed when it is zero.
func Seed(configured int64) int64 {
	if configured != 0 {
		return configured
	}
	return CryptoSeed()
}

// Streams holds one generator per stochastic subsystem so that they do
// not perturb each other's sequences.
type Streams struct {
	Seed    int64
	Weather *mrand.Rand
	Noise   int64 // seed for the wind noise field
	Economy *mrand.Rand
	Spawner *mrand.Rand
}

// NewStreams derives every subsystem stream from seed.
func NewStreams(seed int64) Streams {
	master := mrand.New(mrand.NewSource(seed))
	return Streams{
		Seed:    seed,
		Weather: mrand.New(mrand.NewSource(master.Int63())),
		Noise:   master.Int63(),
		Economy: mrand.New(mrand.NewSource(master.Int63())),
		Spawner: mrand.New(mrand.NewSource(master.Int63())),
	}
}
