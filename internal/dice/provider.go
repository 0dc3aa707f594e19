package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mathrand "math/rand/v2"
	"sync"
)

//go:generate mockgen -destination=mock/mock.go -package=dicemock github.com/KirkDiggler/tta-core/internal/dice Provider

// Provider is the RNG port. Implementations must return n values, each in
// [1, sides].
type Provider interface {
	Roll(n, sides int) []int
}

// CryptoProvider rolls with cryptographic randomness. This is the default
// provider for live play.
type CryptoProvider struct{}

// NewCryptoProvider returns the default cryptographic provider
func NewCryptoProvider() *CryptoProvider {
	return &CryptoProvider{}
}

// Roll returns n uniform values in [1, sides]
func (p *CryptoProvider) Roll(n, sides int) []int {
	results := make([]int, n)
	for i := range results {
		v, err := rand.Int(rand.Reader, big.NewInt(int64(sides)))
		if err != nil {
			// crypto/rand should never fail on a properly configured system
			panic(fmt.Sprintf("crypto/rand failed: %v", err))
		}
		results[i] = int(v.Int64()) + 1
	}
	return results
}

// SeededProvider rolls with a deterministic PRNG. Identical seeds produce
// identical roll sequences, which tests rely on.
type SeededProvider struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeededProvider returns a deterministic provider for the given seed
func NewSeededProvider(seed uint64) *SeededProvider {
	return &SeededProvider{
		rng: mathrand.New(mathrand.NewPCG(seed, 0)),
	}
}

// Roll returns n pseudorandom values in [1, sides]
func (p *SeededProvider) Roll(n, sides int) []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]int, n)
	for i := range results {
		results[i] = p.rng.IntN(sides) + 1
	}
	return results
}

// ScriptedProvider returns a fixed sequence of values regardless of die
// size. Test-only: lets scenarios state "the d20 rolls 20, then 5, 7".
type ScriptedProvider struct {
	mu     sync.Mutex
	values []int
	pos    int
}

// NewScriptedProvider returns a provider that replays the given values
func NewScriptedProvider(values ...int) *ScriptedProvider {
	return &ScriptedProvider{values: values}
}

// Roll returns the next n scripted values, clamping each to [1, sides]
func (p *ScriptedProvider) Roll(n, sides int) []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]int, n)
	for i := range results {
		if p.pos >= len(p.values) {
			results[i] = 1
			continue
		}
		v := p.values[p.pos]
		p.pos++
		if v < 1 {
			v = 1
		}
		if v > sides {
			v = sides
		}
		results[i] = v
	}
	return results
}
