package quantum

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// MaxSimulatorQubits caps the statevector size at 2^24 amplitudes, roughly
// 256 MiB of complex128 state. Larger registers belong on a remote backend.
const MaxSimulatorQubits = 24

// Simulator is a dense statevector simulator. It is not safe for concurrent
// use; the local backend creates one per job.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator creates a simulator seeded from seed. A fixed seed gives
// reproducible sampling, which the tests rely on.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Run executes the circuit and samples shots measurement outcomes over all
// qubits. The returned counts map bitstrings (most significant qubit first)
// to observed frequencies; frequencies always sum to shots.
func (s *Simulator) Run(c *Circuit, shots int) (map[string]int, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid circuit: %w", err)
	}
	if c.Qubits > MaxSimulatorQubits {
		return nil, fmt.Errorf("circuit uses %d qubits, simulator supports at most %d",
			c.Qubits, MaxSimulatorQubits)
	}
	if shots <= 0 {
		return nil, fmt.Errorf("shots must be positive, got %d", shots)
	}

	state := make([]complex128, 1<<uint(c.Qubits))
	state[0] = 1

	for _, g := range c.Gates {
		applyGate(state, c.Qubits, g)
	}

	return s.sample(state, c.Qubits, shots), nil
}

// applyGate applies one gate to the statevector in place. Qubit q is the
// bit at position (n-1-q) of the basis index, so bitstrings read qubit 0
// first.
func applyGate(state []complex128, n int, g Gate) {
	switch g.Name {
	case GateH:
		bit := 1 << uint(n-1-g.Qubits[0])
		inv := complex(1/math.Sqrt2, 0)
		for i := range state {
			if i&bit == 0 {
				a, b := state[i], state[i|bit]
				state[i] = inv * (a + b)
				state[i|bit] = inv * (a - b)
			}
		}
	case GateX:
		bit := 1 << uint(n-1-g.Qubits[0])
		for i := range state {
			if i&bit == 0 {
				state[i], state[i|bit] = state[i|bit], state[i]
			}
		}
	case GateZ:
		bit := 1 << uint(n-1-g.Qubits[0])
		for i := range state {
			if i&bit != 0 {
				state[i] = -state[i]
			}
		}
	case GateCX:
		ctl := 1 << uint(n-1-g.Qubits[0])
		tgt := 1 << uint(n-1-g.Qubits[1])
		for i := range state {
			if i&ctl != 0 && i&tgt == 0 {
				state[i], state[i|tgt] = state[i|tgt], state[i]
			}
		}
	case GateCZ:
		ctl := 1 << uint(n-1-g.Qubits[0])
		tgt := 1 << uint(n-1-g.Qubits[1])
		for i := range state {
			if i&ctl != 0 && i&tgt != 0 {
				state[i] = -state[i]
			}
		}
	case GateSwap:
		a := 1 << uint(n-1-g.Qubits[0])
		b := 1 << uint(n-1-g.Qubits[1])
		for i := range state {
			if i&a != 0 && i&b == 0 {
				state[i], state[i&^a|b] = state[i&^a|b], state[i]
			}
		}
	}
}

// sample draws shots outcomes from the statevector's probability
// distribution using inverse transform sampling over the cumulative
// distribution.
func (s *Simulator) sample(state []complex128, n, shots int) map[string]int {
	cumulative := make([]float64, len(state))
	total := 0.0
	for i, amp := range state {
		total += real(amp)*real(amp) + imag(amp)*imag(amp)
		cumulative[i] = total
	}

	counts := make(map[string]int)
	for shot := 0; shot < shots; shot++ {
		r := s.rng.Float64() * total
		idx := sort.SearchFloat64s(cumulative, r)
		if idx >= len(state) {
			idx = len(state) - 1
		}
		counts[bitstring(idx, n)]++
	}
	return counts
}

// bitstring formats basis index i as an n-bit string, qubit 0 leftmost.
func bitstring(i, n int) string {
	buf := make([]byte, n)
	for b := 0; b < n; b++ {
		if i&(1<<uint(n-1-b)) != 0 {
			buf[b] = '1'
		} else {
			buf[b] = '0'
		}
	}
	return string(buf)
}
