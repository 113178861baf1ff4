package exploit

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/module"
	"github.com/maurorisonho/Houdinis-sub002/internal/option"
	"github.com/maurorisonho/Houdinis-sub002/internal/quantum"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// GroverKey searches a reduced keyspace for a known-plaintext key with
// Grover amplitude amplification.
type GroverKey struct {
	module.Base
}

// NewGroverKey creates the exploit/grover_key module.
func NewGroverKey() *GroverKey {
	opts := option.NewSet()
	_ = opts.Define(option.Option{
		Name:        "KEYBITS",
		Kind:        option.KindInt,
		Required:    true,
		Default:     "8",
		Description: "Width of the searched keyspace in bits",
		Min:         option.IntPtr(2),
		Max:         option.IntPtr(quantum.MaxSimulatorQubits),
	})
	_ = opts.Define(option.Option{
		Name:        "TARGET_KEY",
		Kind:        option.KindString,
		Required:    true,
		Description: "Key bitstring the oracle marks (e.g. 10110010)",
	})

	return &GroverKey{Base: module.Base{
		ModuleID:       "exploit/grover_key",
		ModuleCategory: "exploit",
		Name:           "Grover Key Search",
		Summary:        "Brute-forces a reduced symmetric keyspace with Grover search",
		Opts:           opts,
	}}
}

// Validate implements module.Module. TARGET_KEY must be a bitstring of
// exactly KEYBITS characters.
func (m *GroverKey) Validate(s module.Session) error {
	bits, err := s.OptionInt("KEYBITS")
	if err != nil {
		return err
	}
	target, err := s.Option("TARGET_KEY")
	if err != nil {
		return err
	}

	if len(target) != bits {
		return types.NewError(types.OPTION_VALIDATION_FAILED,
			fmt.Sprintf("TARGET_KEY is %d characters but KEYBITS is %d", len(target), bits))
	}
	if strings.Trim(target, "01") != "" {
		return types.NewError(types.OPTION_VALIDATION_FAILED,
			"TARGET_KEY must contain only 0 and 1")
	}

	if _, err := s.Shots(); err != nil {
		return err
	}
	return nil
}

// Run implements module.Module.
func (m *GroverKey) Run(ctx context.Context, s module.Session) (*backend.Result, error) {
	bits, err := s.OptionInt("KEYBITS")
	if err != nil {
		return nil, err
	}
	target, err := s.Option("TARGET_KEY")
	if err != nil {
		return nil, err
	}
	shots, err := s.Shots()
	if err != nil {
		return nil, err
	}

	iterations := groverIterations(bits)
	circuit := groverCircuit(target, iterations)
	spec := backend.JobSpec{
		Module:  m.ID(),
		Circuit: circuit,
		Shots:   shots,
		Metadata: map[string]string{
			"keybits":    fmt.Sprintf("%d", bits),
			"iterations": fmt.Sprintf("%d", iterations),
		},
	}

	result, _, err := s.Backends().Execute(ctx, s.BackendID(), spec, s.Timeout(), m.FallbackEligible())
	if err != nil {
		return nil, err
	}

	best, bestCount := topOutcome(result.Counts)
	result.Metadata["keybits"] = bits
	result.Metadata["grover_iterations"] = iterations
	result.Metadata["candidate_key"] = best
	result.Metadata["key_found"] = best == target
	if best == target {
		s.Logger().Info("key recovered", "module", m.ID(),
			"key", best, "hits", bestCount, "shots", shots)
	}
	return result, nil
}

// groverIterations is the optimal amplification round count
// floor(pi/4 * sqrt(2^bits)) for a single marked element.
func groverIterations(bits int) int {
	n := math.Pow(2, float64(bits))
	iters := int(math.Floor(math.Pi / 4 * math.Sqrt(n)))
	if iters < 1 {
		iters = 1
	}
	return iters
}

// groverCircuit prepares the uniform superposition, then alternates the
// phase oracle for target with the diffusion operator.
func groverCircuit(target string, iterations int) *quantum.Circuit {
	n := len(target)
	c := quantum.NewCircuit(n)

	for q := 0; q < n; q++ {
		c.H(q)
	}

	for i := 0; i < iterations; i++ {
		// Oracle: flip the phase of |target>. Zero bits are conjugated
		// with X so a CZ ladder marks exactly the target string.
		for q, ch := range target {
			if ch == '0' {
				c.X(q)
			}
		}
		if n == 1 {
			c.Z(0)
		} else {
			for q := 0; q < n-1; q++ {
				c.CZ(q, n-1)
			}
		}
		for q, ch := range target {
			if ch == '0' {
				c.X(q)
			}
		}

		// Diffusion: reflect about the mean.
		for q := 0; q < n; q++ {
			c.H(q)
			c.X(q)
		}
		if n == 1 {
			c.Z(0)
		} else {
			for q := 0; q < n-1; q++ {
				c.CZ(q, n-1)
			}
		}
		for q := 0; q < n; q++ {
			c.X(q)
			c.H(q)
		}
	}
	return c
}

// topOutcome returns the most frequent bitstring in counts.
func topOutcome(counts map[string]int) (string, int) {
	best, bestCount := "", -1
	for bits, count := range counts {
		if count > bestCount || (count == bestCount && bits < best) {
			best, bestCount = bits, count
		}
	}
	return best, bestCount
}
