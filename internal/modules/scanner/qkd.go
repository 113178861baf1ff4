// Package scanner contains reconnaissance-style modules that probe targets
// without breaking key material.
package scanner

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/module"
	"github.com/maurorisonho/Houdinis-sub002/internal/option"
	"github.com/maurorisonho/Houdinis-sub002/internal/quantum"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// qkdBlockQubits is the number of channel qubits modeled per run.
const qkdBlockQubits = 8

// QKDSniff simulates an intercept-resend eavesdropper on a BB84 quantum
// key distribution channel and estimates the error rate the attack would
// induce. It is fallback-eligible: the estimate is just as meaningful on
// the local simulator when the configured remote backend is down.
type QKDSniff struct {
	module.Base
}

// NewQKDSniff creates the scanner/qkd_sniff module.
func NewQKDSniff() *QKDSniff {
	opts := option.NewSet()
	_ = opts.Define(option.Option{
		Name:        "RHOST",
		Kind:        option.KindString,
		Required:    true,
		Description: "Host operating the QKD channel under test",
	})
	_ = opts.Define(option.Option{
		Name:        "RPORT",
		Kind:        option.KindInt,
		Default:     "8443",
		Description: "QKD channel port",
		Min:         option.IntPtr(1),
		Max:         option.IntPtr(65535),
	})
	_ = opts.Define(option.Option{
		Name:        "INTERCEPT_RATE",
		Kind:        option.KindInt,
		Default:     "100",
		Description: "Percentage of channel qubits intercepted",
		Min:         option.IntPtr(1),
		Max:         option.IntPtr(100),
	})
	_ = opts.Define(option.Option{
		Name:        "BASIS_SEED",
		Kind:        option.KindInt,
		Default:     "0",
		Description: "Seed for basis selection; 0 picks randomly per run",
	})

	return &QKDSniff{Base: module.Base{
		ModuleID:       "scanner/qkd_sniff",
		ModuleCategory: "scanner",
		Name:           "QKD Intercept-Resend Probe",
		Summary:        "Estimates the QBER an intercept-resend eavesdropper induces on a BB84 channel",
		Fallback:       true,
		Opts:           opts,
	}}
}

// Validate implements module.Module.
func (m *QKDSniff) Validate(s module.Session) error {
	host, err := s.Option("RHOST")
	if err != nil {
		return err
	}
	if host == "" {
		return types.NewError(types.OPTION_REQUIRED_UNSET, "required option RHOST is not set")
	}
	if _, err := s.OptionInt("RPORT"); err != nil {
		return err
	}
	if _, err := s.Shots(); err != nil {
		return err
	}
	return nil
}

// Run implements module.Module.
func (m *QKDSniff) Run(ctx context.Context, s module.Session) (*backend.Result, error) {
	host, err := s.Option("RHOST")
	if err != nil {
		return nil, err
	}
	port, err := s.OptionInt("RPORT")
	if err != nil {
		return nil, err
	}
	interceptRate, err := s.OptionInt("INTERCEPT_RATE")
	if err != nil {
		return nil, err
	}
	seed, err := s.OptionInt("BASIS_SEED")
	if err != nil {
		return nil, err
	}
	shots, err := s.Shots()
	if err != nil {
		return nil, err
	}

	circuit, intercepted := interceptCircuit(interceptRate, int64(seed))
	spec := backend.JobSpec{
		Module:  m.ID(),
		Circuit: circuit,
		Shots:   shots,
		Metadata: map[string]string{
			"target": fmt.Sprintf("%s:%d", host, port),
		},
	}

	result, _, err := s.Backends().Execute(ctx, s.BackendID(), spec, s.Timeout(), m.FallbackEligible())
	if err != nil {
		return nil, err
	}

	qber := estimateQBER(result.Counts, result.TotalCounts(), circuit.Qubits)
	result.Metadata["target"] = fmt.Sprintf("%s:%d", host, port)
	result.Metadata["intercepted_qubits"] = intercepted
	result.Metadata["qber"] = qber
	// BB84 aborts key exchange above ~11% observed error; an induced rate
	// beyond that means the eavesdropper would be detected.
	result.Metadata["eavesdropper_detectable"] = qber > 0.11

	s.Logger().Info("QKD probe complete", "module", m.ID(),
		"target", host, "qber", qber, "intercepted", intercepted)
	return result, nil
}

// interceptCircuit models Alice's rectilinear-basis qubits passing through
// an eavesdropper who measures a fraction of them in the diagonal basis.
// Each intercepted qubit is conjugated with H, which randomizes Bob's
// rectilinear measurement and induces observable errors.
func interceptCircuit(interceptRate int, seed int64) (*quantum.Circuit, int) {
	rng := rand.New(rand.NewSource(seedOrRandom(seed)))
	c := quantum.NewCircuit(qkdBlockQubits)

	intercepted := 0
	for q := 0; q < qkdBlockQubits; q++ {
		if rng.Intn(100) < interceptRate {
			c.H(q)
			intercepted++
		}
	}
	return c, intercepted
}

// estimateQBER computes the observed error rate: the fraction of measured
// bits that differ from the all-zero block Alice sent.
func estimateQBER(counts map[string]int, total, qubits int) float64 {
	if total == 0 || qubits == 0 {
		return 0
	}
	flipped := 0
	for bits, count := range counts {
		for _, ch := range bits {
			if ch == '1' {
				flipped += count
			}
		}
	}
	return float64(flipped) / float64(total*qubits)
}

func seedOrRandom(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return rand.Int63()
}
