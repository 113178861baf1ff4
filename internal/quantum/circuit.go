// Package quantum provides the backend-agnostic circuit model shared by all
// attack modules and a small statevector simulator used by the local
// backend. Remote providers serialize the same circuit into their own wire
// format.
package quantum

import (
	"fmt"
	"strings"
)

// GateName identifies a supported gate.
type GateName string

const (
	GateH    GateName = "h"
	GateX    GateName = "x"
	GateZ    GateName = "z"
	GateCX   GateName = "cx"
	GateCZ   GateName = "cz"
	GateSwap GateName = "swap"
)

// Gate is one operation in a circuit. Single-qubit gates use Qubits[0];
// two-qubit gates use Qubits[0] as control (or first operand) and
// Qubits[1] as target.
type Gate struct {
	Name   GateName `json:"name"`
	Qubits []int    `json:"qubits"`
}

// Circuit is an ordered gate list over a fixed qubit register. Measurement
// is implicit: every job samples all qubits in the computational basis at
// the end of the circuit.
type Circuit struct {
	Qubits int    `json:"qubits"`
	Gates  []Gate `json:"gates"`
}

// NewCircuit creates an empty circuit over n qubits.
func NewCircuit(n int) *Circuit {
	return &Circuit{Qubits: n}
}

// H appends a Hadamard gate on qubit q.
func (c *Circuit) H(q int) *Circuit { return c.append(GateH, q) }

// X appends a Pauli-X gate on qubit q.
func (c *Circuit) X(q int) *Circuit { return c.append(GateX, q) }

// Z appends a Pauli-Z gate on qubit q.
func (c *Circuit) Z(q int) *Circuit { return c.append(GateZ, q) }

// CX appends a controlled-X gate with control ctl and target tgt.
func (c *Circuit) CX(ctl, tgt int) *Circuit { return c.append(GateCX, ctl, tgt) }

// CZ appends a controlled-Z gate with control ctl and target tgt.
func (c *Circuit) CZ(ctl, tgt int) *Circuit { return c.append(GateCZ, ctl, tgt) }

// Swap appends a swap gate between qubits a and b.
func (c *Circuit) Swap(a, b int) *Circuit { return c.append(GateSwap, a, b) }

func (c *Circuit) append(name GateName, qubits ...int) *Circuit {
	c.Gates = append(c.Gates, Gate{Name: name, Qubits: qubits})
	return c
}

// Depth returns the number of gates in the circuit.
func (c *Circuit) Depth() int {
	return len(c.Gates)
}

// Validate checks that every gate references in-range, distinct qubits and
// carries the right operand count for its name.
func (c *Circuit) Validate() error {
	if c.Qubits <= 0 {
		return fmt.Errorf("circuit must have at least one qubit, got %d", c.Qubits)
	}
	for i, g := range c.Gates {
		want := operands(g.Name)
		if want == 0 {
			return fmt.Errorf("gate %d: unknown gate %q", i, g.Name)
		}
		if len(g.Qubits) != want {
			return fmt.Errorf("gate %d (%s): expected %d qubit operand(s), got %d",
				i, g.Name, want, len(g.Qubits))
		}
		seen := make(map[int]bool, len(g.Qubits))
		for _, q := range g.Qubits {
			if q < 0 || q >= c.Qubits {
				return fmt.Errorf("gate %d (%s): qubit %d out of range [0,%d)",
					i, g.Name, q, c.Qubits)
			}
			if seen[q] {
				return fmt.Errorf("gate %d (%s): duplicate qubit operand %d", i, g.Name, q)
			}
			seen[q] = true
		}
	}
	return nil
}

// String renders a compact textual form, useful in logs and job metadata.
func (c *Circuit) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "q%d:", c.Qubits)
	for _, g := range c.Gates {
		b.WriteByte(' ')
		b.WriteString(string(g.Name))
		for i, q := range g.Qubits {
			if i == 0 {
				b.WriteByte('[')
			} else {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d", q)
		}
		b.WriteByte(']')
	}
	return b.String()
}

func operands(name GateName) int {
	switch name {
	case GateH, GateX, GateZ:
		return 1
	case GateCX, GateCZ, GateSwap:
		return 2
	default:
		return 0
	}
}
