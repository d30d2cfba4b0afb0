package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// CircuitSummary describes one simulated circuit.
type CircuitSummary struct {
	Label         string         `json:"label"`
	Qubits        int            `json:"qubits"`
	Depth         int            `json:"depth"`
	Size          int            `json:"size"`
	TwoQubitGates int            `json:"two_qubit_gates"`
	Swaps         int            `json:"swaps,omitempty"`
	Ops           map[string]int `json:"ops"`
	Top           []Entry        `json:"top"`
}

// Summary is the machine-readable record of one benchmark run.
type Summary struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Backend   string    `json:"backend"`
	Routing   string    `json:"routing"`
	Seed      uint64    `json:"seed"`
	Shots     int       `json:"shots"`

	Circuits          []CircuitSummary `json:"circuits"`
	HellingerFidelity float64          `json:"hellinger_fidelity"`
	TotalVariation    float64          `json:"total_variation"`
	ElapsedSeconds    float64          `json:"elapsed_seconds"`
}

// NewSummary starts a summary with a fresh run ID.
func NewSummary(backend, routing string, seed uint64, shots int) *Summary {
	return &Summary{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Backend:   backend,
		Routing:   routing,
		Seed:      seed,
		Shots:     shots,
	}
}

// Compare fills the distance fields from two count distributions.
func (s *Summary) Compare(a, b map[string]int) {
	s.HellingerFidelity = HellingerFidelity(a, b)
	s.TotalVariation = TotalVariation(a, b)
}

// WriteJSON writes the summary as indented JSON.
func (s *Summary) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ReadSummary loads a summary written by WriteJSON.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse summary %s: %w", path, err)
	}
	if _, err := uuid.Parse(s.RunID); err != nil {
		return nil, fmt.Errorf("summary %s: run id: %w", path, err)
	}
	return &s, nil
}
