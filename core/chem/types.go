// Package chem defines the flat domain records exchanged between pipeline
// stages: design concepts, equipment items, and process streams, together
// with the invariant checks the pipeline enforces at stage boundaries.
package chem

import "encoding/json"

// Maturity classifies how proven a design concept is.
type Maturity string

const (
	MaturityConventional Maturity = "conventional"
	MaturityInnovative   Maturity = "innovative"
	MaturityStateOfArt   Maturity = "state_of_the_art"
)

// ValidMaturities returns all recognized maturity levels.
func ValidMaturities() []Maturity {
	return []Maturity{MaturityConventional, MaturityInnovative, MaturityStateOfArt}
}

// Phase classifies the physical state of a stream.
type Phase string

const (
	PhaseLiquid   Phase = "Liquid"
	PhaseVapor    Phase = "Vapor"
	PhaseTwoPhase Phase = "Two-Phase"
)

// Quantity is a numeric value with its engineering unit.
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ConceptRisks captures the reviewer's risk breakdown for a concept.
type ConceptRisks struct {
	Technical         string `json:"technical"`
	Economic          string `json:"economic"`
	SafetyOperational string `json:"safety_operational"`
}

// Concept is a candidate process design at the unit-operation level.
// The review stage fills Summary, FeasibilityScore, Risks and
// Recommendations; they are absent in the generation stage output.
type Concept struct {
	Name           string   `json:"name"`
	Maturity       Maturity `json:"maturity"`
	Description    string   `json:"description"`
	UnitOperations []string `json:"unit_operations"`
	KeyBenefits    []string `json:"key_benefits"`

	Summary          string        `json:"summary,omitempty"`
	FeasibilityScore *int          `json:"feasibility_score,omitempty"`
	Risks            *ConceptRisks `json:"risks,omitempty"`
	Recommendations  []string      `json:"recommendations,omitempty"`
}

// ConceptList is the wire shape for the concept artifact.
type ConceptList struct {
	Concepts []Concept `json:"concepts"`
}

// SizingParameter is a named equipment attribute such as area or power.
type SizingParameter struct {
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
}

// Equipment is a single physical item on the flowsheet.
type Equipment struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Service          string            `json:"service"`
	Type             string            `json:"type"`
	Category         string            `json:"category"`
	StreamsIn        []string          `json:"streams_in"`
	StreamsOut       []string          `json:"streams_out"`
	DesignCriteria   string            `json:"design_criteria"`
	SizingParameters []SizingParameter `json:"sizing_parameters"`
	DutyOrLoad       *Quantity         `json:"duty_or_load,omitempty"`
	Notes            string            `json:"notes"`
}

// Stream is a directed connection between two equipment items.
// Properties carries the recognized keys mass_flow, molar_flow, temperature,
// pressure, volume_flow and density. Compositions maps component names to
// fractions; mass-basis keys are canonicalized into the m_<component>
// namespace.
type Stream struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	From         string              `json:"from"`
	To           string              `json:"to"`
	Phase        Phase               `json:"phase"`
	Properties   map[string]Quantity `json:"properties"`
	Compositions map[string]Quantity `json:"compositions"`
	Notes        string              `json:"notes"`
}

// EquipmentAndStreams is the combined flowsheet artifact produced by the
// list builder and refined by the estimator and sizing stages.
type EquipmentAndStreams struct {
	Equipments          []Equipment `json:"equipments"`
	Streams             []Stream    `json:"streams"`
	NotesAndAssumptions []string    `json:"notes_and_assumptions"`
}

// ParseEquipmentAndStreams decodes the flowsheet artifact from raw JSON.
func ParseEquipmentAndStreams(raw json.RawMessage) (*EquipmentAndStreams, error) {
	var es EquipmentAndStreams
	if err := json.Unmarshal(raw, &es); err != nil {
		return nil, err
	}
	return &es, nil
}

// EquipmentByID returns the equipment item with the given ID, or nil.
func (es *EquipmentAndStreams) EquipmentByID(id string) *Equipment {
	for i := range es.Equipments {
		if es.Equipments[i].ID == id {
			return &es.Equipments[i]
		}
	}
	return nil
}

// StreamByID returns the stream with the given ID, or nil.
func (es *EquipmentAndStreams) StreamByID(id string) *Stream {
	for i := range es.Streams {
		if es.Streams[i].ID == id {
			return &es.Streams[i]
		}
	}
	return nil
}

// EquipmentIDs returns the set of equipment IDs.
func (es *EquipmentAndStreams) EquipmentIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(es.Equipments))
	for _, e := range es.Equipments {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// StreamIDs returns the set of stream IDs.
func (es *EquipmentAndStreams) StreamIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(es.Streams))
	for _, s := range es.Streams {
		ids[s.ID] = struct{}{}
	}
	return ids
}

// Categories returns the distinct equipment categories in declaration order.
func (es *EquipmentAndStreams) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range es.Equipments {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}
