// Package state holds the single typed record threaded through the design
// pipeline. Each agent reads a declared slice of the record and writes its
// declared output fields; the transcript is append-only for the whole run.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fluxion-eng/fluxion/core/providers"
)

// Field names used for prerequisite checks and the persisted run log.
const (
	FieldProblemStatement        = "problem_statement"
	FieldRequirements            = "requirements"
	FieldResearchConcepts        = "research_concepts"
	FieldSelectedConceptName     = "selected_concept_name"
	FieldSelectedConceptDetails  = "selected_concept_details"
	FieldDesignBasis             = "design_basis"
	FieldBasicPFD                = "basic_pfd"
	FieldEquipmentAndStreamList  = "equipment_and_stream_list"
	FieldSafetyRiskAnalystReport = "safety_risk_analyst_report"
	FieldProjectManagerReport    = "project_manager_report"
)

// ErrMissingState marks an agent-entry prerequisite failure.
var ErrMissingState = errors.New("state: missing prerequisite field")

// TranscriptEntry is one message in the run transcript, tagged with the
// agent that produced it.
type TranscriptEntry struct {
	Agent   string            `json:"agent"`
	Message providers.Message `json:"message"`
	At      time.Time         `json:"at"`
}

// DesignState is the shared record for one pipeline run. String fields are
// Markdown; the *JSON fields are validated JSON documents. The record is
// owned by the orchestrator and mutated only by the currently executing
// agent, so no locking is required.
type DesignState struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`

	ProblemStatement string `json:"problem_statement"`

	Requirements            string          `json:"requirements"`
	ResearchConcepts        json.RawMessage `json:"research_concepts"`
	SelectedConceptName     string          `json:"selected_concept_name"`
	SelectedConceptDetails  string          `json:"selected_concept_details"`
	DesignBasis             string          `json:"design_basis"`
	BasicPFD                string          `json:"basic_pfd"`
	EquipmentAndStreamList  json.RawMessage `json:"equipment_and_stream_list"`
	SafetyRiskAnalystReport string          `json:"safety_risk_analyst_report"`
	ProjectManagerReport    string          `json:"project_manager_report"`

	// Error records the abort reason when the run ended early.
	Error string `json:"error,omitempty"`

	Transcript []TranscriptEntry `json:"transcript"`
}

// New seeds a fresh state with the user's problem statement.
func New(problemStatement string) *DesignState {
	return &DesignState{
		RunID:            uuid.New().String(),
		StartedAt:        time.Now(),
		ProblemStatement: problemStatement,
	}
}

// Append adds a message to the transcript under the producing agent's name.
func (s *DesignState) Append(agent string, msg providers.Message) {
	s.Transcript = append(s.Transcript, TranscriptEntry{
		Agent:   agent,
		Message: msg,
		At:      time.Now(),
	})
}

// Messages returns the bare transcript messages in order.
func (s *DesignState) Messages() []providers.Message {
	out := make([]providers.Message, len(s.Transcript))
	for i, e := range s.Transcript {
		out[i] = e.Message
	}
	return out
}

// Get returns the named artifact field as a string.
func (s *DesignState) Get(field string) string {
	switch field {
	case FieldProblemStatement:
		return s.ProblemStatement
	case FieldRequirements:
		return s.Requirements
	case FieldResearchConcepts:
		return string(s.ResearchConcepts)
	case FieldSelectedConceptName:
		return s.SelectedConceptName
	case FieldSelectedConceptDetails:
		return s.SelectedConceptDetails
	case FieldDesignBasis:
		return s.DesignBasis
	case FieldBasicPFD:
		return s.BasicPFD
	case FieldEquipmentAndStreamList:
		return string(s.EquipmentAndStreamList)
	case FieldSafetyRiskAnalystReport:
		return s.SafetyRiskAnalystReport
	case FieldProjectManagerReport:
		return s.ProjectManagerReport
	default:
		return ""
	}
}

// Require validates that the named fields are non-empty at agent entry.
func (s *DesignState) Require(fields ...string) error {
	for _, f := range fields {
		if s.Get(f) == "" {
			return fmt.Errorf("%w: %s", ErrMissingState, f)
		}
	}
	return nil
}

// Snapshot serializes the state for checkpointing.
func (s *DesignState) Snapshot() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Clone deep-copies the state for checkpoint isolation.
func (s *DesignState) Clone() (*DesignState, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out DesignState
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LogRecord flattens the terminal state fields into the persisted run-log
// shape.
func (s *DesignState) LogRecord() map[string]any {
	rec := map[string]any{
		FieldProblemStatement:        s.ProblemStatement,
		FieldRequirements:            s.Requirements,
		FieldResearchConcepts:        rawOrNil(s.ResearchConcepts),
		FieldSelectedConceptName:     s.SelectedConceptName,
		FieldSelectedConceptDetails:  s.SelectedConceptDetails,
		FieldDesignBasis:             s.DesignBasis,
		FieldBasicPFD:                s.BasicPFD,
		FieldEquipmentAndStreamList:  rawOrNil(s.EquipmentAndStreamList),
		FieldSafetyRiskAnalystReport: s.SafetyRiskAnalystReport,
		FieldProjectManagerReport:    s.ProjectManagerReport,
	}
	if s.Error != "" {
		rec["error"] = s.Error
	}
	return rec
}

func rawOrNil(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
