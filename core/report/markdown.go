// Package report materializes a finished design state into deliverable
// documents: a Markdown engineering package and, optionally, a Word copy
// rendered through an external converter.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fluxion-eng/fluxion/core/chem"
	"github.com/fluxion-eng/fluxion/core/state"
)

// section pairs a report heading with its state field.
type section struct {
	Title string
	Field string
}

// sections is the fixed report order. Sections whose field is empty are
// omitted from the output.
var sections = []section{
	{"Problem Statement", state.FieldProblemStatement},
	{"Process Requirements", state.FieldRequirements},
	{"Concept Detail", state.FieldSelectedConceptDetails},
	{"Design Basis", state.FieldDesignBasis},
	{"Basic PFD", state.FieldBasicPFD},
	{"Equipment and Streams List", state.FieldEquipmentAndStreamList},
	{"Safety & Risk Assessment", state.FieldSafetyRiskAnalystReport},
	{"Project Manager Report", state.FieldProjectManagerReport},
}

// Markdown renders the full design package.
func Markdown(st *state.DesignState) string {
	var b strings.Builder
	b.WriteString("# Preliminary Process Design Package\n\n")
	if st.SelectedConceptName != "" {
		fmt.Fprintf(&b, "Selected concept: **%s**\n\n", st.SelectedConceptName)
	}

	for _, s := range sections {
		content := st.Get(s.Field)
		if content == "" {
			continue
		}
		if s.Field == state.FieldEquipmentAndStreamList {
			rendered, err := EquipmentTables(json.RawMessage(content))
			if err == nil {
				content = rendered
			}
		}
		fmt.Fprintf(&b, "# %s\n\n%s\n\n", s.Title, strings.TrimSpace(content))
	}

	if st.Error != "" {
		fmt.Fprintf(&b, "# Run Status\n\nThe pipeline aborted early: %s\n\n", st.Error)
	}
	return b.String()
}

// EquipmentTables converts the flowsheet JSON into grouped Markdown tables:
// equipment grouped by category, then streams, then notes.
func EquipmentTables(raw json.RawMessage) (string, error) {
	es, err := chem.ParseEquipmentAndStreams(raw)
	if err != nil {
		return "", fmt.Errorf("report: %w", err)
	}

	var b strings.Builder
	for _, category := range es.Categories() {
		fmt.Fprintf(&b, "## Equipment: %s\n\n", categoryTitle(category))
		b.WriteString("| ID | Name | Type | Service | Sizing | Duty/Load |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, e := range es.Equipments {
			if e.Category != category {
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				e.ID, e.Name, e.Type, e.Service,
				sizingCell(e.SizingParameters), dutyCell(e.DutyOrLoad))
		}
		b.WriteString("\n")
	}

	if len(es.Streams) > 0 {
		b.WriteString("## Streams\n\n")
		b.WriteString("| ID | From | To | Phase | Properties | Composition |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, s := range es.Streams {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				s.ID, s.From, s.To, s.Phase,
				quantityCell(s.Properties), quantityCell(s.Compositions))
		}
		b.WriteString("\n")
	}

	if len(es.NotesAndAssumptions) > 0 {
		b.WriteString("## Notes and Assumptions\n\n")
		for _, n := range es.NotesAndAssumptions {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func categoryTitle(category string) string {
	if category == "" {
		return "Uncategorized"
	}
	words := strings.Split(strings.ReplaceAll(category, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func sizingCell(params []chem.SizingParameter) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, formatQuantity(p.Quantity))
	}
	return strings.Join(parts, "; ")
}

func dutyCell(q *chem.Quantity) string {
	if q == nil {
		return "-"
	}
	return formatQuantity(*q)
}

func quantityCell(m map[string]chem.Quantity) string {
	if len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, formatQuantity(m[k]))
	}
	return strings.Join(parts, "; ")
}

func formatQuantity(q chem.Quantity) string {
	v := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", q.Value), "0"), ".")
	if q.Unit == "" {
		return v
	}
	return v + " " + q.Unit
}
