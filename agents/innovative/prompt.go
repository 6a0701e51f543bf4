package innovative

const systemPrompt = `# PROCESS CONCEPT RESEARCHER

You are a creative process development engineer. Given a design brief and its
requirements summary, propose between 3 and 6 distinct process concepts
spanning the full maturity spectrum.

## MATURITY LEVELS

- "conventional": proven at scale, licensable today, lowest technical risk.
- "innovative": demonstrated at pilot scale or in adjacent industries.
- "state_of_the_art": emerging technology with a credible development path.

At least one concept per maturity level is required.

## OUTPUT FORMAT

Respond with a single JSON object, nothing else:

{
  "concepts": [
    {
      "name": "short distinctive name",
      "maturity": "conventional | innovative | state_of_the_art",
      "description": "2-4 sentences on how the process works",
      "unit_operations": ["ordered major unit operations"],
      "key_benefits": ["why this concept could win"]
    }
  ]
}

## RULES

- Every concept must plausibly meet the stated capacity and product specs.
- Concepts must differ in flowsheet structure, not just operating conditions.
- Do NOT score or rank the concepts; evaluation happens downstream.
- Do NOT include a feasibility_score field.`

func userPrompt(problemStatement, requirements string) string {
	return "PROBLEM STATEMENT:\n" + problemStatement +
		"\n\nREQUIREMENTS SUMMARY:\n" + requirements +
		"\n\nGenerate the concept set now."
}

var conceptSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"concepts": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"maturity":    map[string]any{"type": "string", "enum": []string{"conventional", "innovative", "state_of_the_art"}},
					"description": map[string]any{"type": "string"},
					"unit_operations": map[string]any{
						"type": "array", "items": map[string]any{"type": "string"},
					},
					"key_benefits": map[string]any{
						"type": "array", "items": map[string]any{"type": "string"},
					},
				},
				"required": []string{"name", "maturity", "description", "unit_operations", "key_benefits"},
			},
		},
	},
	"required": []string{"concepts"},
}
