package generation

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/quizcraft/generation-service/internal/llm"
	"github.com/quizcraft/generation-service/internal/models"
)

// SchemaRegistry hands out the structured-output constraint document for a
// (category, distribution mode) pair and validates raw responses against it.
//
// Three variants exist: the diagnostic schema excludes every correct-answer
// field and requires diagnostic_criteria; the strict schema (traditional
// mode) forces options and correct_answer_keys on every question; the
// relaxed schema (auto/manual) allows the per-type optional fields without
// requiring all of them at once.
type SchemaRegistry struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{compiled: make(map[string]*jsonschema.Schema)}
}

// Get returns the schema for the given category and distribution mode.
func (r *SchemaRegistry) Get(category models.TestCategory, mode models.DistributionMode) *llm.Schema {
	if category == models.CategoryDiagnostic {
		return diagnosticSchema
	}
	if mode == models.DistributionTraditional {
		return strictSchema
	}
	return relaxedSchema
}

// Validate checks a parsed response document against the schema. Compiled
// schemas are cached by name.
func (r *SchemaRegistry) Validate(schema *llm.Schema, doc any) error {
	compiled, err := r.compile(schema)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", schema.Name, err)
	}
	return compiled.Validate(doc)
}

func (r *SchemaRegistry) compile(schema *llm.Schema) (*jsonschema.Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if compiled, ok := r.compiled[schema.Name]; ok {
		return compiled, nil
	}

	// The jsonschema compiler wants a parsed JSON value, not Go maps that
	// may contain non-JSON types. Round-trip through encoding/json.
	defBytes, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	var parsed any
	if err := json.Unmarshal(defBytes, &parsed); err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(url, parsed); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	r.compiled[schema.Name] = compiled
	return compiled, nil
}

var questionTypeEnum = []any{
	"mcq", "mcq_multiple", "matching", "completion",
	"sentence_completion", "short_answer", "true_false_multiple", "essay",
}

func optionSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key":  map[string]any{"type": "string"},
			"text": map[string]any{"type": "string"},
		},
		"required": []any{"key", "text"},
	}
}

// relaxedQuestion allows every type-specific field without forcing any
// particular combination; the normalizer enforces per-type requirements.
func relaxedQuestion() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question prompt shown to the learner",
			},
			"question_type": map[string]any{
				"type": "string",
				"enum": questionTypeEnum,
			},
			"explanation": map[string]any{"type": "string"},
			"max_points": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 100,
			},
			"options":             map[string]any{"type": "array", "items": optionSchema()},
			"correct_answer_keys": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"left_items":          map[string]any{"type": "array", "items": optionSchema()},
			"right_options":       map[string]any{"type": "array", "items": optionSchema()},
			"correct_matches": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"left":  map[string]any{"type": "string"},
						"right": map[string]any{"type": "string"},
					},
					"required": []any{"left", "right"},
				},
			},
			"template": map[string]any{
				"type":        "string",
				"description": "Completion template containing numbered blank markers like [1]",
			},
			"blanks": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"correct_answers": map[string]any{
				"type":        "object",
				"description": "Blank key mapped to the list of accepted answer variants",
			},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"template":         map[string]any{"type": "string"},
						"prompt":           map[string]any{"type": "string"},
						"accepted_answers": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
			},
			"statements": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":          map[string]any{"type": "string"},
						"correct_value": map[string]any{"type": "boolean"},
					},
					"required": []any{"text", "correct_value"},
				},
			},
			"scoring_mode": map[string]any{
				"type": "string",
				"enum": []any{"partial", "all_or_nothing"},
			},
			"rubric":        map[string]any{"type": "string"},
			"sample_answer": map[string]any{"type": "string"},
		},
		"required": []any{"question_text", "question_type", "max_points"},
	}
}

func strictQuestion() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{"type": "string"},
			"question_type": map[string]any{
				"type": "string",
				"enum": []any{"mcq", "mcq_multiple"},
			},
			"explanation": map[string]any{"type": "string"},
			"max_points": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 5,
			},
			"options":             map[string]any{"type": "array", "items": optionSchema()},
			"correct_answer_keys": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"question_text", "question_type", "options", "correct_answer_keys", "max_points"},
	}
}

// diagnosticQuestion has no correct-answer fields and no max_points.
func diagnosticQuestion() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{"type": "string"},
			"question_type": map[string]any{
				"type": "string",
				"enum": []any{"mcq", "mcq_multiple"},
			},
			"options": map[string]any{"type": "array", "items": optionSchema()},
		},
		"required": []any{"question_text", "options"},
	}
}

var relaxedSchema = &llm.Schema{
	Name:        "question-set-relaxed",
	Description: "A mixed-type assessment question set",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": relaxedQuestion(),
			},
		},
		"required": []any{"questions"},
	},
}

var strictSchema = &llm.Schema{
	Name:        "question-set-strict",
	Description: "A multiple-choice-only assessment question set",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": strictQuestion(),
			},
		},
		"required": []any{"questions"},
	},
}

var diagnosticSchema = &llm.Schema{
	Name:        "question-set-diagnostic",
	Description: "A diagnostic question set with result-type classification criteria",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":  "array",
				"items": diagnosticQuestion(),
			},
			"diagnostic_criteria": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"result_types": map[string]any{
						"type":     "array",
						"minItems": 3,
						"maxItems": 5,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"type_id":     map[string]any{"type": "string"},
								"title":       map[string]any{"type": "string"},
								"description": map[string]any{"type": "string"},
								"traits":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							},
							"required": []any{"type_id", "title", "description"},
						},
					},
					"mapping_rules": map[string]any{"type": "string"},
				},
				"required": []any{"result_types", "mapping_rules"},
			},
		},
		"required": []any{"questions", "diagnostic_criteria"},
	},
}
