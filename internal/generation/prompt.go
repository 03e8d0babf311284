package generation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quizcraft/generation-service/internal/models"
)

// PromptInput carries everything the prompt builder needs for one test.
type PromptInput struct {
	Category         models.TestCategory
	SourceKind       models.SourceKind
	Title            string
	Topic            string
	SourceContent    string
	RequestedCount   int
	Language         string
	Difficulty       string
	DistributionMode models.DistributionMode
	ManualBreakdown  map[models.QuestionType]int
}

const academicDocumentSystem = `You are an expert test author. You create assessment questions strictly from the source material supplied by the user.

Rules:
- Every fact in every question, option and explanation must come from the supplied material only. Do not use outside knowledge.
- Write all question text, options and explanations in the requested language.
- Each question must be self-contained and unambiguous.
- Provide a short explanation for each question justifying the correct answer with a reference to the material.
- Assign max_points between 1 and 5 for objective questions and between 1 and 100 for essay questions.
- Never repeat a question or produce near-duplicates.`

const academicGeneralSystem = `You are an expert test author. You create assessment questions on the requested topic from your own general knowledge.

Rules:
- Questions must be factually correct and appropriate for the stated difficulty.
- Write all question text, options and explanations in the requested language.
- Each question must be self-contained and unambiguous.
- Provide a short explanation for each question justifying the correct answer.
- Assign max_points between 1 and 5 for objective questions and between 1 and 100 for essay questions.
- Never repeat a question or produce near-duplicates.`

const diagnosticSystem = `You are an expert in designing diagnostic questionnaires that classify a respondent into a personality or preference category.

Rules:
- Diagnostic questions have no correct answers. Do not include correct_answer_keys, correct_matches, correct_answers or max_points on any question.
- Write all question text and options in the requested language.
- Alongside the questions, produce a diagnostic_criteria object that enumerates 3 to 5 result types, each with a type_id, title, description and trait list, plus mapping_rules describing how answer patterns map to a result type.
- Answer options should differentiate between the result types, not test knowledge.`

// Build constructs the full prompt text for one generation request. The
// requested count is stated as absolute because the model reliably over- or
// under-generates otherwise.
func (b *PromptBuilder) Build(in PromptInput) (system, prompt string) {
	switch {
	case in.Category == models.CategoryDiagnostic:
		system = diagnosticSystem
	case in.SourceKind == models.SourceGeneralKnowledge:
		system = academicGeneralSystem
	default:
		system = academicDocumentSystem
	}

	var p strings.Builder

	fmt.Fprintf(&p, "Test title: %s\n", in.Title)
	fmt.Fprintf(&p, "Language: %s\n", in.Language)
	if in.Difficulty != "" && in.Category != models.CategoryDiagnostic {
		fmt.Fprintf(&p, "Difficulty: %s\n", in.Difficulty)
	}

	switch in.SourceKind {
	case models.SourceGeneralKnowledge:
		fmt.Fprintf(&p, "Topic: %s\n", in.Topic)
	case models.SourcePDFAttachment:
		p.WriteString("Source material: the attached PDF document.\n")
	default:
		p.WriteString("Source material:\n---\n")
		p.WriteString(in.SourceContent)
		p.WriteString("\n---\n")
	}

	fmt.Fprintf(&p,
		"\nGenerate EXACTLY %d questions. This count is absolute and non-negotiable: not %d, not %d, exactly %d.\n",
		in.RequestedCount, in.RequestedCount-1, in.RequestedCount+1, in.RequestedCount)

	if in.Category != models.CategoryDiagnostic {
		p.WriteString(b.distributionInstruction(in))
	}

	return system, p.String()
}

// distributionInstruction renders the objective-question mix policy.
func (b *PromptBuilder) distributionInstruction(in PromptInput) string {
	switch in.DistributionMode {
	case models.DistributionTraditional:
		return "\nQuestion mix: about 90% single-answer multiple choice (mcq) and 10% multi-answer multiple choice (mcq_multiple). Do not use any other question type.\n"
	case models.DistributionManual:
		return b.manualBreakdown(in.ManualBreakdown)
	default:
		return "\nQuestion mix: choose a varied, pedagogically sensible mix of the allowed question types yourself.\n"
	}
}

// manualBreakdown restates the caller's exact per-type counts. The breakdown
// is rendered verbatim so the model cannot reinterpret it.
func (b *PromptBuilder) manualBreakdown(breakdown map[models.QuestionType]int) string {
	types := make([]string, 0, len(breakdown))
	for t := range breakdown {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var s strings.Builder
	s.WriteString("\nQuestion mix, exact per-type counts (follow this breakdown exactly):\n")
	for _, t := range types {
		fmt.Fprintf(&s, "- %s: %d\n", t, breakdown[models.QuestionType(t)])
	}
	return s.String()
}

// PromptBuilder is a pure prompt construction helper. It keeps no state; it
// exists as a type so the orchestrator can take it as a collaborator.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}
