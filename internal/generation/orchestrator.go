package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quizcraft/generation-service/internal/llm"
	"github.com/quizcraft/generation-service/internal/models"
	"github.com/quizcraft/generation-service/internal/validator"
)

// maxDuplicateFraction is the tolerated share of non-unique question texts
// before a retry is spent on regeneration.
const maxDuplicateFraction = 0.2

// Orchestrator runs one schema-constrained model invocation to completion:
// retry with backoff on transient failures, JSON repair, count and
// duplicate enforcement, sequential escalation to the fallback provider,
// and finally normalization. Attempts are strictly sequential; providers
// are never raced.
type Orchestrator struct {
	primary    llm.Provider
	fallback   llm.Provider
	registry   *SchemaRegistry
	normalizer *validator.QuestionNormalizer
	policy     llm.RetryPolicy
	logger     *slog.Logger
}

func NewOrchestrator(primary, fallback llm.Provider, registry *SchemaRegistry, policy llm.RetryPolicy, logger *slog.Logger) *Orchestrator {
	// The attempt loop must run at least once or generateRaw would report
	// success with no question set.
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Orchestrator{
		primary:    primary,
		fallback:   fallback,
		registry:   registry,
		normalizer: validator.NewQuestionNormalizer(),
		policy:     policy,
		logger:     logger,
	}
}

// GenerateParams describes one generation request.
type GenerateParams struct {
	System         string
	Prompt         string
	Schema         *llm.Schema
	Attachment     *llm.Attachment
	RequestedCount int
	Category       models.TestCategory
	MaxTokens      int
	Temperature    float64
}

// Result is a fully validated, normalized question set.
type Result struct {
	Questions          []models.Question
	DiagnosticCriteria *models.DiagnosticCriteria
	Provider           string
	Model              string
}

// Generate produces the question set. Transient and corrective errors are
// absorbed here; only fatal errors reach the caller.
func (o *Orchestrator) Generate(ctx context.Context, params GenerateParams) (*Result, error) {
	rawSet, provider, err := o.generateRaw(ctx, params)
	if err != nil {
		return nil, err
	}

	// A malformed question in a successfully parsed response points at the
	// prompt or schema, not a transient condition: normalization errors are
	// final, no retry.
	questions, err := o.normalizer.NormalizeSet(rawSet.Questions, params.Category)
	if err != nil {
		return nil, err
	}

	return &Result{
		Questions:          questions,
		DiagnosticCriteria: rawSet.DiagnosticCriteria,
		Provider:           provider.Name(),
		Model:              provider.ModelID(),
	}, nil
}

// generateRaw tries the primary provider through its full retry budget,
// then escalates exactly once to the fallback. Fatal transport errors
// (auth, malformed request) abort immediately without escalation.
func (o *Orchestrator) generateRaw(ctx context.Context, params GenerateParams) (*validator.RawQuestionSet, llm.Provider, error) {
	set, err := o.tryProvider(ctx, o.primary, params)
	if err == nil {
		return set, o.primary, nil
	}
	if !o.policy.Retryable(err) {
		return nil, nil, err
	}
	if o.fallback == nil {
		return nil, nil, fmt.Errorf("%w: primary %s failed: %v", ErrProviderExhausted, o.primary.Name(), err)
	}

	o.logger.Warn("primary provider exhausted, escalating to fallback",
		"primary", o.primary.Name(),
		"fallback", o.fallback.Name(),
		"error", err)

	set, ferr := o.tryProvider(ctx, o.fallback, params)
	if ferr == nil {
		return set, o.fallback, nil
	}
	return nil, nil, fmt.Errorf("%w: primary %s: %v; fallback %s: %v",
		ErrProviderExhausted, o.primary.Name(), err, o.fallback.Name(), ferr)
}

// tryProvider runs the attempt loop against one provider. Parse failures,
// count mismatches and excessive duplication consume attempts like
// transport errors do; on the final attempt count and duplication become
// corrective (truncate, accept shortfall, deduplicate) instead of fatal.
func (o *Orchestrator) tryProvider(ctx context.Context, p llm.Provider, params GenerateParams) (*validator.RawQuestionSet, error) {
	req := llm.Request{
		System:      params.System,
		Prompt:      params.Prompt,
		Attachment:  params.Attachment,
		Schema:      params.Schema,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt < o.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := o.policy.Sleep(ctx, o.policy.Backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		resp, err := p.Generate(ctx, req)
		if err != nil {
			if !o.policy.Retryable(err) {
				return nil, err
			}
			o.logger.Warn("model call failed",
				"provider", p.Name(), "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		set, err := o.decode(resp.Content, params.Schema)
		if err != nil {
			o.logger.Warn("model response rejected",
				"provider", p.Name(), "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		lastAttempt := attempt == o.policy.MaxAttempts-1

		if got := len(set.Questions); got != params.RequestedCount {
			if !lastAttempt {
				o.logger.Warn("question count mismatch, retrying",
					"provider", p.Name(), "requested", params.RequestedCount, "got", got)
				lastErr = fmt.Errorf("requested %d questions, got %d", params.RequestedCount, got)
				continue
			}
			set.Questions = o.correctCount(set.Questions, params.RequestedCount)
		}

		if frac := duplicateFraction(set.Questions); frac > maxDuplicateFraction {
			if !lastAttempt {
				o.logger.Warn("excessive duplicate questions, retrying",
					"provider", p.Name(), "duplicate_fraction", frac)
				lastErr = fmt.Errorf("%.0f%% of questions are duplicates", frac*100)
				continue
			}
			set.Questions = dedupeQuestions(set.Questions)
			o.logger.Warn("deduplicated question set after retry budget",
				"provider", p.Name(), "remaining", len(set.Questions))
		}

		return set, nil
	}

	return nil, lastErr
}

// decode parses the response, applying the repair pipeline when the direct
// parse fails, then checks the document against the registry schema.
func (o *Orchestrator) decode(content json.RawMessage, schema *llm.Schema) (*validator.RawQuestionSet, error) {
	text := string(content)
	repaired, err := RepairJSON(text)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var doc any
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	if err := o.registry.Validate(schema, doc); err != nil {
		return nil, &InvalidResponseError{Err: err}
	}

	var set validator.RawQuestionSet
	if err := json.Unmarshal([]byte(repaired), &set); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &set, nil
}

// correctCount truncates an excess or accepts a shortfall, logging the
// correction either way.
func (o *Orchestrator) correctCount(questions []validator.RawQuestion, requested int) []validator.RawQuestion {
	if len(questions) > requested {
		o.logger.Warn("truncating excess questions",
			"requested", requested, "got", len(questions))
		return questions[:requested]
	}
	o.logger.Warn("accepting question shortfall",
		"requested", requested, "got", len(questions))
	return questions
}

// duplicateFraction is the share of questions whose text is not unique
// within the set.
func duplicateFraction(questions []validator.RawQuestion) float64 {
	if len(questions) == 0 {
		return 0
	}
	seen := make(map[string]int, len(questions))
	for _, q := range questions {
		seen[normalizeText(q.Text)]++
	}
	dups := 0
	for _, count := range seen {
		if count > 1 {
			dups += count - 1
		}
	}
	return float64(dups) / float64(len(questions))
}

// dedupeQuestions keeps the first occurrence of each question text.
func dedupeQuestions(questions []validator.RawQuestion) []validator.RawQuestion {
	seen := make(map[string]bool, len(questions))
	unique := questions[:0:0]
	for _, q := range questions {
		key := normalizeText(q.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, q)
	}
	return unique
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
