// Package analysis implements the model-backed pipeline stages: case
// summarization, case-type classification, and per-factor scoring. Each
// activity fetches a named prompt template, fills it from the case context,
// invokes the completion client, and returns a context fragment carrying
// only the fields the stage produced.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielyudicarvalho/case-scoring/internal/domain"
	"github.com/danielyudicarvalho/case-scoring/internal/llm"
	pkgactivity "github.com/danielyudicarvalho/case-scoring/pkg/activity"
)

// Activity names registered with the worker.
const (
	SummarizeCaseActivity    = "SummarizeCase"
	ClassifyCaseTypeActivity = "ClassifyCaseType"
	AnalyzeFactorActivity    = "AnalyzeFactor"
)

// Prompt template keys for the non-factor stages.
const (
	summaryPromptKey  = "summarize_prompt.txt"
	caseTypePromptKey = "case_type_prompt.txt"
)

// defaultMaxTokens bounds completion length when no limit is configured.
const defaultMaxTokens = 600

// unknownCaseType is recorded when classification yields an empty
// completion; downstream stages only thread the type into prompts, so an
// unknown type degrades prompt quality without failing the run.
const unknownCaseType = "Unknown"

// StageInput carries the case-context snapshot into a sequential stage.
type StageInput struct {
	Context domain.CaseContext `json:"context"`
}

// FactorInput carries the snapshot plus the factor a fan-out branch scores.
type FactorInput struct {
	Factor  domain.Factor      `json:"factor"`
	Context domain.CaseContext `json:"context"`
}

// Activities hosts the analysis stage activities.
type Activities struct {
	pkgactivity.BaseActivities

	completion llm.CompletionClient
	prompts    *PromptCache
	maxTokens  int
}

// NewActivities wires the analysis activities. maxTokens <= 0 selects the
// default completion budget.
func NewActivities(base pkgactivity.BaseActivities, completion llm.CompletionClient, prompts *PromptCache, maxTokens int) *Activities {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Activities{
		BaseActivities: base,
		completion:     completion,
		prompts:        prompts,
		maxTokens:      maxTokens,
	}
}

// SummarizeCase condenses the extracted document text into a case summary.
// The fragment carries identity plus the summary only.
func (a *Activities) SummarizeCase(ctx context.Context, input StageInput) (*domain.CaseContext, error) {
	caseCtx := input.Context
	if strings.TrimSpace(caseCtx.ExtractedText) == "" {
		return nil, nonRetryableErr(domain.ErrKindMalformedPayload, domain.ErrEmptyExtractedText,
			"summarize requires extracted text")
	}

	pkgactivity.SafeLog(ctx, "summarizing case", "case_id", caseCtx.CaseID)

	completion, err := a.complete(ctx, summaryPromptKey, caseCtx)
	if err != nil {
		return nil, err
	}
	summary := strings.TrimSpace(completion)
	if summary == "" {
		return nil, retryableErr(domain.ErrKindUpstreamUnavailable, nil,
			"completion service returned an empty summary")
	}

	a.emitStageCompleted(ctx, "summarize_case", caseCtx.CaseID, nil)
	return &domain.CaseContext{
		CaseID:      caseCtx.CaseID,
		Email:       caseCtx.Email,
		CaseSummary: summary,
	}, nil
}

// ClassifyCaseType labels the case with a short case-type string derived
// from the summary. An empty completion degrades to "Unknown" rather than
// failing, since the type only steers later prompts.
func (a *Activities) ClassifyCaseType(ctx context.Context, input StageInput) (*domain.CaseContext, error) {
	caseCtx := input.Context
	if strings.TrimSpace(caseCtx.CaseSummary) == "" {
		return nil, nonRetryableErr(domain.ErrKindMalformedPayload, nil,
			"classification requires a case summary")
	}

	pkgactivity.SafeLog(ctx, "classifying case type", "case_id", caseCtx.CaseID)

	completion, err := a.complete(ctx, caseTypePromptKey, caseCtx)
	if err != nil {
		return nil, err
	}
	caseType := strings.TrimSpace(completion)
	if caseType == "" {
		pkgactivity.SafeLogError(ctx, "empty case type completion, recording unknown",
			"case_id", caseCtx.CaseID)
		caseType = unknownCaseType
	}

	a.emitStageCompleted(ctx, "classify_case_type", caseCtx.CaseID, nil)
	return &domain.CaseContext{
		CaseID:   caseCtx.CaseID,
		Email:    caseCtx.Email,
		CaseType: caseType,
	}, nil
}

// AnalyzeFactor scores one analysis factor against the case snapshot. The
// returned fragment carries identity plus the single score field this factor
// owns; a completion missing its score token yields a zero score, never a
// failure.
func (a *Activities) AnalyzeFactor(ctx context.Context, input FactorInput) (*domain.CaseContext, error) {
	if !input.Factor.Valid() {
		return nil, nonRetryableErr(domain.ErrKindMalformedPayload, nil,
			fmt.Sprintf("unknown analysis factor %q", input.Factor))
	}
	caseCtx := input.Context
	if strings.TrimSpace(caseCtx.CaseSummary) == "" {
		return nil, nonRetryableErr(domain.ErrKindMalformedPayload, nil,
			fmt.Sprintf("%s analysis requires a case summary", input.Factor))
	}

	pkgactivity.SafeLog(ctx, "analyzing factor",
		"case_id", caseCtx.CaseID,
		"factor", input.Factor.String())

	completion, err := a.complete(ctx, input.Factor.PromptKey(), caseCtx)
	if err != nil {
		return nil, err
	}

	score, found := ExtractScore(completion, input.Factor)
	if !found {
		pkgactivity.SafeLogError(ctx, "score token missing from completion, scoring zero",
			"case_id", caseCtx.CaseID,
			"factor", input.Factor.String(),
			"token", input.Factor.ScoreToken())
	}

	fragment := &domain.CaseContext{
		CaseID: caseCtx.CaseID,
		Email:  caseCtx.Email,
	}
	fragment.SetScore(input.Factor, score)

	a.emitStageCompleted(ctx, "analyze_factor:"+input.Factor.String(), caseCtx.CaseID, map[string]any{
		"factor": input.Factor.String(),
		"score":  score,
	})
	return fragment, nil
}

// complete renders the named template against the case context and invokes
// the completion service.
func (a *Activities) complete(ctx context.Context, promptKey string, caseCtx domain.CaseContext) (string, error) {
	template, err := a.prompts.Get(ctx, promptKey)
	if err != nil {
		return "", classifyErr(err, fmt.Sprintf("load prompt %s", promptKey))
	}

	pkgactivity.RecordHeartbeat(ctx, "completion:"+promptKey)

	completion, err := a.completion.Complete(ctx, renderPrompt(template, caseCtx), a.maxTokens)
	if err != nil {
		return "", classifyErr(err, fmt.Sprintf("completion for %s", promptKey))
	}
	return completion, nil
}
