package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/selflens/selflens/internal/domain"
	"go.uber.org/zap"
)

// Insight retrieval and synthesis constants.
const (
	DefaultTimeRangeDays = 30

	maxCorrelationsRetrieved   = 10
	maxContradictionsRetrieved = 5
	maxFindingsUsed            = 12
	retrievalMinStrength       = 0.1

	// Confidence bounds for thin evidence.
	noEvidenceConfidence  = 0.1
	thinEvidenceThreshold = 2
	thinEvidenceCap       = 0.4

	// Evidence below either of these must be flagged as weak in the answer.
	weakEvidenceN = 30
	weakEvidenceR = 0.3

	completionTemperature = 0.2
	completionMaxTokens   = 600
)

// InsightService answers free-text self-understanding questions, grounding
// every claim exclusively in persisted findings. It never propagates a
// completion-provider error: the answer degrades to finding-only text
// instead.
type InsightService struct {
	findings domain.FindingStore
	health   domain.HealthEvaluator
	llm      domain.CompletionClient
	logger   *zap.Logger
}

func NewInsightService(findings domain.FindingStore, health domain.HealthEvaluator, llm domain.CompletionClient, logger *zap.Logger) *InsightService {
	return &InsightService{findings: findings, health: health, llm: llm, logger: logger}
}

// subjectKeywords maps question fragments to finding subjects. A fixed
// vocabulary, checked in order; not NLP.
var subjectKeywords = []struct {
	subject  string
	keywords []string
}{
	{"energy", []string{"energy", "tired", "fatigue"}},
	{"mood", []string{"mood", "happy", "sad", "anxious"}},
	{"stress", []string{"stress", "overwhelm"}},
	{"productivity", []string{"productiv", "focus", "work"}},
	{"sleep", []string{"sleep", "rest"}},
}

// InferSubject matches the question text against the fixed keyword
// vocabulary. Returns "" when nothing matches.
func InferSubject(question string) string {
	q := strings.ToLower(question)
	for _, entry := range subjectKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				return entry.subject
			}
		}
	}
	return ""
}

// AnswerWithCitations runs the retrieval-then-synthesize pipeline. The
// returned answer is always well-formed and non-empty, whatever the state of
// the evidence base or the completion provider.
func (s *InsightService) AnswerWithCitations(ctx context.Context, q domain.InsightQuery) (*domain.InsightAnswer, error) {
	if q.TimeRangeDays <= 0 {
		q.TimeRangeDays = DefaultTimeRangeDays
	}
	subject := q.Subject
	if subject == "" {
		subject = InferSubject(q.Question)
	}

	findings := s.retrieve(ctx, subject)

	report, err := s.health.Evaluate(ctx, q.TimeRangeDays)
	if err != nil {
		// Degrade to an empty report; answering must not depend on the
		// evaluator being up.
		s.logger.Warn("health evaluation failed", zap.Error(err))
		report = &domain.HealthReport{}
		report.Coverage.TargetDays = q.TimeRangeDays
	}

	citations := make([]domain.Citation, 0, len(findings))
	for i := range findings {
		f := &findings[i]
		citations = append(citations, domain.Citation{
			FindingID:   f.ID,
			Kind:        f.Kind,
			Description: f.Describe(),
			Strength:    f.Strength,
		})
	}

	answer := &domain.InsightAnswer{
		Citations: citations,
		DataQuality: domain.DataQuality{
			Grade:        report.Overall.Grade,
			CoverageDays: report.Coverage.TotalDays,
			FindingsUsed: len(findings),
		},
		FollowUpQuestions: s.followUps(subject, findings),
		GeneratedAt:       time.Now().UTC(),
	}

	// No evidence: fixed low confidence, canned answer, no completion call.
	if len(findings) == 0 {
		answer.Confidence = noEvidenceConfidence
		answer.Answer = s.noEvidenceAnswer(subject, report)
		return answer, nil
	}

	answer.Confidence = report.Overall.Score
	if len(findings) <= thinEvidenceThreshold && answer.Confidence > thinEvidenceCap {
		answer.Confidence = thinEvidenceCap
	}

	prompt := buildInsightPrompt(q.Question, subject, findings, report)
	text, err := s.llm.Complete(ctx, prompt, completionTemperature, completionMaxTokens)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			s.logger.Warn("completion failed, using finding fallback", zap.Error(err))
		}
		answer.Answer = fallbackAnswer(findings)
		return answer, nil
	}

	answer.Answer = strings.TrimSpace(text)
	return answer, nil
}

// retrieve fetches the top active correlations and contradictions for the
// subject and keeps the strongest maxFindingsUsed overall. A failed kind
// query degrades to "no findings of that kind" rather than aborting.
func (s *InsightService) retrieve(ctx context.Context, subject string) []domain.Finding {
	var subjectFilter *string
	if subject != "" {
		subjectFilter = &subject
	}

	minStrength := retrievalMinStrength
	corrKind := domain.FindingCorrelation
	correlations, err := s.findings.GetFindings(ctx, domain.FindingFilter{
		Kind:        &corrKind,
		Subject:     subjectFilter,
		MinStrength: &minStrength,
		Limit:       maxCorrelationsRetrieved,
	})
	if err != nil {
		s.logger.Warn("correlation retrieval failed", zap.Error(err))
	}

	contraKind := domain.FindingContradiction
	contradictions, err := s.findings.GetFindings(ctx, domain.FindingFilter{
		Kind:    &contraKind,
		Subject: subjectFilter,
		Limit:   maxContradictionsRetrieved,
	})
	if err != nil {
		s.logger.Warn("contradiction retrieval failed", zap.Error(err))
	}

	merged := append(correlations, contradictions...)
	sort.Slice(merged, func(i, j int) bool {
		return abs(merged[i].Strength) > abs(merged[j].Strength)
	})
	if len(merged) > maxFindingsUsed {
		merged = merged[:maxFindingsUsed]
	}
	return merged
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

const insightPromptHeader = `You are answering a personal self-understanding question using ONLY the numbered findings below. Rules:
- Every claim must cite the finding it comes from using its [F:id] tag.
- Do not state anything the findings do not support.
- These are correlations, not causes; say so where it matters.
- When a finding is weak (n < %d or |r| < %.1f), state explicitly that the evidence is weak.

Data quality: grade %s, %d of %d days covered.

Question: %s
`

func buildInsightPrompt(question, subject string, findings []domain.Finding, report *domain.HealthReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, insightPromptHeader,
		weakEvidenceN, weakEvidenceR,
		report.Overall.Grade, report.Coverage.TotalDays, report.Coverage.TargetDays,
		question,
	)
	if subject != "" {
		fmt.Fprintf(&sb, "Subject: %s\n", subject)
	}
	sb.WriteString("\nFindings:\n")
	for i := range findings {
		f := &findings[i]
		fmt.Fprintf(&sb, "%d. [F:%s] (%s, strength %.2f) %s\n",
			i+1, f.ID, f.Kind, f.Strength, f.Describe())
	}
	sb.WriteString("\nAnswer:")
	return sb.String()
}

// fallbackAnswer is the deterministic substitute when the completion
// provider fails: the top three findings rendered as plain sentences.
func fallbackAnswer(findings []domain.Finding) string {
	top := findings
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top))
	for i := range top {
		parts = append(parts, top[i].Describe())
	}
	return "Based on your recorded patterns: " + strings.Join(parts, "; ") + "."
}

func (s *InsightService) noEvidenceAnswer(subject string, report *domain.HealthReport) string {
	topic := "this"
	if subject != "" {
		topic = subject
	}
	return fmt.Sprintf(
		"There isn't enough recorded data yet to answer questions about %s with confidence. "+
			"Signals cover %d of the last %d days. Logging mood, energy, and task activity daily will let patterns surface.",
		topic, report.Coverage.TotalDays, report.Coverage.TargetDays,
	)
}

// followUps generates 2-4 rule-based follow-up questions keyed on the
// inferred subject and on what the retrieved findings contain.
func (s *InsightService) followUps(subject string, findings []domain.Finding) []string {
	var questions []string

	switch subject {
	case "energy":
		questions = append(questions, "Does my energy dip after busy days?")
	case "mood":
		questions = append(questions, "What tends to precede my low-mood days?")
	case "stress":
		questions = append(questions, "Which days of the week am I most stressed?")
	case "productivity":
		questions = append(questions, "When am I most productive?")
	case "sleep":
		questions = append(questions, "How does my sleep relate to my energy?")
	default:
		questions = append(questions, "How has my energy trended recently?")
	}

	hasContradiction := false
	hasStrong := false
	for i := range findings {
		if findings[i].Kind == domain.FindingContradiction {
			hasContradiction = true
		}
		if abs(findings[i].Strength) >= 0.5 {
			hasStrong = true
		}
	}
	if hasContradiction {
		questions = append(questions, "Which of my assumptions about myself don't hold up?")
	}
	if hasStrong {
		questions = append(questions, "What's the strongest pattern in my data right now?")
	}
	questions = append(questions, "What should I log more consistently?")

	if len(questions) > 4 {
		questions = questions[:4]
	}
	return questions
}

// GetQuickInsights is the synchronous, LLM-free fast path: the single
// strongest correlation, the unresolved contradiction count, and the
// data-quality grade.
func (s *InsightService) GetQuickInsights(ctx context.Context, subject string) (*domain.QuickInsights, error) {
	var subjectFilter *string
	if subject != "" {
		subjectFilter = &subject
	}

	corrKind := domain.FindingCorrelation
	correlations, err := s.findings.GetFindings(ctx, domain.FindingFilter{
		Kind:    &corrKind,
		Subject: subjectFilter,
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("top correlation: %w", err)
	}

	contradictions, err := s.findings.CountByKind(ctx, domain.FindingContradiction, domain.FindingActive)
	if err != nil {
		return nil, fmt.Errorf("count contradictions: %w", err)
	}

	report, err := s.health.Evaluate(ctx, DefaultTimeRangeDays)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}

	insights := &domain.QuickInsights{
		UnresolvedContradictions: contradictions,
		DataQuality:              report.Overall.Grade,
	}
	if len(correlations) > 0 {
		insights.TopCorrelation = &correlations[0]
	}
	return insights, nil
}
