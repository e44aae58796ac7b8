package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selflens/selflens/internal/domain"
	"github.com/selflens/selflens/internal/llm"
	"go.uber.org/zap"
)

func seedCorrelation(t *testing.T, store *memFindingStore, subject, object string, r float64, n int, strength float64) domain.Finding {
	t.Helper()
	f := &domain.Finding{
		Kind:      domain.FindingCorrelation,
		Subject:   subject,
		Predicate: PredicateChangesAfter,
		Object:    object,
		Stats:     domain.FindingStats{R: r, N: n, Direction: direction(r)},
		Strength:  strength,
	}
	require.NoError(t, store.Upsert(context.Background(), f))
	return *f
}

func newInsightService(findings *memFindingStore, health domain.HealthEvaluator, client domain.CompletionClient) *InsightService {
	return NewInsightService(findings, health, client, zap.NewNop())
}

func TestInferSubject(t *testing.T) {
	cases := []struct {
		question string
		want     string
	}{
		{"Why am I so tired on Thursdays?", "energy"},
		{"What drains my energy?", "energy"},
		{"Why do I feel sad after busy weeks?", "mood"},
		{"Am I anxious more often lately?", "mood"},
		{"What overwhelms me?", "stress"},
		{"When am I most productive?", "productivity"},
		{"Does work affect my evenings?", "productivity"},
		{"Is my rest improving?", "sleep"},
		// Substring match: "interesting" carries "rest".
		{"Tell me something interesting", "sleep"},
		{"Tell me a fun fact", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, InferSubject(tc.question), "question: %q", tc.question)
	}
}

func TestAnswerWithCitations_NoEvidence(t *testing.T) {
	findings := newMemFindingStore()
	health := &stubHealthEvaluator{report: healthReport(0.2, "F", 3, 30)}
	client := llm.NewMockClient()

	svc := newInsightService(findings, health, client)
	answer, err := svc.AnswerWithCitations(context.Background(), domain.InsightQuery{
		Question: "Why am I tired?",
	})
	require.NoError(t, err)

	assert.Equal(t, noEvidenceConfidence, answer.Confidence)
	assert.Empty(t, answer.Citations)
	assert.Contains(t, answer.Answer, "isn't enough recorded data")
	assert.Contains(t, answer.Answer, "energy")
	// No evidence means no completion call at all.
	assert.Empty(t, client.CompleteCalls)
}

func TestAnswerWithCitations_ThinEvidenceCapsConfidence(t *testing.T) {
	findings := newMemFindingStore()
	seedCorrelation(t, findings, "energy", "high_task_volume", -0.6, 25, 0.8)
	health := &stubHealthEvaluator{report: healthReport(0.9, "A", 28, 30)}
	client := llm.NewMockClient()

	svc := newInsightService(findings, health, client)
	answer, err := svc.AnswerWithCitations(context.Background(), domain.InsightQuery{
		Question: "Why am I tired after busy days?",
	})
	require.NoError(t, err)

	assert.Equal(t, thinEvidenceCap, answer.Confidence)
	assert.Len(t, answer.Citations, 1)
	assert.Equal(t, 1, answer.DataQuality.FindingsUsed)
}

func TestAnswerWithCitations_SynthesizesWithCitations(t *testing.T) {
	findings := newMemFindingStore()
	f1 := seedCorrelation(t, findings, "energy", "high_task_volume", -0.6, 25, 0.8)
	seedCorrelation(t, findings, "energy", "meeting_load", -0.3, 22, 0.4)
	seedCorrelation(t, findings, "energy", "stressor_events", -0.28, 21, 0.35)
	health := &stubHealthEvaluator{report: healthReport(0.85, "B", 26, 30)}
	client := llm.NewMockClient()

	svc := newInsightService(findings, health, client)
	answer, err := svc.AnswerWithCitations(context.Background(), domain.InsightQuery{
		Question: "Why am I tired after busy days?",
	})
	require.NoError(t, err)

	assert.Equal(t, client.CompleteResponse, answer.Answer)
	assert.Equal(t, 0.85, answer.Confidence, "three findings should not trip the thin-evidence cap")
	assert.Len(t, answer.Citations, 3)
	// Strongest first.
	assert.Equal(t, f1.ID, answer.Citations[0].FindingID)
	assert.Equal(t, "B", answer.DataQuality.Grade)

	require.Len(t, client.CompleteCalls, 1)
	call := client.CompleteCalls[0]
	assert.Equal(t, completionTemperature, call.Temperature)
	assert.Equal(t, completionMaxTokens, call.MaxTokens)
	assert.Contains(t, call.Prompt, "[F:"+f1.ID.String()+"]")
	assert.Contains(t, call.Prompt, "Why am I tired after busy days?")
	assert.Contains(t, call.Prompt, "grade B")
}

func TestAnswerWithCitations_CompletionFailureFallsBack(t *testing.T) {
	findings := newMemFindingStore()
	f := seedCorrelation(t, findings, "energy", "high_task_volume", -0.6, 25, 0.8)
	health := &stubHealthEvaluator{report: healthReport(0.85, "B", 26, 30)}
	client := llm.NewMockClient()
	client.CompleteError = errors.New("provider unavailable")

	svc := newInsightService(findings, health, client)
	answer, err := svc.AnswerWithCitations(context.Background(), domain.InsightQuery{
		Question: "Why am I tired?",
	})
	require.NoError(t, err, "provider failure must not surface")

	assert.Contains(t, answer.Answer, "Based on your recorded patterns")
	assert.Contains(t, answer.Answer, f.Describe())
	assert.Len(t, answer.Citations, 1)
}

func TestAnswerWithCitations_EmptyCompletionFallsBack(t *testing.T) {
	findings := newMemFindingStore()
	seedCorrelation(t, findings, "energy", "high_task_volume", -0.6, 25, 0.8)
	health := &stubHealthEvaluator{report: healthReport(0.85, "B", 26, 30)}
	client := llm.NewMockClient()
	client.CompleteResponse = "   \n"

	svc := newInsightService(findings, health, client)
	answer, err := svc.AnswerWithCitations(context.Background(), domain.InsightQuery{
		Question: "Why am I tired?",
	})
	require.NoError(t, err)
	assert.Contains(t, answer.Answer, "Based on your recorded patterns")
}

func TestAnswerWithCitations_HealthFailureDegrades(t *testing.T) {
	findings := newMemFindingStore()
	seedCorrelation(t, findings, "energy", "high_task_volume", -0.6, 25, 0.8)
	health := &stubHealthEvaluator{err: errors.New("evaluator down")}
	client := llm.NewMockClient()

	svc := newInsightService(findings, health, client)
	answer, err := svc.AnswerWithCitations(context.Background(), domain.InsightQuery{
		Question: "Why am I tired?",
	})
	require.NoError(t, err, "evaluator failure must not surface")
	assert.NotEmpty(t, answer.Answer)
	assert.Len(t, answer.Citations, 1)
	assert.Empty(t, answer.DataQuality.Grade)
}

func TestFollowUps_Bounds(t *testing.T) {
	findings := newMemFindingStore()
	svc := newInsightService(findings, &stubHealthEvaluator{report: healthReport(0.5, "C", 15, 30)}, llm.NewMockClient())

	strong := []domain.Finding{
		{Kind: domain.FindingCorrelation, Strength: 0.7},
		{Kind: domain.FindingContradiction, Strength: 0.3},
	}
	for _, subject := range []string{"energy", "mood", "stress", "productivity", "sleep", ""} {
		qs := svc.followUps(subject, strong)
		assert.GreaterOrEqual(t, len(qs), 2, "subject %q", subject)
		assert.LessOrEqual(t, len(qs), 4, "subject %q", subject)

		none := svc.followUps(subject, nil)
		assert.GreaterOrEqual(t, len(none), 2, "subject %q with no findings", subject)
		assert.LessOrEqual(t, len(none), 4, "subject %q with no findings", subject)
	}
}

func TestGetQuickInsights(t *testing.T) {
	findings := newMemFindingStore()
	top := seedCorrelation(t, findings, "energy", "high_task_volume", -0.6, 25, 0.8)
	seedCorrelation(t, findings, "energy", "meeting_load", -0.3, 22, 0.4)
	health := &stubHealthEvaluator{report: healthReport(0.8, "B", 25, 30)}

	svc := newInsightService(findings, health, llm.NewMockClient())
	quick, err := svc.GetQuickInsights(context.Background(), "energy")
	require.NoError(t, err)

	require.NotNil(t, quick.TopCorrelation)
	assert.Equal(t, top.ID, quick.TopCorrelation.ID)
	assert.Equal(t, 0, quick.UnresolvedContradictions)
	assert.Equal(t, "B", quick.DataQuality)
}

func TestBuildInsightPrompt_WeakEvidenceRule(t *testing.T) {
	findings := []domain.Finding{
		{Kind: domain.FindingCorrelation, Subject: "energy", Object: "meeting_load",
			Stats: domain.FindingStats{R: -0.28, N: 21, Direction: "down"}, Strength: 0.35},
	}
	prompt := buildInsightPrompt("Why am I tired?", "energy", findings, healthReport(0.8, "B", 25, 30))

	assert.True(t, strings.Contains(prompt, "n < 30"), "prompt must state the weak-evidence sample threshold")
	assert.True(t, strings.Contains(prompt, "|r| < 0.3"), "prompt must state the weak-evidence effect threshold")
	assert.Contains(t, prompt, "Subject: energy")
	assert.Contains(t, prompt, "correlations, not causes")
}
