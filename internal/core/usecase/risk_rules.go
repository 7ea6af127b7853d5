package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/akulagin/docflow/internal/core/domain"
)

// Routing thresholds. Below autoApproveThreshold the document is approved
// without human involvement; at or above highRiskThreshold the reviewer
// comment carries a concern summary.
const (
	autoApproveThreshold = 30
	highRiskThreshold    = 70
)

// Relative weights of the AI assessment and the rule-based signal when
// blending the final score.
const (
	aiSignalWeight   = 7
	ruleSignalWeight = 3
)

const thinContentLength = 120

// Inherent exposure per document type before any content signal.
var typeBaseRisk = map[string]int{
	domain.TypeInsuranceClaim:   40,
	domain.TypeLegalContract:    35,
	domain.TypeLoanApplication:  30,
	domain.TypeGrantApplication: 25,
	domain.TypeGeneral:          20,
}

// Keyword penalties applied to lowercased extracted text.
var flaggedKeywords = map[string]int{
	"fraud":         15,
	"bankruptcy":    12,
	"offshore":      12,
	"lawsuit":       10,
	"wire transfer": 10,
	"cash only":     10,
	"penalty":       8,
	"default":       8,
	"urgent":        5,
	"confidential":  5,
}

// ComputeRiskScore blends the AI assessment with rule-based signals into
// the final integer score in [0,100].
func ComputeRiskScore(doc *domain.Document, assessment domain.RiskAssessment) int {
	ai := clampScore(assessment.TotalScore)
	rules := ruleScore(doc)
	blended := (ai*aiSignalWeight + rules*ruleSignalWeight) / (aiSignalWeight + ruleSignalWeight)
	return clampScore(blended)
}

func ruleScore(doc *domain.Document) int {
	score := typeBaseRisk[doc.DocumentType]
	text := strings.ToLower(doc.ExtractedText)
	for keyword, penalty := range flaggedKeywords {
		if strings.Contains(text, keyword) {
			score += penalty
		}
	}
	if len(text) < thinContentLength {
		score += 10
	}
	return clampScore(score)
}

// routeByScore turns a score into the committed routing decision. Rejection
// is never automatic; high scores only queue for human review.
func routeByScore(score int, assessment domain.RiskAssessment, now time.Time) domain.RiskResult {
	if score < autoApproveThreshold {
		approvedAt := now
		return domain.RiskResult{
			Score:       score,
			Status:      domain.StatusApproved,
			ProcessedAt: now,
			ApprovedAt:  &approvedAt,
			Comment: fmt.Sprintf("Auto-approved (risk score %d/100, level %s).",
				score, assessment.RiskLevel),
		}
	}

	result := domain.RiskResult{
		Score:       score,
		Status:      domain.StatusPendingReview,
		ProcessedAt: now,
	}
	if score >= highRiskThreshold {
		concerns := "no specific concerns reported"
		if len(assessment.Concerns) > 0 {
			concerns = strings.Join(assessment.Concerns, ", ")
		}
		result.Comment = fmt.Sprintf("High risk detected (score %d/100, level %s): %s",
			score, assessment.RiskLevel, concerns)
	}
	return result
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
