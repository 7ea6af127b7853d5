package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded      DocumentStatus = "UPLOADED"
	StatusProcessing    DocumentStatus = "PROCESSING"
	StatusPendingReview DocumentStatus = "PENDING_REVIEW"
	StatusApproved      DocumentStatus = "APPROVED"
	StatusRejected      DocumentStatus = "REJECTED"
	StatusFailed        DocumentStatus = "FAILED"
)

// Known document types. "general" is the fallback for uploads that do not
// declare a type.
const (
	TypeLoanApplication  = "loan_application"
	TypeLegalContract    = "legal_contract"
	TypeGrantApplication = "grant_application"
	TypeInsuranceClaim   = "insurance_claim"
	TypeGeneral          = "general"
)

var knownDocumentTypes = map[string]struct{}{
	TypeLoanApplication:  {},
	TypeLegalContract:    {},
	TypeGrantApplication: {},
	TypeInsuranceClaim:   {},
	TypeGeneral:          {},
}

func IsKnownDocumentType(documentType string) bool {
	_, ok := knownDocumentTypes[documentType]
	return ok
}

type Document struct {
	ID               string          `json:"document_id"`
	Filename         string          `json:"filename"`
	DocumentType     string          `json:"document_type"`
	Status           DocumentStatus  `json:"status"`
	StoragePath      string          `json:"-"`
	FileType         string          `json:"file_type,omitempty"`
	FileSize         int64           `json:"file_size,omitempty"`
	ExtractedText    string          `json:"extracted_text,omitempty"`
	Classification   *Classification `json:"classification,omitempty"`
	AISummary        string          `json:"ai_summary,omitempty"`
	RiskScore        *int            `json:"risk_score,omitempty"`
	ReviewerComments string          `json:"reviewer_comments,omitempty"`
	UploadedAt       time.Time       `json:"uploaded_at"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty"`
}

// Classification is the structured result of the classification stage.
type Classification struct {
	Confidence        float64  `json:"confidence"`
	KeyEntities       []string `json:"key_entities"`
	DocumentCategory  string   `json:"document_category"`
	RequiresReview    bool     `json:"requires_review"`
	CompletenessScore float64  `json:"completeness_score"`
}

// RiskAssessment is the AI-derived signal consumed by the risk scoring stage.
// Each factor contributes 0-25 points; total is 0-100 where higher means riskier.
type RiskAssessment struct {
	TotalScore      int         `json:"total_score"`
	RiskLevel       string      `json:"risk_level"`
	Factors         RiskFactors `json:"factors"`
	Concerns        []string    `json:"concerns"`
	Recommendations []string    `json:"recommendations"`
}

type RiskFactors struct {
	Completeness       int `json:"completeness"`
	Compliance         int `json:"compliance"`
	FinancialViability int `json:"financial_viability"`
	RedFlags           int `json:"red_flags"`
}

// RiskResult is the routing decision committed by the risk scoring stage.
type RiskResult struct {
	Score       int
	Status      DocumentStatus
	Comment     string
	ProcessedAt time.Time
	ApprovedAt  *time.Time
}
