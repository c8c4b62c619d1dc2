package pipeline

import "docclassifier-backend/internal/documents"

// Decision sources for the final label.
const (
	SourceSVM      = "svm"
	SourceOverride = "override"
)

// Result is the bundle returned by one pipeline run.
type Result struct {
	ContentHash    string             `json:"contentHash"`
	FileName       string             `json:"fileName"`
	ExtractedText  string             `json:"extractedText"`
	Preprocessed   string             `json:"preprocessedText"`
	Label          string             `json:"label"`
	Confidence     float64            `json:"confidence"`
	DecisionSource string             `json:"decisionSource"`
	Summary        string             `json:"summary"`
	CreditsUsed    int                `json:"creditsUsed"`
	Balance        int                `json:"balance"`
	Document       documents.Document `json:"document"`
}

// BatchOutcome reports what happened to one file of a batch run.
type BatchOutcome struct {
	ContentHash string  `json:"contentHash"`
	FileName    string  `json:"fileName"`
	Status      string  `json:"status"` // success | skipped | failure
	Reason      string  `json:"reason,omitempty"`
	Result      *Result `json:"result,omitempty"`
}

// Batch outcome statuses.
const (
	BatchSuccess = "success"
	BatchSkipped = "skipped"
	BatchFailure = "failure"
)
