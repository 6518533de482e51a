package llm

import "context"

// AnalysisFields is the normalized shape we want from the LLM.
type AnalysisFields struct {
	Entities       map[string][]string `json:"entities"`
	Summary        string              `json:"summary"`
	Classification string              `json:"classification"`
	Confidence     float32             `json:"confidence,omitempty"` // optional (0..1)
}

type AnalyzeRequest struct {
	Text         string
	DocumentType string
	FilenameHint string
}

// Analyzer is the interface the extraction pipeline depends on.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisFields, []byte /*rawJSON*/, error)
}
