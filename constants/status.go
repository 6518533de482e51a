package constants

// DocumentStatus is the canonical status for rows in documents.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentPending    DocumentStatus = "pending"    // accepted, not yet dispatched
	DocumentProcessing DocumentStatus = "processing" // extraction in flight
	DocumentCompleted  DocumentStatus = "completed"  // terminal success
	DocumentFailed     DocumentStatus = "failed"     // terminal failure, retryable
	DocumentCancelled  DocumentStatus = "cancelled"  // terminal, set on batch cancellation
)

// BatchStatus is the canonical status for rows in batches.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
	BatchCancelled  BatchStatus = "cancelled"
)

// documentTransitions encodes every legal document transition. failed -> pending
// exists only for explicit retry; cancelled is reachable from any non-terminal
// state while batch cancellation is active.
var documentTransitions = map[DocumentStatus]map[DocumentStatus]bool{
	DocumentPending:    {DocumentProcessing: true, DocumentCancelled: true},
	DocumentProcessing: {DocumentCompleted: true, DocumentFailed: true, DocumentCancelled: true},
	DocumentFailed:     {DocumentPending: true},
}

var batchTransitions = map[BatchStatus]map[BatchStatus]bool{
	BatchPending:    {BatchProcessing: true, BatchCancelled: true},
	BatchProcessing: {BatchCompleted: true, BatchFailed: true, BatchCancelled: true},
}

// CanTransitionDocument reports whether from -> to is a legal document transition.
func CanTransitionDocument(from, to DocumentStatus) bool {
	return documentTransitions[from][to]
}

// CanTransitionBatch reports whether from -> to is a legal batch transition.
func CanTransitionBatch(from, to BatchStatus) bool {
	return batchTransitions[from][to]
}

// IsTerminalDocument reports whether no automatic transition leaves the status.
// failed counts as terminal: the retry edge exists but is never taken automatically.
func IsTerminalDocument(s DocumentStatus) bool {
	return s == DocumentCompleted || s == DocumentFailed || s == DocumentCancelled
}

func IsTerminalBatch(s BatchStatus) bool {
	return s == BatchCompleted || s == BatchFailed || s == BatchCancelled
}

// ValidBatchStatus reports whether s is a known batch status (for query filters).
func ValidBatchStatus(s string) bool {
	switch BatchStatus(s) {
	case BatchPending, BatchProcessing, BatchCompleted, BatchFailed, BatchCancelled:
		return true
	}
	return false
}
