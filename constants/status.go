package constants

// ProcessingStatus is the canonical status for rows in uploads.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    ProcessingStatus = "pending"    // record created by the upload flow, not yet claimed
	StatusProcessing ProcessingStatus = "processing" // conversion in progress
	StatusCompleted  ProcessingStatus = "completed"  // terminal success
	StatusFailed     ProcessingStatus = "failed"     // terminal failure
)

// IsTerminal reports whether no further transition is expected from s.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
