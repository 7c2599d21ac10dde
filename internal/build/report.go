package build

import (
	"time"

	"git.home.luguber.info/inful/sitebuild/internal/diag"
)

// Outcome is the final status of a build cycle.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeWarning    Outcome = "warning"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuperseded Outcome = "superseded"
)

// Report summarizes one finished cycle.
type Report struct {
	CycleID  string
	Outcome  Outcome
	Full     bool
	Started  time.Time
	Finished time.Time

	DocsBuilt        int
	ArtifactsWritten int
	AssetsCopied     int

	// ChangedURLs lists the root-relative URLs whose output changed this
	// cycle, sorted and deduplicated.
	ChangedURLs []string

	Diagnostics []diag.Diagnostic
}

// Duration is the wall time of the cycle.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
