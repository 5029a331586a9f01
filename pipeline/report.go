package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Report summarizes one stage invocation. It is ephemeral; nothing in
// a run depends on a previous run's report.
type Report struct {
	// Attempted counts remote calls attempted (cache hits excluded).
	Attempted int

	// Succeeded counts items confirmed by the remote service.
	Succeeded int

	// Cached counts items skipped because a fresh cache entry existed.
	// Only the generator stage populates this.
	Cached int

	// FailedIds lists the ids that exhausted their error budget.
	FailedIds []string
}

// Failed returns the number of failed ids.
func (r *Report) Failed() int {
	return len(r.FailedIds)
}

// Summary combines the reports of a full pipeline run.
type Summary struct {
	RunId  string
	Embed  *Report
	Upload *Report
}

// Write prints the human-readable run summary, including the exact
// failed ids so an operator can re-run them with forced regeneration.
func (s *Summary) Write(w io.Writer) {
	fmt.Fprintf(w, "\nrun %s summary:\n", s.RunId)
	if s.Embed != nil {
		fmt.Fprintf(w, "  embedding:  embedded=%d cached=%d failed=%d\n",
			s.Embed.Succeeded, s.Embed.Cached, s.Embed.Failed())
	}
	if s.Upload != nil {
		fmt.Fprintf(w, "  upload:     inserted=%d/%d failed=%d\n",
			s.Upload.Succeeded, s.Upload.Attempted, s.Upload.Failed())
	}
	if s.Embed != nil && s.Embed.Failed() > 0 {
		fmt.Fprintf(w, "  embedding failures: %v\n", s.Embed.FailedIds)
	}
	if s.Upload != nil && s.Upload.Failed() > 0 {
		fmt.Fprintf(w, "  upload failures: %v\n", s.Upload.FailedIds)
	}
}

// failureDocument is the persisted record of a run's failed ids.
type failureDocument struct {
	RunId        string    `json:"runId"`
	GeneratedAt  time.Time `json:"generatedAt"`
	EmbedFailed  []string  `json:"embedFailed"`
	UploadFailed []string  `json:"uploadFailed"`
}

// WriteFailures persists the failed ids of this run as a JSON document
// for targeted re-runs. Writes nothing when the run was clean.
func (s *Summary) WriteFailures(path string, now time.Time) error {
	doc := failureDocument{
		RunId:       s.RunId,
		GeneratedAt: now.UTC(),
	}
	if s.Embed != nil {
		doc.EmbedFailed = s.Embed.FailedIds
	}
	if s.Upload != nil {
		doc.UploadFailed = s.Upload.FailedIds
	}
	if len(doc.EmbedFailed) == 0 && len(doc.UploadFailed) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding failure report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing failure report: %w", err)
	}
	return nil
}
