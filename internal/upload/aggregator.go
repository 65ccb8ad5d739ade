package upload

import "edupulse/lms-backend/internal/domain"

// Policy decides how the fan-out reacts to a failed (file, student) pair.
type Policy int

const (
	// PolicyFailFast aborts the remaining pairs on the first transfer
	// failure; the whole request is reported failed with the offending key.
	PolicyFailFast Policy = iota
	// PolicyBestEffort keeps going and reports a mixed per-pair result.
	PolicyBestEffort
)

// ResultSet is the aggregated response for one upload request.
type ResultSet struct {
	Videos          []domain.UploadOutcome `json:"videos"`
	FolderStructure string                 `json:"folderStructure"`
}

// Aggregator collects per-(file, student) outcomes in deterministic order
// (outer: files, inner: students). Request-scoped.
type Aggregator struct {
	policy    Policy
	outcomes  []domain.UploadOutcome
	aborted   bool
	failedKey string
}

func NewAggregator(policy Policy) *Aggregator {
	return &Aggregator{policy: policy}
}

// Add records one terminal outcome. Under PolicyFailFast the first failure
// flips the aggregator into the aborted state; callers must stop the
// fan-out once Aborted reports true.
func (a *Aggregator) Add(outcome domain.UploadOutcome) {
	if a.aborted {
		return
	}
	a.outcomes = append(a.outcomes, outcome)
	if outcome.Status == domain.UploadStatusFailed && a.policy == PolicyFailFast {
		a.aborted = true
		a.failedKey = outcome.S3Key
	}
}

// Aborted reports whether a fail-fast failure stopped the fan-out.
func (a *Aggregator) Aborted() bool {
	return a.aborted
}

// FailedKey returns the key of the pair that aborted the request, if any.
func (a *Aggregator) FailedKey() string {
	return a.failedKey
}

// Failed returns the outcomes that did not succeed.
func (a *Aggregator) Failed() []domain.UploadOutcome {
	var failed []domain.UploadOutcome
	for _, o := range a.outcomes {
		if o.Status == domain.UploadStatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Result builds the response payload.
func (a *Aggregator) Result(batchID, sessionNo string) *ResultSet {
	return &ResultSet{
		Videos:          a.outcomes,
		FolderStructure: FolderStructure(batchID, sessionNo),
	}
}
