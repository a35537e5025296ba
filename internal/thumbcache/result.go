package thumbcache

import "time"

// Outcome summarizes how a run ended.
type Outcome string

const (
	// OutcomeGenerated means the map was regenerated and persisted.
	OutcomeGenerated Outcome = "generated"
	// OutcomeSkipped means nothing was dirty and the cached map was reused.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeListError means the videos could not be listed.
	OutcomeListError Outcome = "list_error"
	// OutcomePersistError means the regenerated map could not be saved.
	OutcomePersistError Outcome = "persist_error"
	// OutcomeConfigError means the configuration could not be read.
	OutcomeConfigError Outcome = "config_error"
	// OutcomePanic means the run panicked.
	OutcomePanic Outcome = "panic"
	// OutcomeCleared means the operation was Clear rather than a refresh.
	OutcomeCleared Outcome = "cleared"
)

// Result is shared by every caller of one run.
type Result struct {
	Outcome   Outcome `json:"outcome"`
	Forced    bool    `json:"forced"`
	Generated bool    `json:"generated"`

	// Generation counters, zero when generation did not run.
	Videos     int `json:"videos"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Duplicates int `json:"duplicates"`

	// Entries is the size of the map that was materialized.
	Entries int `json:"entries"`
	// Handles is how many entries were materialized successfully.
	Handles int `json:"handles"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	Err error `json:"-"`
}

// ErrorMessage returns the run's error message, or "" on success.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
