package domain

import "time"

// SyncRunResult holds the counts of a single kind's sync.
type SyncRunResult struct {
	Kind      Kind
	Processed int
	Inserted  int
	Updated   int
	Errors    int
	Published int
	Duration  time.Duration
	// Err is set when the whole kind failed, e.g. the fetch.
	Err error
}

// Total is the number of records written by the run.
func (r SyncRunResult) Total() int {
	return r.Inserted + r.Updated
}

// RunSummary aggregates the per-kind results of one SyncAll invocation.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Results   map[Kind]SyncRunResult
}

func (s *RunSummary) Processed() int {
	n := 0
	for _, r := range s.Results {
		n += r.Processed
	}
	return n
}

func (s *RunSummary) Inserted() int {
	n := 0
	for _, r := range s.Results {
		n += r.Inserted
	}
	return n
}

func (s *RunSummary) Updated() int {
	n := 0
	for _, r := range s.Results {
		n += r.Updated
	}
	return n
}

func (s *RunSummary) Errors() int {
	n := 0
	for _, r := range s.Results {
		n += r.Errors
	}
	return n
}

// FailedKinds lists kinds whose sync aborted as a whole.
func (s *RunSummary) FailedKinds() []Kind {
	var failed []Kind
	for _, k := range AllKinds() {
		if r, ok := s.Results[k]; ok && r.Err != nil {
			failed = append(failed, k)
		}
	}
	return failed
}

// SyncState is the per-kind bookkeeping persisted after each kind sync.
type SyncState struct {
	ID           int64     `db:"id"`
	Kind         Kind      `db:"kind"`
	LastSyncedAt time.Time `db:"last_synced_at"`
	TotalSynced  int64     `db:"total_synced"`
}

// Stats is the read-only aggregate exposed to operators.
type Stats struct {
	Total    int64          `json:"total"`
	PerKind  map[Kind]int64 `json:"perKind"`
	LastSync *time.Time     `json:"lastSync"`
}

// PurgeResult reports deleted record counts.
type PurgeResult struct {
	PerKind map[Kind]int64 `json:"perKind"`
	Total   int64          `json:"total"`
}

// ErrorLogEntry is a persisted record of a failed operation.
type ErrorLogEntry struct {
	ID               int64     `db:"id"`
	PageName         string    `db:"page_name"`
	EventName        string    `db:"event_name"`
	ErrorInformation string    `db:"error_information"`
	CreatedBy        string    `db:"created_by"`
	CreatedDate      time.Time `db:"created_date"`
}
