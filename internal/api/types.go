package api

import "media_sync/internal/domain"

// KindResult is the JSON view of one kind's sync outcome.
type KindResult struct {
	Processed  int    `json:"processed"`
	Inserted   int    `json:"inserted"`
	Updated    int    `json:"updated"`
	Errors     int    `json:"errors"`
	Published  int    `json:"published"`
	DurationMS int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

type SyncResponse struct {
	Message string                     `json:"message"`
	RunID   string                     `json:"run_id"`
	Results map[domain.Kind]KindResult `json:"results"`
}

type PurgeAllResponse struct {
	Message string                `json:"message"`
	Deleted map[domain.Kind]int64 `json:"deleted"`
	Total   int64                 `json:"total"`
}

type PurgeKindResponse struct {
	Kind    domain.Kind `json:"kind"`
	Deleted int64       `json:"deleted"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func newSyncResponse(summary *domain.RunSummary) SyncResponse {
	results := make(map[domain.Kind]KindResult, len(summary.Results))
	for kind, r := range summary.Results {
		kr := KindResult{
			Processed:  r.Processed,
			Inserted:   r.Inserted,
			Updated:    r.Updated,
			Errors:     r.Errors,
			Published:  r.Published,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			kr.Error = r.Err.Error()
		}
		results[kind] = kr
	}

	return SyncResponse{
		Message: "Media sync completed",
		RunID:   summary.RunID,
		Results: results,
	}
}
