package recordapi

import "time"

// CallStatus is the raw upstream status string.
// StatusEnded is the only value that means post-processing has finished.
const StatusEnded = "ended"

// CallDetail is the upstream record for one call, as returned by
// GET /call/{id}. Fields the upstream omits come back as zero values;
// shape violations are rejected at decode time instead.
type CallDetail struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Summary     string `json:"summary"`
	Transcript  string `json:"transcript"`
	EndedReason string `json:"endedReason"`

	StartedAt *time.Time `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`

	// Some upstream variants precompute this; when absent the caller
	// derives it from the timestamps.
	DurationMinutes float64 `json:"durationMinutes"`

	Analysis  CallAnalysis  `json:"analysis"`
	Artifact  CallArtifact  `json:"artifact"`
	Assistant CallAssistant `json:"assistant"`
}

type CallAnalysis struct {
	Summary string `json:"summary"`
}

type CallArtifact struct {
	Transcript string `json:"transcript"`
}

type CallAssistant struct {
	ServerURL      string `json:"serverUrl"`
	EndCallMessage string `json:"endCallMessage"`
}

// Assistant is one selectable assistant configuration from GET /assistant.
type Assistant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
