package session

import (
	"math"
	"time"

	"voicecoach/internal/recordapi"
)

// Phase is the controller's position in the call lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseStarting   Phase = "starting"
	PhaseInCall     Phase = "in_call"
	PhaseEnded      Phase = "ended"
	PhaseSummarized Phase = "summarized"
)

// Assistant is a selectable assistant configuration, as the
// presentation layer sees it.
type Assistant struct {
	AssistantID   string `json:"assistant_id"`
	AssistantName string `json:"assistant_name"`
}

// CallRecord is the finalized artifact for a completed call.
// Immutable once published; cleared on reset.
type CallRecord struct {
	FetchedAt time.Time `json:"fetched_at"`

	Status      string `json:"status"`
	Summary     string `json:"summary"`
	Transcript  string `json:"transcript"`
	EndedReason string `json:"ended_reason"`

	AnalysisSummary    string `json:"analysis_summary"`
	ArtifactTranscript string `json:"artifact_transcript"`

	ServerURL      string `json:"server_url"`
	EndCallMessage string `json:"end_call_message"`

	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	DurationMinutes float64 `json:"duration_minutes"`
}

// Snapshot is a point-in-time copy of controller state for rendering.
type Snapshot struct {
	Phase             Phase       `json:"phase"`
	CallID            string      `json:"call_id,omitempty"`
	SelectedAssistant string      `json:"selected_assistant,omitempty"`
	Loading           bool        `json:"loading"`
	Error             string      `json:"error,omitempty"`
	Assistants        []Assistant `json:"assistants"`
	Record            *CallRecord `json:"record,omitempty"`
}

// transformRecord maps the raw upstream record into the canonical shape.
func transformRecord(d recordapi.CallDetail, now time.Time) CallRecord {
	return CallRecord{
		FetchedAt:          now,
		Status:             d.Status,
		Summary:            d.Summary,
		Transcript:         d.Transcript,
		EndedReason:        d.EndedReason,
		AnalysisSummary:    d.Analysis.Summary,
		ArtifactTranscript: d.Artifact.Transcript,
		ServerURL:          d.Assistant.ServerURL,
		EndCallMessage:     d.Assistant.EndCallMessage,
		StartedAt:          d.StartedAt,
		EndedAt:            d.EndedAt,
		DurationMinutes:    durationMinutes(d),
	}
}

// durationMinutes prefers the upstream-provided value; otherwise it is
// derived from the timestamps, rounded to two decimals. Missing
// timestamps yield 0.
func durationMinutes(d recordapi.CallDetail) float64 {
	if d.DurationMinutes > 0 {
		return d.DurationMinutes
	}
	if d.StartedAt == nil || d.EndedAt == nil {
		return 0
	}
	mins := d.EndedAt.Sub(*d.StartedAt).Minutes()
	if mins < 0 {
		return 0
	}
	return math.Round(mins*100) / 100
}
