package session

import (
	"testing"
	"time"

	"voicecoach/internal/recordapi"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestDurationDerivedFromTimestamps(t *testing.T) {
	cases := []struct {
		name   string
		detail recordapi.CallDetail
		want   float64
	}{
		{
			name:   "five and a half minutes",
			detail: recordapi.CallDetail{StartedAt: ts("2025-01-01T00:00:00Z"), EndedAt: ts("2025-01-01T00:05:30Z")},
			want:   5.5,
		},
		{
			name:   "rounds to two decimals",
			detail: recordapi.CallDetail{StartedAt: ts("2025-01-01T00:00:00Z"), EndedAt: ts("2025-01-01T00:01:01Z")},
			want:   1.02,
		},
		{
			name:   "missing endedAt",
			detail: recordapi.CallDetail{StartedAt: ts("2025-01-01T00:00:00Z")},
			want:   0,
		},
		{
			name:   "missing startedAt",
			detail: recordapi.CallDetail{EndedAt: ts("2025-01-01T00:05:30Z")},
			want:   0,
		},
		{
			name:   "ended before started",
			detail: recordapi.CallDetail{StartedAt: ts("2025-01-01T00:10:00Z"), EndedAt: ts("2025-01-01T00:05:00Z")},
			want:   0,
		},
		{
			name:   "upstream-provided value wins",
			detail: recordapi.CallDetail{DurationMinutes: 7.25, StartedAt: ts("2025-01-01T00:00:00Z"), EndedAt: ts("2025-01-01T00:05:30Z")},
			want:   7.25,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := durationMinutes(tc.detail); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTransformRecordCopiesNestedFields(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	d := recordapi.CallDetail{
		Status:      recordapi.StatusEnded,
		Summary:     "summary",
		Transcript:  "transcript",
		EndedReason: "assistant-ended-call",
		StartedAt:   ts("2025-01-01T00:00:00Z"),
		EndedAt:     ts("2025-01-01T00:02:00Z"),
		Analysis:    recordapi.CallAnalysis{Summary: "scored 9/10"},
		Artifact:    recordapi.CallArtifact{Transcript: "full transcript"},
		Assistant:   recordapi.CallAssistant{ServerURL: "https://hooks.example.com", EndCallMessage: "goodbye"},
	}

	rec := transformRecord(d, now)
	if rec.FetchedAt != now {
		t.Fatalf("expected fetch time %v, got %v", now, rec.FetchedAt)
	}
	if rec.AnalysisSummary != "scored 9/10" || rec.ArtifactTranscript != "full transcript" {
		t.Fatalf("nested analysis fields lost: %+v", rec)
	}
	if rec.ServerURL != "https://hooks.example.com" || rec.EndCallMessage != "goodbye" {
		t.Fatalf("assistant fields lost: %+v", rec)
	}
	if rec.DurationMinutes != 2 {
		t.Fatalf("expected 2 minutes, got %v", rec.DurationMinutes)
	}
}
