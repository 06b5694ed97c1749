package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestQueueDelta(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     int
	}{
		{StatusInProgress, StatusCompleted, -1},
		{StatusPending, StatusCancelled, -1},
		{StatusInProgress, StatusReady, -1},
		{StatusCompleted, StatusInProgress, 1},
		{StatusCancelled, StatusPending, 1},
		{StatusPending, StatusConfirmed, 0},
		{StatusConfirmed, StatusInProgress, 0},
		{StatusCompleted, StatusCancelled, 0},
		{StatusReady, StatusReady, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := QueueDelta(tt.from, tt.to); got != tt.want {
				t.Fatalf("QueueDelta(%s, %s) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []RequestStatus{StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled, StatusReady} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if RequestStatus("shipped").Valid() {
		t.Fatal("shipped should be invalid")
	}
}

func TestStatusMessage(t *testing.T) {
	if got := StatusLabel(StatusInProgress); got != "IN PROGRESS" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := StatusMessage(StatusReady); got != "Your service request status is now READY" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestLeastLoaded(t *testing.T) {
	o1, o2, o3 := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name       string
		candidates []Candidate
		want       uuid.UUID
		wantOK     bool
	}{
		{name: "empty roster", wantOK: false},
		{name: "smallest queue wins", candidates: []Candidate{{o1, 2}, {o2, 0}}, want: o2, wantOK: true},
		{name: "ties go to roster order", candidates: []Candidate{{o1, 1}, {o2, 1}, {o3, 1}}, want: o1, wantOK: true},
		{name: "later strictly smaller", candidates: []Candidate{{o1, 3}, {o2, 1}, {o3, 1}}, want: o2, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LeastLoaded(tt.candidates)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("LeastLoaded() = (%s, %v), want (%s, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestEstimatedWait(t *testing.T) {
	if got := EstimatedWait(1, MinutesPerTask); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	if got := EstimatedWait(4, MinutesPerTask); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
}
