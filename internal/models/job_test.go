package models

import "testing"

func TestTerminal(t *testing.T) {
	cases := []struct {
		status JobStatus
		want   bool
	}{
		{JobPending, false},
		{JobProcessing, false},
		{JobCompleted, true},
		{JobFailed, true},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestRegresses(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobPending, JobProcessing, false},
		{JobProcessing, JobPending, true},
		{JobProcessing, JobCompleted, false},
		{JobCompleted, JobProcessing, true},
		{JobCompleted, JobFailed, false}, // equal rank, not a regression
		{JobPending, JobPending, false},
		{JobProcessing, JobStatus("bogus"), true}, // unknown never overwrites progress
	}
	for _, tc := range cases {
		if got := tc.from.Regresses(tc.to); got != tc.want {
			t.Errorf("%s -> %s regresses = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
