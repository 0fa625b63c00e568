package model_test

import (
	"testing"

	"github.com/raysh454/sitecheck/internal/model"
)

func TestTestType_Valid(t *testing.T) {
	t.Parallel()
	for _, tt := range model.TestTypes {
		if !tt.Valid() {
			t.Errorf("%q should be valid", tt)
		}
	}
	for _, bad := range []model.TestType{"", "load", "Performance"} {
		if bad.Valid() {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()
	cases := map[model.Status]bool{
		model.StatusPending:   false,
		model.StatusRunning:   false,
		model.StatusCompleted: true,
		model.StatusFailed:    true,
	}
	for s, want := range cases {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestTestRecord_CloneIsIndependent(t *testing.T) {
	t.Parallel()
	score := 80
	r := &model.TestRecord{
		ID:         "a",
		Parameters: map[string]any{"scanType": "baseline"},
		Score:      &score,
	}
	cp := r.Clone()
	cp.Parameters["scanType"] = "full"
	*cp.Score = 10

	if r.Parameters["scanType"] != "baseline" {
		t.Errorf("clone shares parameters map")
	}
	if *r.Score != 80 {
		t.Errorf("clone shares score pointer")
	}
	if (*model.TestRecord)(nil).Clone() != nil {
		t.Errorf("nil clone should be nil")
	}
}
