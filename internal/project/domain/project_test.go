package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStatusAt_Derived(t *testing.T) {
	p := &Project{StartDate: date(2026, 3, 1), EndDate: date(2026, 6, 30)}

	if got := p.StatusAt(date(2026, 2, 10)); got != StatusPending {
		t.Errorf("before start = %q, want pending", got)
	}
	if got := p.StatusAt(date(2026, 4, 15)); got != StatusOngoing {
		t.Errorf("inside range = %q, want ongoing", got)
	}
	if got := p.StatusAt(date(2026, 6, 30)); got != StatusOngoing {
		t.Errorf("last day = %q, want ongoing", got)
	}
	if got := p.StatusAt(date(2026, 7, 1)); got != StatusOverdue {
		t.Errorf("after end = %q, want overdue", got)
	}
}

func TestStatusAt_ManualWins(t *testing.T) {
	p := &Project{StartDate: date(2026, 3, 1), EndDate: date(2026, 6, 30), ManualStatus: StatusDone}
	if got := p.StatusAt(date(2026, 4, 15)); got != StatusDone {
		t.Errorf("manual done = %q, want done", got)
	}

	p.ManualStatus = StatusDeleted
	if got := p.StatusAt(date(2026, 4, 15)); got != StatusDeleted {
		t.Errorf("manual deleted = %q, want false marker", got)
	}
}

func TestValidate(t *testing.T) {
	valid := &Project{OrgID: 1, Name: "Winterization", StartDate: date(2026, 1, 1), EndDate: date(2026, 2, 1)}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid project rejected: %v", err)
	}

	backwards := &Project{OrgID: 1, Name: "x", StartDate: date(2026, 2, 1), EndDate: date(2026, 1, 1)}
	if err := backwards.Validate(); err == nil {
		t.Error("end before start should fail")
	}

	badManual := &Project{OrgID: 1, Name: "x", StartDate: date(2026, 1, 1), EndDate: date(2026, 2, 1), ManualStatus: StatusOngoing}
	if err := badManual.Validate(); err == nil {
		t.Error("derived status as manual should fail")
	}
}

func TestManual(t *testing.T) {
	for _, s := range []Status{StatusDone, StatusSuspended, StatusDeleted} {
		if !s.Manual() {
			t.Errorf("%q should be manual", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusOngoing, StatusOverdue, ""} {
		if s.Manual() {
			t.Errorf("%q should not be manual", s)
		}
	}
}
