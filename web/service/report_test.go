package service

import (
	"testing"
	"time"

	"github.com/maintainview/maintainview/util/signer"
)

func TestAlertLevel(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		date      time.Time
		wantLevel string
		wantDays  int
	}{
		{"far future", now.AddDate(0, 0, 60), "", 60},
		{"inside warning window", now.AddDate(0, 0, 20), "warning", 20},
		{"warning boundary", now.AddDate(0, 0, 30), "warning", 30},
		{"inside danger window", now.AddDate(0, 0, 3), "danger", 3},
		{"danger boundary", now.AddDate(0, 0, 7), "danger", 7},
		{"today", now, "danger", 0},
		{"overdue", now.AddDate(0, 0, -5), "danger", -5},
		{"danger boundary at end of day", now.AddDate(0, 0, 7).Add(23 * time.Hour), "danger", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, days := alertLevel(tt.date, now, 30, 7)
			if level != tt.wantLevel || days != tt.wantDays {
				t.Errorf("alertLevel() = %q, %d; want %q, %d", level, days, tt.wantLevel, tt.wantDays)
			}
		})
	}
}

// Days count between calendar dates, not 24h blocks from the current
// instant: late in the day, a deadline 31 calendar days out must still sit
// outside a 30-day warning window.
func TestAlertLevelUsesCalendarDates(t *testing.T) {
	now := time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC)
	deadline := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)

	level, days := alertLevel(deadline, now, 30, 7)
	if level != "" || days != 31 {
		t.Errorf("alertLevel() = %q, %d; want \"\", 31", level, days)
	}
}

func TestFileTokenRoundtrip(t *testing.T) {
	InitFileTokens("test secret")
	svc := FileService{}

	token := svc.IssueToken(123)
	id, ok := svc.ResolveToken(token)
	if !ok || id != 123 {
		t.Errorf("ResolveToken = %d, %v; want 123, true", id, ok)
	}

	if _, ok := svc.ResolveToken("not-a-token"); ok {
		t.Error("garbage token resolved")
	}
	if _, ok := svc.ResolveToken(""); ok {
		t.Error("empty token resolved")
	}
}

// A session cookie must never resolve as a file token even though both are
// minted from the same server secret.
func TestFileTokenRejectsSessionTokens(t *testing.T) {
	InitFileTokens("shared secret")
	svc := FileService{}

	sessionLike := signer.New("shared secret", "maintainview-session").EncodeID(123)
	if _, ok := svc.ResolveToken(sessionLike); ok {
		t.Error("session-salt token resolved as file token")
	}
}
