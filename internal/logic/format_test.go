package logic

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "less than a minute"},
		{30 * time.Second, "less than a minute"},
		{59*time.Second + 999*time.Millisecond, "less than a minute"},
		{60 * time.Second, "1 minutes"},
		{90 * time.Second, "1 minutes"},
		{119 * time.Second, "1 minutes"},
		{3600 * time.Second, "1 hours"},
		{3661 * time.Second, "1 hours 1 minutes"},
		{7200 * time.Second, "2 hours"},
		{7259 * time.Second, "2 hours"},
		{49*time.Hour + 5*time.Minute, "49 hours 5 minutes"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	loss := FormatMessage(DirectionLoss, 90*time.Second)
	if loss != "🔴 Power is OFF\nIt was on for 1 minutes" {
		t.Errorf("unexpected loss message %q", loss)
	}

	back := FormatMessage(DirectionRestoration, 3661*time.Second)
	if back != "🟢 Power is BACK\nIt was off for 1 hours 1 minutes" {
		t.Errorf("unexpected restoration message %q", back)
	}

	other := FormatMessage(Direction("SOMETHING"), 0)
	if !strings.Contains(other, "less than a minute") {
		t.Errorf("unexpected fallback message %q", other)
	}
}
