package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if got := clock.Now(); !got.Equal(ReferenceTime()) {
		t.Fatalf("Now() = %v, want %v", got, ReferenceTime())
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2026, time.March, 14, 16, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	advanced := clock.Advance(90 * time.Second)
	if want := start.Add(90 * time.Second); !advanced.Equal(want) {
		t.Fatalf("Advance returned %v, want %v", advanced, want)
	}
	if got := clock.Now(); !got.Equal(advanced) {
		t.Fatalf("Now() = %v, want %v", got, advanced)
	}

	clock.Set(start)
	if got := clock.Now(); !got.Equal(start) {
		t.Fatalf("Now() after Set = %v, want %v", got, start)
	}
}

func TestClockNowFuncNilReceiver(t *testing.T) {
	var clock *Clock
	fn := clock.NowFunc()
	if fn == nil {
		t.Fatal("NowFunc on nil clock returned nil")
	}
	if fn().IsZero() {
		t.Fatal("nil clock NowFunc returned zero time")
	}
}
