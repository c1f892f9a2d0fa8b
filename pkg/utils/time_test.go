package utils

import (
	"testing"
	"time"
)

func TestUnixMillisRoundTrip(t *testing.T) {
	ms := UnixMillis()
	got := FromUnixMillis(ms)
	if got.UnixMilli() != ms {
		t.Errorf("round trip mismatch: %d != %d", got.UnixMilli(), ms)
	}
}

func TestFromUnixMillis(t *testing.T) {
	want := time.Date(2024, 1, 15, 14, 30, 45, 0, time.UTC)
	got := FromUnixMillis(want.UnixMilli())
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestUnixMicrosRoundTrip(t *testing.T) {
	us := UnixMicros()
	got := FromUnixMicros(us)
	if got.UnixMicro() != us {
		t.Errorf("round trip mismatch: %d != %d", got.UnixMicro(), us)
	}
}

func TestToUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	t1 := time.Date(2024, 1, 15, 10, 0, 0, 0, loc)
	got := ToUTC(t1)
	if got.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", got.Location())
	}
	if !got.Equal(t1) {
		t.Errorf("expected same instant, got %v vs %v", got, t1)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{450 * time.Millisecond, "450ms"},
		{0, "0ms"},
		{90 * time.Second, "1m30s"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.d); got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
