package session

import "testing"

func TestSyntheticBarsDeterministic(t *testing.T) {
	a := syntheticBars("NVDA", "1 day", "5 D", 5)
	b := syntheticBars("NVDA", "1 day", "5 D", 5)
	if len(a) != 5 || len(b) != 5 {
		t.Fatalf("want 5 bars each, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("bar %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestBarCacheRoundTripsThroughCompression(t *testing.T) {
	c := newBarCache(true)
	bars := syntheticBars("AAPL", "1 day", "3 D", 3)
	c.put("AAPL", "1 day", "3 D", bars)

	got, ok := c.get("AAPL", "1 day", "3 D")
	if !ok {
		t.Fatal("expected cache hit")
	}
	for i := range bars {
		if got[i] != bars[i] {
			t.Fatalf("bar %d corrupted by compression round trip: %+v vs %+v", i, got[i], bars[i])
		}
	}
}

func TestBarsForRequestParsesDuration(t *testing.T) {
	cases := map[string]int{
		"5 D": 5, "1 W": 7, "2 M": 60, "1 Y": 365, "garbage": 5,
	}
	for in, want := range cases {
		if got := barsForRequest(in); got != want {
			t.Fatalf("barsForRequest(%q) = %d, want %d", in, got, want)
		}
	}
}
