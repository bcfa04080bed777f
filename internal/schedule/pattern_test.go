package schedule

import "testing"

func TestEncodePattern(t *testing.T) {
	cases := []struct {
		minutes int
		want    string
	}{
		{5, "/X/"},
		{30, "/XXXXXX/"},
		{60, "/XXXXXXXXXXXX/"},
		{45, "/XXXXXXXXX/"},
		{0, "/X/"},   // never an empty pattern
		{32, "/XXXXXXX/"}, // rounds up to the next block
	}
	for _, tc := range cases {
		if got := EncodePattern(tc.minutes); got != tc.want {
			t.Errorf("EncodePattern(%d) = %q, want %q", tc.minutes, got, tc.want)
		}
	}
}

func TestDecodePattern(t *testing.T) {
	cases := []struct {
		pattern string
		want    int
	}{
		{"/X/", 5},
		{"/XXXXXX/", 30},
		{"/XXXXXXXXXXXX/", 60},
	}
	for _, tc := range cases {
		got, err := DecodePattern(tc.pattern)
		if err != nil {
			t.Fatalf("DecodePattern(%q): %v", tc.pattern, err)
		}
		if got != tc.want {
			t.Errorf("DecodePattern(%q) = %d, want %d", tc.pattern, got, tc.want)
		}
	}
}

func TestPatternRoundTrip(t *testing.T) {
	for _, minutes := range []int{5, 15, 30, 45, 60, 90} {
		got, err := DecodePattern(EncodePattern(minutes))
		if err != nil {
			t.Fatalf("round trip %d: %v", minutes, err)
		}
		if got != minutes {
			t.Errorf("round trip %d = %d", minutes, got)
		}
	}
}

func TestDecodePatternRejectsMalformed(t *testing.T) {
	for _, pattern := range []string{"", "XXXX", "/XXXX", "XXXX/", "//", "/XYX/"} {
		if _, err := DecodePattern(pattern); err == nil {
			t.Errorf("DecodePattern(%q): expected error", pattern)
		}
	}
}
