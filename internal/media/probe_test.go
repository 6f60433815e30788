package media

import "testing"

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"30/1", 30.0, false},
		{"30000/1001", 29.97002997002997, false},
		{"25", 25.0, false},
		{"0/0", 0, true},
		{"abc", 0, true},
	}

	for _, tc := range cases {
		got, err := parseFrameRate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseFrameRate(%q) expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFrameRate(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
