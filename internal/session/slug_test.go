package session

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "holiday", "holiday"},
		{"spaces to underscores", "my holiday video", "my_holiday_video"},
		{"strips punctuation", "clip: part #2!", "clip_part_2"},
		{"keeps hyphens and underscores", "a-b_c", "a-b_c"},
		{"trailing space trimmed", "name   ", "name"},
		{"truncated", "abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrst"},
		{"empty falls back", "", "video"},
		{"only punctuation falls back", "///???", "video"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.in, 20); got != tc.want {
				t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
