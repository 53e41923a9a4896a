package shared

import "testing"

func TestRemoveBracketed(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"No Brackets", "plain title", "plain title"},
		{"Single Group", "a [b] c", "a  c"},
		{"Mixed Groups", "Song (Remix)[Clean]", "Song "},
		{"Curly Group", "Song {Live}", "Song "},
		{"Unbalanced Open", "Song (Remix", "Song (Remix"},
		{"Nested Same Kind", "a (b (c) d)", "a  d)"},
		{"Empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RemoveBracketed(tc.input); got != tc.want {
				t.Errorf("RemoveBracketed(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestRemoveFeaturing(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"Feat In Parens", "Track (feat. Artist)", "Track ("},
		{"Plain Ft", "song ft lil", "song "},
		{"No Featuring", "plain title", "plain title"},
		{"Ft Wins Over Feat", "soft feat x", "so"},
		{"Empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RemoveFeaturing(tc.input); got != tc.want {
				t.Errorf("RemoveFeaturing(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	// bracket removal runs first so an open paren introduced by a feat
	// annotation never leaks into the normalized name
	if got := NormalizeTitle("Track (feat. Artist)"); got != "Track" {
		t.Errorf("NormalizeTitle = %q, want %q", got, "Track")
	}

	if got := NormalizeTitle("Do What I Want"); got != "Do What I Want" {
		t.Errorf("NormalizeTitle = %q, want %q", got, "Do What I Want")
	}
}
