package artifacts

import "testing"

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"example.com", "https://example.com"},
		{"  https://x.com  ", "https://x.com"},
		{"http://safety.example.com/training", "http://safety.example.com/training"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := NormalizeURL(c.in); got != c.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://localhost:8780", true},
		{"https://noext", false},
		{"ftp://example.com", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidURL(c.in); got != c.want {
			t.Errorf("ValidURL(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
