package media

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Provider
	}{
		{"https://www.instagram.com/reel/ABC123/", ProviderInstagram},
		{"https://instagram.com/p/XYZ789", ProviderInstagram},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", ProviderYouTube},
		{"https://youtube.com/shorts/abc123", ProviderYouTube},
		{"https://youtu.be/xyz", ProviderYouTube},
		{"youtu.be/xyz", ProviderYouTube},
		{"https://example.com/video/123", ProviderUnsupported},
		{"https://www.instagram.com/stories/someone/123/", ProviderUnsupported},
		{"not a url", ProviderUnsupported},
		{"", ProviderUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := Classify(tt.url)
			if got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.want)
			}
			// Classification is idempotent.
			if again := Classify(tt.url); again != got {
				t.Errorf("Classify(%q) second call = %q, want %q", tt.url, again, got)
			}
		})
	}
}

func TestShortcode(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.instagram.com/reel/ABC123/", "ABC123"},
		{"https://instagram.com/p/XYZ789?igshid=1", "XYZ789"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Shortcode(tt.url); got != tt.want {
			t.Errorf("Shortcode(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestSafeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World", "Hello_World"},
		{"my-video", "my-video"},
		{"a/b\\c", "a_b_c"},
		{"___", "content"},
		{"", "content"},
	}

	for _, tt := range tests {
		if got := safeTitle(tt.in); got != tt.want {
			t.Errorf("safeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
