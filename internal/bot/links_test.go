package bot

import "testing"

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"single magnet", "magnet:?xt=urn:btih:deadbeef", 1},
		{"magnet with chatter", "please add magnet:?xt=urn:btih:deadbeef thanks", 1},
		{"multiple links form one batch", "magnet:?a https://example.com/x.torrent magnet:?b", 3},
		{"http url", "http://example.com/file.torrent", 1},
		{"no links", "hello there", 0},
		{"bare domain is not a link", "example.com/x.torrent", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractLinks(tt.text); len(got) != tt.want {
				t.Errorf("ExtractLinks(%q) = %v, want %d links", tt.text, got, tt.want)
			}
		})
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		fraction float64
		filled   int
	}{
		{0, 0},
		{0.5, 5},
		{1, 10},
		{-0.2, 0},
		{1.7, 10},
	}

	for _, tt := range tests {
		bar := progressBar(tt.fraction)
		count := 0
		for _, r := range bar {
			if r == '▪' {
				count++
			}
		}
		if count != tt.filled {
			t.Errorf("progressBar(%v) = %q, want %d filled cells", tt.fraction, bar, tt.filled)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.in); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
