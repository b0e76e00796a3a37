package engine

import "testing"

func TestIsAdDomain(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"doubleclick.net", true},
		{"stats.g.doubleclick.net", true},
		{"AAX-US-EAST.AMAZON-ADSYSTEM.COM", true},
		{"www.amazon.com", false},
		{"m.media-amazon.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isAdDomain(tt.host); got != tt.want {
			t.Errorf("isAdDomain(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
