package stream_test

import (
	"slices"
	"testing"

	"github.com/tailored-agentic-units/caw/stream"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "spaced", text: "Hello this is a #hashtag #caw #faz", want: []string{"hashtag", "caw", "faz"}},
		{name: "adjacent with trailing bare", text: "#hashtag#caw'''#faz..#", want: []string{"hashtag", "caw", "faz"}},
		{name: "mixed", text: "Hello this is a #hashtag#caw''''''#faz Ok testing #cawfaz", want: []string{"hashtag", "caw", "faz", "cawfaz"}},
		{name: "leading non tag", text: "*hashtag#hashtag#caw'''faz..#", want: []string{"hashtag", "caw"}},
		{name: "duplicates retained", text: "#go #go", want: []string{"go", "go"}},
		{name: "digits", text: "#2024 #abc123", want: []string{"2024", "abc123"}},
		{name: "double hash", text: "##x", want: []string{"x"}},
		{name: "non ascii ends run", text: "#caféau", want: []string{"caf"}},
		{name: "none", text: "no tags here", want: nil},
		{name: "bare only", text: "# # #", want: nil},
		{name: "empty", text: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stream.ExtractHashtags(tt.text); !slices.Equal(got, tt.want) {
				t.Errorf("ExtractHashtags(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
