package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/tailored-agentic-units/caw/caw"
)

const timeLayout = "2006-01-02 15:04:05"

func formatPost(post caw.Post) string {
	header := color.New(color.FgCyan).Sprintf("[%s] %s", post.ID, post.Username)
	when := color.New(color.Faint).Sprint(post.Timestamp.Time().Local().Format(timeLayout))
	return fmt.Sprintf("%s %s\n%s", header, when, post.Text)
}

// renderThread prints a pre-order thread with each reply indented one level
// below its parent.
func renderThread(posts []caw.Post) string {
	depth := make(map[string]int, len(posts))
	var b strings.Builder

	for _, post := range posts {
		d := 0
		if parent, ok := depth[post.ParentID]; ok && post.ParentID != "" {
			d = parent + 1
		}
		depth[post.ID] = d

		indent := strings.Repeat("  ", d)
		for _, line := range strings.Split(formatPost(post), "\n") {
			b.WriteString(indent)
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}
