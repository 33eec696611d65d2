package stream

// ExtractHashtags returns the tags in text in encounter order, duplicates
// retained. A tag is the maximal run of ASCII letters and digits following a
// '#'. A '#' not followed by such a run yields nothing.
func ExtractHashtags(text string) []string {
	var tags []string

	for i := 0; i < len(text); i++ {
		if text[i] != '#' {
			continue
		}
		start := i + 1
		end := start
		for end < len(text) && isAlnum(text[end]) {
			end++
		}
		if end > start {
			tags = append(tags, text[start:end])
		}
		i = end - 1
	}

	return tags
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
