package ingest

import "strings"

// sniffWindow bounds how much decoded text SniffDelimiter looks at
const sniffWindow = 4096

var candidateDelimiters = []rune{',', ';'}

// SniffDelimiter picks ',' or ';' by counting occurrences outside quoted
// fields. The header line decides when it contains either candidate; the
// rest of the window only breaks the case where it contains neither.
// Ties go to ','.
func SniffDelimiter(text string) rune {
	if len(text) > sniffWindow {
		text = text[:sniffWindow]
	}

	header, rest, _ := strings.Cut(text, "\n")
	if d, ok := dominantDelimiter(header); ok {
		return d
	}
	if d, ok := dominantDelimiter(rest); ok {
		return d
	}
	return ','
}

func dominantDelimiter(s string) (rune, bool) {
	counts := make(map[rune]int, len(candidateDelimiters))
	inQuotes := false
	for _, r := range s {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		for _, d := range candidateDelimiters {
			if r == d {
				counts[d]++
			}
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best, bestCount > 0
}
