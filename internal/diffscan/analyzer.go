// Package diffscan reconstructs line-level information from unified diffs.
package diffscan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vulnbench/vulnbench/internal/model"
)

// lineType represents the type of a diff content line.
type lineType string

const (
	headerLine  lineType = "header"
	contextLine lineType = "context"
	addedLine   lineType = "added"
	removedLine lineType = "removed"
)

// diffLine is a single content line of a unified diff with its resolved
// position in the old and new image of the file.
type diffLine struct {
	Type    lineType
	Content string
	OldLine int
	NewLine int
}

// Analyzer parses the unified diff of one file between a fixing commit and
// its parent and yields the 1-based line numbers added by the fix.
type Analyzer struct {
	hunkHeaderRegex *regexp.Regexp
}

// NewAnalyzer creates a new diff analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		hunkHeaderRegex: regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`),
	}
}

// AddedLines returns the ordered set of post-image line numbers that are
// additions in the diff. A diff with no hunks, or one whose hunks add no
// lines, yields an empty set; the caller treats that as "no changed lines"
// rather than an error.
func (a *Analyzer) AddedLines(diff string) *model.OrderedSet[int] {
	added := model.NewOrderedSet[int]()
	for _, line := range a.parseLines(diff) {
		if line.Type == addedLine {
			added.Add(line.NewLine)
		}
	}
	return added
}

// parseLines walks the diff keeping running old/new line counters seeded by
// each hunk header. Removal lines advance only the old counter, additions
// only the new one, context lines both. Lines outside any hunk are ignored.
func (a *Analyzer) parseLines(diff string) []diffLine {
	lines := strings.Split(diff, "\n")
	result := make([]diffLine, 0, len(lines))

	var oldLine, newLine int
	var inHunk bool

	for _, line := range lines {
		if len(line) == 0 {
			if inHunk {
				// An empty context line inside a hunk still occupies a
				// position in both images.
				result = append(result, diffLine{Type: contextLine, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			}
			continue
		}

		// File headers between hunks terminate the current hunk.
		if strings.HasPrefix(line, "diff --git") ||
			strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "+++ ") ||
			strings.HasPrefix(line, "Binary files") {
			inHunk = false
			continue
		}

		if strings.HasPrefix(line, "@@") {
			matches := a.hunkHeaderRegex.FindStringSubmatch(line)
			if len(matches) >= 4 {
				oldLine, _ = strconv.Atoi(matches[1])
				newLine, _ = strconv.Atoi(matches[3])
				inHunk = true
			}
			result = append(result, diffLine{Type: headerLine, Content: line})
			continue
		}

		if !inHunk {
			continue
		}

		// "\ No newline at end of file" occupies no position in either image.
		if line[0] == '\\' {
			continue
		}

		switch line[0] {
		case '+':
			result = append(result, diffLine{Type: addedLine, Content: line[1:], NewLine: newLine})
			newLine++
		case '-':
			result = append(result, diffLine{Type: removedLine, Content: line[1:], OldLine: oldLine})
			oldLine++
		default:
			// Context line, with or without the leading space prefix.
			content := line
			if line[0] == ' ' {
				content = line[1:]
			}
			result = append(result, diffLine{Type: contextLine, Content: content, OldLine: oldLine, NewLine: newLine})
			oldLine++
			newLine++
		}
	}

	return result
}
