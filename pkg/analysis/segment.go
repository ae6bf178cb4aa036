package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

// Deterministic question segmenter. This is the availability fallback for
// the generative extraction service: ordered pattern matching over the three
// numbering conventions seen in past papers, then a line-split last resort.
// Its accuracy is intentionally inferior to the primary path.

var questionMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(\d{1,3})\.\s+`),
	regexp.MustCompile(`^\s*(\d{1,3})\)\s+`),
	regexp.MustCompile(`(?i)^\s*question\s+(\d{1,3})\s*[:.]?\s+`),
}

var pointsSuffix = regexp.MustCompile(`(?i)\(\s*(\d{1,3})\s*marks?\s*\)`)

const (
	// Fragments shorter than this are numbering noise, not questions.
	minSegmentLength = 15
	// Line-split fallback keeps only lines at least this long.
	minLineLength = 20
)

var boilerplateWords = []string{
	"UNIVERSITY", "COLLEGE", "FACULTY", "DEPARTMENT", "EXAMINATION",
	"INSTRUCTIONS", "SEMESTER", "ACADEMIC", "PAGE", "TOTAL MARKS",
	"ANSWER ALL", "TIME ALLOWED",
}

// SegmentQuestions splits normalized text into questions without any
// external service. The returned source is QuestionSourcePattern when a
// numbering convention matched and QuestionSourceLines for the line-split
// last resort. An empty result means the text had nothing usable.
func SegmentQuestions(text string) ([]Question, string) {
	lines := strings.Split(text, "\n")

	for _, marker := range questionMarkers {
		if qs := segmentByMarker(lines, marker); len(qs) > 0 {
			return qs, QuestionSourcePattern
		}
	}
	return segmentByLines(lines), QuestionSourceLines
}

// segmentByMarker accumulates each marker-introduced block (including its
// continuation lines) into one question.
func segmentByMarker(lines []string, marker *regexp.Regexp) []Question {
	var questions []Question
	var current *Question
	var body strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		text := strings.TrimSpace(body.String())
		if len(text) >= minSegmentLength && !isBoilerplate(text) {
			current.Text = text
			current.Points = extractPoints(text)
			questions = append(questions, *current)
		}
		current = nil
		body.Reset()
	}

	for _, line := range lines {
		if m := marker.FindStringSubmatch(line); m != nil {
			flush()
			ordinal, _ := strconv.Atoi(m[1])
			current = &Question{Ordinal: ordinal}
			body.WriteString(strings.TrimSpace(line[len(m[0]):]))
			continue
		}
		if current != nil {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if body.Len() > 0 {
				body.WriteByte(' ')
			}
			body.WriteString(trimmed)
		}
	}
	flush()
	return questions
}

// segmentByLines is the last resort when no numbering convention matched:
// every sufficiently long non-boilerplate line becomes its own question.
func segmentByLines(lines []string) []Question {
	var questions []Question
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < minLineLength || isBoilerplate(trimmed) {
			continue
		}
		questions = append(questions, Question{
			Text:    trimmed,
			Ordinal: len(questions) + 1,
			Points:  extractPoints(trimmed),
		})
	}
	return questions
}

// isBoilerplate flags header-like fragments: short all-caps lines carrying
// institutional wording.
func isBoilerplate(text string) bool {
	upper := strings.ToUpper(text)
	if upper != text {
		return false
	}
	for _, word := range boilerplateWords {
		if strings.Contains(upper, word) {
			return true
		}
	}
	return false
}

func extractPoints(text string) int {
	m := pointsSuffix.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	points, _ := strconv.Atoi(m[1])
	return points
}
