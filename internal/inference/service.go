// Package inference generates key points from captured content.
//
// Two implementations exist: a hosted Gemini client and a local extractive
// summarizer. The hub picks at startup based on whether an API key is
// configured, so report generation works offline with degraded quality
// rather than failing.
package inference

import (
	"context"
	"strings"
)

// Document is one piece of captured content fed into generation.
type Document struct {
	// Title labels the document in the prompt.
	Title string

	// Content is the document text.
	Content string
}

// KeyPointsRequest asks for the key points across a set of documents.
type KeyPointsRequest struct {
	// Topic is the tag name the documents were collected under.
	Topic string

	// Documents are the texts to distill. At least one must be non-empty.
	Documents []Document

	// MaxPoints caps the returned list. Zero means the default of 8.
	MaxPoints int
}

// Service produces key points for a document set.
type Service interface {
	// KeyPoints distills the documents into short bullet points.
	KeyPoints(ctx context.Context, req KeyPointsRequest) ([]string, error)
}

func (r KeyPointsRequest) limit() int {
	if r.MaxPoints <= 0 {
		return 8
	}
	return r.MaxPoints
}

// parsePoints turns model output into a clean bullet list: one point per
// line, list markers stripped, blanks dropped.
func parsePoints(text string, limit int) []string {
	points := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if i := numberedPrefix(line); i > 0 {
			line = strings.TrimSpace(line[i:])
		}
		if line == "" {
			continue
		}
		points = append(points, line)
		if len(points) >= limit {
			break
		}
	}
	return points
}

// numberedPrefix returns the length of a leading "1." / "12)" marker, or 0.
func numberedPrefix(line string) int {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(line) {
		return 0
	}
	if line[i] == '.' || line[i] == ')' {
		return i + 1
	}
	return 0
}
