package inference

import (
	"fmt"
	"strings"
)

const keyPointsSystemPrompt = `
You are a research assistant that distills saved web content into key points.

Your role:
- You receive several documents a user collected under one topic.
- You extract the most important facts, claims, and conclusions across all of them.
- You never invent information that is not in the documents.

Output rules:
- Return ONLY a bullet list, one point per line, each starting with "- ".
- Each point is a single complete sentence.
- Order points from most to least important.
- Do not add headings, preambles, or closing remarks.
`

// Prompt is the system instruction plus the content sent as the user turn.
type Prompt struct {
	System string
	User   string
}

// BuildKeyPointsPrompt assembles the generation prompt from the request.
func BuildKeyPointsPrompt(req KeyPointsRequest) Prompt {
	var user strings.Builder
	fmt.Fprintf(&user, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&user, "Extract at most %d key points from the following documents.\n\n", req.limit())

	for i, doc := range req.Documents {
		title := doc.Title
		if title == "" {
			title = fmt.Sprintf("Document %d", i+1)
		}
		fmt.Fprintf(&user, "--- %s ---\n%s\n\n", title, strings.TrimSpace(doc.Content))
	}

	return Prompt{
		System: strings.TrimSpace(keyPointsSystemPrompt),
		User:   strings.TrimSpace(user.String()),
	}
}
