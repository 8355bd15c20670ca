package inference

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePoints(t *testing.T) {
	text := `- First point here
* Second point
• Third point
1. Fourth point
2) Fifth point

not a bullet but still a line
`
	points := parsePoints(text, 10)
	require.Equal(t, []string{
		"First point here",
		"Second point",
		"Third point",
		"Fourth point",
		"Fifth point",
		"not a bullet but still a line",
	}, points)

	require.Len(t, parsePoints(text, 3), 3, "limit truncates")
	require.Empty(t, parsePoints("\n\n  \n", 5))
}

func TestBuildKeyPointsPrompt(t *testing.T) {
	p := BuildKeyPointsPrompt(KeyPointsRequest{
		Topic: "distributed systems",
		Documents: []Document{
			{Title: "Raft paper notes", Content: "Leaders handle all client requests."},
			{Content: "Untitled body."},
		},
		MaxPoints: 5,
	})

	require.Contains(t, p.System, "bullet list")
	require.Contains(t, p.User, "Topic: distributed systems")
	require.Contains(t, p.User, "at most 5 key points")
	require.Contains(t, p.User, "--- Raft paper notes ---")
	require.Contains(t, p.User, "--- Document 2 ---")
}

const sampleDoc = `Go schedules goroutines onto a small number of OS threads.
The scheduler uses work stealing to balance runnable goroutines across processors.
Channels provide communication and synchronization between goroutines in one mechanism.
Tiny line.
The race detector instruments memory accesses to find data races at run time, and it is the standard way to validate concurrent Go code before shipping it.
Work stealing keeps processors busy by taking runnable goroutines from other processors when the local run queue is empty.
`

func TestExtractiveKeyPoints(t *testing.T) {
	svc := NewExtractive()

	points, err := svc.KeyPoints(context.Background(), KeyPointsRequest{
		Topic:     "go runtime",
		Documents: []Document{{Title: "notes", Content: sampleDoc}},
		MaxPoints: 3,
	})
	require.NoError(t, err)
	require.Len(t, points, 3)

	for _, p := range points {
		require.NotContains(t, p, "Tiny line", "fragments are filtered out")
		require.GreaterOrEqual(t, len(p), minSentenceLen)
	}

	// Work stealing is the most repeated concept, so it should surface.
	joined := strings.ToLower(strings.Join(points, " "))
	require.Contains(t, joined, "work stealing")
}

func TestExtractiveIsDeterministic(t *testing.T) {
	svc := NewExtractive()
	req := KeyPointsRequest{
		Topic:     "go runtime",
		Documents: []Document{{Content: sampleDoc}},
	}

	first, err := svc.KeyPoints(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.KeyPoints(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestExtractiveDeduplicates(t *testing.T) {
	svc := NewExtractive()
	doc := "Channels provide communication between goroutines. channels provide communication between goroutines."

	points, err := svc.KeyPoints(context.Background(), KeyPointsRequest{
		Documents: []Document{{Content: doc}},
	})
	require.NoError(t, err)
	require.Len(t, points, 1, "case-insensitive duplicates collapse")
}

func TestExtractiveRejectsEmptyInput(t *testing.T) {
	svc := NewExtractive()

	_, err := svc.KeyPoints(context.Background(), KeyPointsRequest{
		Documents: []Document{{Content: "short."}},
	})
	require.Error(t, err)

	_, err = svc.KeyPoints(context.Background(), KeyPointsRequest{})
	require.Error(t, err)
}
