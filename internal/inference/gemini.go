package inference

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient generates key points with the hosted Gemini API.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a Service backed by the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// KeyPoints implements Service using Gemini.
func (g *GeminiClient) KeyPoints(ctx context.Context, req KeyPointsRequest) ([]string, error) {
	if len(req.Documents) == 0 {
		return nil, fmt.Errorf("no documents to distill")
	}

	prompt := BuildKeyPointsPrompt(req)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt.User, genai.RoleUser),
	}

	temp := float32(0.2)
	outputTokens := int32(2048)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   outputTokens,
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned empty text")
	}

	points := parsePoints(text, req.limit())
	if len(points) == 0 {
		return nil, fmt.Errorf("gemini output contained no points")
	}
	return points, nil
}
