// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package gemini is the extraction client: it sends page images plus a
// role-specific instruction to the Gemini multimodal API under a
// process-wide concurrency limiter, with bounded retries and exponential
// backoff. The model is treated as a black box that may fail, return
// nothing, or return garbage.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the Gemini model used for extraction.
const DefaultModel = "gemini-1.5-flash"

// Usage holds the token counts of one model call.
type Usage struct {
	PromptTokens int64
	OutputTokens int64
}

// Generator is the minimal seam over the model API. Implementations
// return the raw response text; an empty string with a nil error counts
// as an empty response and is retried by the Extractor.
type Generator interface {
	Generate(ctx context.Context, instruction string, imagePNG []byte) (string, *Usage, error)
}

// geminiGenerator calls the Gemini API through the official client.
type geminiGenerator struct {
	model *genai.GenerativeModel
}

// NewGenerator creates a Generator backed by the Gemini API, plus the
// underlying client so the caller can Close it on shutdown.
func NewGenerator(ctx context.Context, apiKey, modelName string) (Generator, *genai.Client, error) {
	if apiKey == "" {
		return nil, nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)

	// Low temperature for precise transcription rather than creativity.
	temp := float32(0.1)
	model.Temperature = &temp

	return &geminiGenerator{model: model}, client, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, instruction string, imagePNG []byte) (string, *Usage, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(instruction), genai.ImageData("png", imagePNG))
	if err != nil {
		return "", nil, err
	}

	var usage *Usage
	if resp.UsageMetadata != nil {
		usage = &Usage{
			PromptTokens: int64(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	var builder strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				builder.WriteString(string(text))
			}
		}
	}
	return builder.String(), usage, nil
}
