package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/adapter"
)

var _ adapter.VisionAnalyzer = (*GeminiVision)(nil)

// GeminiVision implements adapter.VisionAnalyzer with the official SDK,
// sending the photo as an inline data part. SDK API errors are translated
// to StatusError so the classifier sees the HTTP status code.
type GeminiVision struct {
	client *genai.Client
	model  string
}

func NewGeminiVision(ctx context.Context, apiKey, baseURL, model string) (*GeminiVision, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiVision{client: c, model: model}, nil
}

func (g *GeminiVision) AnalyzeMealPhoto(ctx context.Context, image []byte, mime string) (*model.NutritionResult, error) {
	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mime, Data: image}},
			{Text: analysisPrompt},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens:  300,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, translateGenAIErr(err)
	}

	text := ""
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		text = resp.Candidates[0].Content.Parts[0].Text
	}
	if text == "" {
		return nil, &failure.ParseError{Err: errors.New("gemini: empty response")}
	}
	return parseNutritionJSON(text)
}

func translateGenAIErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &failure.StatusError{Code: apiErr.Code, Body: apiErr.Message}
	}
	return err
}
