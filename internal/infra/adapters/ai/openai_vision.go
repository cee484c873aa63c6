package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"foodie/internal/domain/failure"
	"foodie/internal/domain/model"
	"foodie/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.VisionAnalyzer = (*OpenAIVision)(nil)

// OpenAIVision implements adapter.VisionAnalyzer using the Chat
// Completions API with an inline base64 image. The HTTP layer is kept
// hand-rolled so the raw status code and body reach the classifier
// untouched.
type OpenAIVision struct {
	apiKey string
	base   string // e.g., https://api.openai.com/v1
	model  string
	client *http.Client
}

func NewOpenAIVision(apiKey, baseURL, model string, readTimeout time.Duration) (*OpenAIVision, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	return &OpenAIVision{
		apiKey: apiKey,
		base:   strings.TrimRight(baseURL, "/"),
		model:  model,
		client: &http.Client{Timeout: readTimeout},
	}, nil
}

type oaContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type oaMessage struct {
	Role    string          `json:"role"`
	Content []oaContentPart `json:"content"`
}

func (o *OpenAIVision) AnalyzeMealPhoto(ctx context.Context, image []byte, mime string) (*model.NutritionResult, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(image))

	reqBody := struct {
		Model          string      `json:"model"`
		Messages       []oaMessage `json:"messages"`
		MaxTokens      int         `json:"max_tokens"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}{
		Model: o.model,
		Messages: []oaMessage{{
			Role: "user",
			Content: []oaContentPart{
				{Type: "text", Text: analysisPrompt},
				{Type: "image_url", ImageURL: &struct {
					URL string `json:"url"`
				}{URL: dataURL}},
			},
		}},
		MaxTokens: 300,
	}
	reqBody.ResponseFormat.Type = "json_object"

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/chat/completions", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err // transport error, classified as-is
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &failure.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &failure.ParseError{Err: err}
	}
	if len(payload.Choices) == 0 || payload.Choices[0].Message.Content == "" {
		return nil, &failure.ParseError{Err: errors.New("no choice content")}
	}
	return parseNutritionJSON(payload.Choices[0].Message.Content)
}

// parseNutritionJSON decodes the model's JSON reply, tolerating markdown
// fences some models wrap around it.
func parseNutritionJSON(content string) (*model.NutritionResult, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var res model.NutritionResult
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return nil, &failure.ParseError{Err: err}
	}
	return &res, nil
}
