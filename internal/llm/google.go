package llm

import (
	"context"
	"strings"
)

type googleRequest struct {
	Contents          []googleContent `json:"contents"`
	SystemInstruction *googleContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  googleGenConfig `json:"generationConfig"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleGenConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type googleResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

func (c *Client) completeGoogle(ctx context.Context, req Request) (*Response, error) {
	body := googleRequest{
		Contents:         []googleContent{{Role: "user", Parts: []googlePart{{Text: req.Prompt}}}},
		GenerationConfig: googleGenConfig{MaxOutputTokens: req.MaxTokens},
	}
	if req.System != "" {
		body.SystemInstruction = &googleContent{Parts: []googlePart{{Text: req.System}}}
	}

	url := c.baseURL + "/models/" + c.model + ":generateContent"
	respBody, err := c.postJSON(ctx, url, body, map[string]string{"x-goog-api-key": c.apiKey})
	if err != nil {
		return nil, err
	}

	var result googleResponse
	if err := decode(respBody, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, providerError(result.Error)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return &Response{Content: text.String(), Model: c.model}, nil
}
