package llm

import "context"

// chatRequest is the OpenAI chat-completions body, also spoken by local
// servers such as LM Studio and Ollama.
type chatRequest struct {
	Model     string        `json:"model,omitempty"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

func (c *Client) buildChatRequest(req Request) chatRequest {
	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	// An empty model lets a local server use whatever it has loaded.
	model := c.model
	if c.provider == ProviderLocal && (model == "default" || model == "local") {
		model = ""
	}
	return chatRequest{Model: model, Messages: messages, MaxTokens: req.MaxTokens}
}

func (c *Client) completeChat(ctx context.Context, req Request, headers map[string]string) (*Response, error) {
	respBody, err := c.postJSON(ctx, c.baseURL+"/chat/completions", c.buildChatRequest(req), headers)
	if err != nil {
		return nil, err
	}

	var result chatResponse
	if err := decode(respBody, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, providerError(result.Error)
	}
	if len(result.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	model := c.model
	if model == "" {
		model = string(ProviderLocal)
	}
	return &Response{Content: result.Choices[0].Message.Content, Model: model}, nil
}
