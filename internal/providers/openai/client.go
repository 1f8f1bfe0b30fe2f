// Package openai implements the chat-completions client used for both
// intent classification and response synthesis.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	clierr "github.com/Divyanshu11011/BlockTalk/internal/errors"
	"github.com/Divyanshu11011/BlockTalk/internal/httpx"
	"github.com/Divyanshu11011/BlockTalk/internal/model"
)

const defaultBaseURL = "https://api.openai.com/v1"

type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
	model   string
}

func New(httpClient *httpx.Client, apiKey, baseURL, modelName string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		model:   modelName,
	}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:          "openai",
		Type:          "llm",
		RequiresKey:   true,
		KeyEnvVarName: "BLOCKTALK_OPENAI_API_KEY",
		Capabilities: []string{
			"chat.complete",
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	if c.apiKey == "" {
		return "", clierr.New(clierr.CodeAuth, "OpenAI API key is not configured (set BLOCKTALK_OPENAI_API_KEY)")
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "encode chat request", err)
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	endpoint := fmt.Sprintf("%s/chat/completions", c.baseURL)
	if _, err := httpx.DoBodyJSON(ctx, c.http, "POST", endpoint, body, headers, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", clierr.New(clierr.CodeUnavailable, "chat completion returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", clierr.New(clierr.CodeUnavailable, "chat completion returned empty content")
	}
	return content, nil
}
