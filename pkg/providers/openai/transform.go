package openai

import (
	"errors"
	"fmt"
	"strings"

	"mercator-hq/relay/pkg/providers"
)

// Wire types for POST /chat/completions. Only the fields the relay sends or
// reads are modelled.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	User        string        `json:"user,omitempty"`
	N           int           `json:"n,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

var errNoChoices = errors.New("response has no choices")

func newChatRequest(req *providers.CompletionRequest) *chatRequest {
	out := &chatRequest{
		Model:       req.Model,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		User:        req.User,
		N:           1,
	}
	for _, m := range req.Messages {
		out.Messages = append(out.Messages, chatMessage{Role: m.Role, Content: m.Content, Name: m.Name})
	}
	return out
}

// completion takes the single requested choice. Blank content counts as
// malformed so callers never relay an empty reply.
func (r *chatResponse) completion() (*providers.CompletionResponse, error) {
	if len(r.Choices) == 0 {
		return nil, errNoChoices
	}
	choice := r.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, fmt.Errorf("empty reply (finish_reason %q)", choice.FinishReason)
	}

	return &providers.CompletionResponse{
		ID:           r.ID,
		Model:        r.Model,
		Content:      choice.Message.Content,
		FinishReason: finishReason(choice.FinishReason),
		Usage: providers.TokenUsage{
			PromptTokens:     r.Usage.PromptTokens,
			CompletionTokens: r.Usage.CompletionTokens,
			TotalTokens:      r.Usage.TotalTokens,
		},
		Created: r.Created,
	}, nil
}

func finishReason(reason string) string {
	switch reason {
	case "stop":
		return providers.FinishReasonStop
	case "length":
		return providers.FinishReasonLength
	case "content_filter":
		return providers.FinishReasonContentFilter
	}
	return reason
}
