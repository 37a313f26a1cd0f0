/*
Copyright 2025 Tesoro Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tesoro-finance/tesoro/config"
	"github.com/tesoro-finance/tesoro/internal/request"
)

// ChatMessage is one turn of an OpenAI-compatible chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// LLMClient talks to any OpenAI-compatible chat completion endpoint.
type LLMClient struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
}

func NewLLMClient(cnf config.PipelineConfig) *LLMClient {
	return &LLMClient{
		endpoint: cnf.Endpoint,
		apiKey:   cnf.APIKey,
		timeout:  time.Duration(cnf.TimeoutSec) * time.Second,
	}
}

// Complete runs one chat completion and returns the assistant text. Transient
// transport failures and 429/5xx responses are retried with exponential
// backoff; other API errors fail immediately.
func (c *LLMClient) Complete(ctx context.Context, model string, temperature float64, maxTokens int, messages []ChatMessage) (string, error) {
	payload := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var content string
	operation := func() error {
		body, err := request.ToJsonReq(payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", body)
		if err != nil {
			return backoff.Permanent(err)
		}
		request.BearerAuth(req, c.apiKey)

		var response chatCompletionResponse
		resp, err := request.Call(req, c.timeout, &response)
		if err != nil {
			if resp != nil && !retryableStatus(resp.StatusCode) {
				return backoff.Permanent(err)
			}
			return err
		}
		if resp.StatusCode != http.StatusOK {
			apiErr := fmt.Errorf("completion request for model %s returned status %d", model, resp.StatusCode)
			if response.Error != nil {
				apiErr = fmt.Errorf("completion request for model %s failed: %s", model, response.Error.Message)
			}
			if retryableStatus(resp.StatusCode) {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		if len(response.Choices) == 0 {
			return backoff.Permanent(errors.New("completion response contained no choices"))
		}
		content = response.Choices[0].Message.Content
		return nil
	}

	notify := func(err error, d time.Duration) {
		logrus.Warnf("completion attempt failed, retrying in %s: %v", d, err)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}
	return content, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
