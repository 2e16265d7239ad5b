package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/shared/errors"
)

const maxErrorBody = 4 << 10

type responseRequest struct {
	Model string         `json:"model"`
	Input string         `json:"input"`
	Tools []responseTool `json:"tools,omitempty"`
}

type responseTool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
}

// response is the subset of a Responses API payload that normalize reads.
type response struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Output []responseOutput `json:"output"`
	Usage  *responseUsage   `json:"usage"`
}

type responseOutput struct {
	Type    string            `json:"type"`
	Role    string            `json:"role"`
	Content []responseContent `json:"content"`
}

type responseContent struct {
	Type        string               `json:"type"`
	Text        string               `json:"text"`
	Annotations []responseAnnotation `json:"annotations"`
}

type responseAnnotation struct {
	Type     string `json:"type"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Index    int    `json:"index"`
}

type responseUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

type responseError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func (p *OpenAIProvider) createResponse(ctx context.Context, body responseRequest) (*response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode response request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build response request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamError("responses request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.NewUpstreamError("responses request failed", upstreamStatusError(resp.StatusCode, raw))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.NewUpstreamError("invalid responses payload", err)
	}
	return &out, nil
}

func upstreamStatusError(status int, raw []byte) error {
	var e responseError
	if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
		return fmt.Errorf("status %d: %s", status, e.Error.Message)
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("status %d: %s", status, msg)
}

// normalize flattens a provider response into an Answer. Text comes from
// every output_text part of assistant messages, citations from their
// file_citation annotations. Missing usage counts as zero.
func normalize(r *response) *retrieval.Answer {
	answer := &retrieval.Answer{Citations: make([]retrieval.Citation, 0)}
	if r == nil {
		return answer
	}

	var text strings.Builder
	for _, out := range r.Output {
		if out.Type != "message" {
			continue
		}
		for _, c := range out.Content {
			if c.Type != "output_text" {
				continue
			}
			text.WriteString(c.Text)
			for _, a := range c.Annotations {
				if a.Type != "file_citation" || a.FileID == "" {
					continue
				}
				answer.Citations = append(answer.Citations, retrieval.Citation{
					FileID:   a.FileID,
					Filename: a.Filename,
					Index:    a.Index,
				})
			}
		}
	}
	answer.Text = text.String()

	if r.Usage != nil {
		answer.TokensIn = r.Usage.InputTokens
		answer.TokensOut = r.Usage.OutputTokens
	}
	return answer
}
