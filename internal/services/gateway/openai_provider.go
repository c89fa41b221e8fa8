// File: internal/services/gateway/openai_provider.go
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/iyunix/go-relay/internal/domain"
)

const maxErrorBody = 512

// OpenAIProvider talks to an OpenAI-compatible model-routing gateway.
type OpenAIProvider struct {
	config     *Config
	client     *openai.Client
	httpClient *http.Client
}

func NewOpenAIProvider(config *Config) (*OpenAIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	clientConfig.HTTPClient = httpClient

	return &OpenAIProvider{
		config:     config,
		client:     openai.NewClientWithConfig(clientConfig),
		httpClient: httpClient,
	}, nil
}

// gatewayModel is the directory entry as the gateway reports it. The
// go-openai Model type drops name and type, so the listing is decoded here.
type gatewayModel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Modality      string `json:"modality"`
	Description   string `json:"description"`
	OwnedBy       string `json:"owned_by"`
	ContextWindow int    `json:"context_window"`
	Pricing       *struct {
		Input  flexString `json:"input"`
		Output flexString `json:"output"`
	} `json:"pricing"`
}

type modelsResponse struct {
	Data   []gatewayModel `json:"data"`
	Models []gatewayModel `json:"models"`
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		return nil
	}
	*f = flexString(b)
	return nil
}

// ListModels fetches the directory, retrying transient failures.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	retry := p.config.Retry
	if retry == nil {
		retry = &RetryConfig{MaxAttempts: 1}
	}
	var models []domain.ModelInfo
	err := RetryWithBackoff(ctx, retry, func(ctx context.Context) error {
		var err error
		models, err = p.listModels(ctx)
		return err
	})
	return models, err
}

func (p *OpenAIProvider) listModels(ctx context.Context) ([]domain.ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	url := strings.TrimRight(p.config.BaseURL, "/") + "/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, classify("list_models", "", "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, classify("list_models", "", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, statusError("list_models", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &GatewayError{Type: ErrTypeProtocol, Operation: "list_models", Message: "malformed model list", Cause: err}
	}

	entries := payload.Data
	if len(entries) == 0 {
		entries = payload.Models
	}
	models := make([]domain.ModelInfo, 0, len(entries))
	for _, m := range entries {
		if m.ID == "" {
			continue
		}
		info := domain.ModelInfo{
			ID:            m.ID,
			Name:          m.Name,
			Modality:      m.Type,
			Description:   m.Description,
			OwnedBy:       m.OwnedBy,
			ContextWindow: m.ContextWindow,
		}
		if info.Name == "" {
			info.Name = m.ID
		}
		if info.Modality == "" {
			info.Modality = m.Modality
		}
		if m.Pricing != nil {
			info.Pricing = &domain.ModelPricing{Input: string(m.Pricing.Input), Output: string(m.Pricing.Output)}
		}
		models = append(models, info)
	}
	return models, nil
}

func (p *OpenAIProvider) StreamCompletion(ctx context.Context, req CompletionRequest) (EventStream, error) {
	if req.Model == "" {
		return nil, &GatewayError{Type: ErrTypeConfig, Operation: "streaming", Message: "model is required"}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, classify("streaming", req.Model, "failed to create stream", err)
	}
	return newChatStream(stream, req.Model), nil
}

// rawReceiver is the part of *openai.ChatCompletionStream the event
// stream needs. RecvRaw is used because reasoning and citation fields are
// gateway extensions that ChatCompletionStreamResponse does not carry.
type rawReceiver interface {
	RecvRaw() ([]byte, error)
	Close() error
}

type streamChunk struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Citations []string `json:"citations"`
	Choices   []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			Reasoning        string `json:"reasoning"`
			Annotations      []struct {
				Type        string `json:"type"`
				URLCitation struct {
					URL   string `json:"url"`
					Title string `json:"title"`
				} `json:"url_citation"`
			} `json:"annotations"`
		} `json:"delta"`
	} `json:"choices"`
}

type chatStream struct {
	raw     rawReceiver
	model   string
	pending []domain.StreamEvent
	sources map[string]struct{}

	closeOnce sync.Once
	closeErr  error
}

func newChatStream(raw rawReceiver, model string) *chatStream {
	return &chatStream{raw: raw, model: model, sources: make(map[string]struct{})}
}

func (s *chatStream) Recv() (domain.StreamEvent, error) {
	for len(s.pending) == 0 {
		line, err := s.raw.RecvRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return domain.StreamEvent{}, io.EOF
			}
			return domain.StreamEvent{}, classify("streaming", s.model, "stream receive error", err)
		}
		if err := s.decode(line); err != nil {
			return domain.StreamEvent{}, err
		}
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

// decode queues the events carried by one chunk: reasoning first, then
// text, then any newly seen sources.
func (s *chatStream) decode(line []byte) error {
	var chunk streamChunk
	if err := json.Unmarshal(line, &chunk); err != nil {
		return &GatewayError{Type: ErrTypeProtocol, Operation: "streaming", Model: s.model, Message: "malformed stream chunk", Cause: err}
	}
	if chunk.Error != nil {
		msg := chunk.Error.Message
		if msg == "" {
			msg = "upstream reported an error"
		}
		t := ErrTypeProvider
		if strings.Contains(strings.ToLower(chunk.Error.Type), "rate_limit") {
			t = ErrTypeRateLimit
		}
		return &GatewayError{Type: t, Operation: "streaming", Model: s.model, Message: msg}
	}

	for _, choice := range chunk.Choices {
		d := choice.Delta
		reasoning := d.ReasoningContent
		if reasoning == "" {
			reasoning = d.Reasoning
		}
		if reasoning != "" {
			s.pending = append(s.pending, domain.StreamEvent{Type: domain.EventReasoningDelta, Delta: reasoning})
		}
		if d.Content != "" {
			s.pending = append(s.pending, domain.StreamEvent{Type: domain.EventTextDelta, Delta: d.Content})
		}
		for _, a := range d.Annotations {
			if a.Type == "url_citation" {
				s.addSource(a.URLCitation.URL, a.URLCitation.Title)
			}
		}
	}
	for _, url := range chunk.Citations {
		s.addSource(url, "")
	}
	return nil
}

func (s *chatStream) addSource(url, title string) {
	if url == "" {
		return
	}
	if _, seen := s.sources[url]; seen {
		return
	}
	s.sources[url] = struct{}{}
	s.pending = append(s.pending, domain.StreamEvent{
		Type:     domain.EventSourceURL,
		SourceID: uuid.NewString(),
		URL:      url,
		Title:    title,
	})
}

func (s *chatStream) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.raw.Close() })
	return s.closeErr
}

var _ Provider = (*OpenAIProvider)(nil)
