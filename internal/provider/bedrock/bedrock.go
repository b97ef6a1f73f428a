// Package bedrock implements provider.Generator on Amazon Bedrock using the
// Anthropic messages request format.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/voxpoll/voxpoll/internal/provider"
)

const anthropicVersion = "bedrock-2023-05-31"

// Ensure Provider implements provider.Generator.
var _ provider.Generator = (*Provider)(nil)

// Config holds construction options for the Bedrock provider.
type Config struct {
	ModelID     string
	Region      string
	MaxTokens   int
	Temperature float64
}

// invokeAPI is the slice of the Bedrock runtime client used by the provider.
type invokeAPI interface {
	InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
	InvokeModelWithResponseStream(ctx context.Context, in *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// Provider streams generations from a Bedrock-hosted Anthropic model.
type Provider struct {
	client      invokeAPI
	modelID     string
	maxTokens   int
	temperature float64
	logger      *log.Logger
}

// New creates a Provider using the default AWS credential chain.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Provider, error) {
	if strings.TrimSpace(cfg.ModelID) == "" {
		return nil, errors.New("bedrock: model id required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	return newWithClient(bedrockruntime.NewFromConfig(awsCfg), cfg, logger), nil
}

func newWithClient(client invokeAPI, cfg Config, logger *log.Logger) *Provider {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	return &Provider{
		client:      client,
		modelID:     cfg.ModelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type requestBody struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	Messages         []message `json:"messages"`
}

// buildRequestBody frames the request the way the Bedrock Anthropic models
// expect it. The system instructions travel as the first user-role message:
// the streaming invocation does not accept a separate system role.
func (p *Provider) buildRequestBody(prompt string, history []provider.Message) requestBody {
	messages := make([]message, 0, len(history)+1)
	messages = append(messages, message{
		Role:    provider.RoleUser,
		Content: []contentBlock{{Type: "text", Text: prompt}},
	})
	for _, h := range history {
		messages = append(messages, message{
			Role:    provider.NormalizeRole(h.Role),
			Content: []contentBlock{{Type: "text", Text: h.Content}},
		})
	}
	return requestBody{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        p.maxTokens,
		Temperature:      p.temperature,
		Messages:         messages,
	}
}

type streamChunk struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// GenerateStream opens a streaming invocation and forwards text deltas as
// they arrive.
func (p *Provider) GenerateStream(ctx context.Context, prompt string, history []provider.Message) (<-chan provider.Event, error) {
	body, err := json.Marshal(p.buildRequestBody(prompt, history))
	if err != nil {
		return nil, fmt.Errorf("bedrock: marshal request: %w", err)
	}

	out, err := p.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(p.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: invoke stream: %w", err)
	}

	ch := make(chan provider.Event, 10)
	go func() {
		defer close(ch)
		stream := out.GetStream()
		defer stream.Close()

		for event := range stream.Events() {
			select {
			case <-ctx.Done():
				ch <- provider.Event{Err: ctx.Err()}
				return
			default:
			}

			chunk, ok := event.(*brtypes.ResponseStreamMemberChunk)
			if !ok {
				continue
			}
			var parsed streamChunk
			if err := json.Unmarshal(chunk.Value.Bytes, &parsed); err != nil {
				ch <- provider.Event{Err: fmt.Errorf("bedrock: parse chunk: %w", err)}
				return
			}
			if parsed.Type == "content_block_delta" && parsed.Delta.Type == "text_delta" && parsed.Delta.Text != "" {
				ch <- provider.Event{Text: parsed.Delta.Text}
			}
			if parsed.Type == "message_stop" {
				break
			}
		}
		if err := stream.Err(); err != nil {
			ch <- provider.Event{Err: fmt.Errorf("bedrock: stream: %w", err)}
		}
	}()
	return ch, nil
}

type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Completion string `json:"completion"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// GenerateOnce performs a complete, non-streamed generation.
func (p *Provider) GenerateOnce(ctx context.Context, prompt string, history []provider.Message) (provider.Result, error) {
	body, err := json.Marshal(p.buildRequestBody(prompt, history))
	if err != nil {
		return provider.Result{}, fmt.Errorf("bedrock: marshal request: %w", err)
	}

	out, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(p.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return provider.Result{}, fmt.Errorf("bedrock: invoke: %w", err)
	}

	var parsed invokeResponse
	if err := json.Unmarshal(out.Body, &parsed); err != nil {
		return provider.Result{}, fmt.Errorf("bedrock: parse response: %w", err)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	result := text.String()
	if result == "" {
		// older completion-style models
		result = parsed.Completion
	}
	p.debugf("generated %d chars (stop=%s, in=%d out=%d)", len(result), parsed.StopReason, parsed.Usage.InputTokens, parsed.Usage.OutputTokens)
	return provider.Result{
		Text: result,
		Metadata: map[string]any{
			"stop_reason":   parsed.StopReason,
			"input_tokens":  parsed.Usage.InputTokens,
			"output_tokens": parsed.Usage.OutputTokens,
		},
	}, nil
}

func (p *Provider) debugf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf("bedrock: "+format, args...)
	}
}
