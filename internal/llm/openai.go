package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Generation parameters are fixed; the model is deliberately not
// user-configurable.
const (
	chatModel       = openai.ChatModelGPT4
	generateTemp    = 0.7
	improveTemp     = 0.5
	maxOutputTokens = 300
)

var ErrNoAPIKey = fmt.Errorf("openai: api key not configured")

// OpenAIProvider drafts WhatsApp messages through the Chat Completions API.
type OpenAIProvider struct {
	apiKey string
	client *openai.Client
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{apiKey: strings.TrimSpace(apiKey)}
}

func (p *OpenAIProvider) SetAPIKey(key string) {
	p.apiKey = strings.TrimSpace(key)
	p.client = nil
}

func (p *OpenAIProvider) ensureClient() error {
	if p.apiKey == "" {
		return ErrNoAPIKey
	}
	if p.client == nil {
		c := openai.NewClient(option.WithAPIKey(p.apiKey))
		p.client = &c
	}
	return nil
}

// GenerateFromBrief asks the model to write one WhatsApp message from a
// goal/context brief. Transport and auth failures are returned wrapped and
// never retried.
func (p *OpenAIProvider) GenerateFromBrief(ctx context.Context, req ComposeRequest) (string, error) {
	if err := p.ensureClient(); err != nil {
		return "", err
	}
	text, err := p.complete(ctx,
		"You are a helpful assistant that crafts concise, friendly WhatsApp messages.",
		composePrompt(req), generateTemp)
	if err != nil {
		return "", fmt.Errorf("openai: generate: %w", err)
	}
	return text, nil
}

// ImproveExisting asks the model to rewrite a user-authored message for
// clarity, tone, and flow.
func (p *OpenAIProvider) ImproveExisting(ctx context.Context, req ImproveRequest) (string, error) {
	if err := p.ensureClient(); err != nil {
		return "", err
	}
	text, err := p.complete(ctx,
		"You are a helpful assistant that refines short WhatsApp messages.",
		improvePrompt(req), improveTemp)
	if err != nil {
		return "", fmt.Errorf("openai: improve: %w", err)
	}
	return text, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxOutputTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func composePrompt(req ComposeRequest) string {
	toneText := string(req.Tone)
	if strings.EqualFold(toneText, string(ToneCustom)) {
		toneText = "custom tone"
	}
	emojiPref := "Do not include any emoji."
	if req.WantEmoji {
		emojiPref = "Include a subtle, relevant emoji."
	}
	return fmt.Sprintf("Goal/Context:\n%s\n\n"+
		"Tone: %s\n"+
		"Additional details/constraints:\n%s\n\n"+
		"Instructions:\n"+
		"- Write a single concise WhatsApp message (max 500 characters).\n"+
		"- Be clear and natural, suitable for WhatsApp.\n"+
		"- If it involves a request, include a simple call-to-action.\n"+
		"- %s\n"+
		"- Return only the message text. No quotes, no markdown, no preface.",
		strings.TrimSpace(req.Brief), toneText, strings.TrimSpace(req.Extras), emojiPref)
}

func improvePrompt(req ImproveRequest) string {
	shortenInstr := "Keep roughly the same length."
	if req.Shorten {
		shortenInstr = "Shorten to be more concise but keep the key message."
	}
	return fmt.Sprintf("Rewrite the following WhatsApp message to improve clarity, tone, and flow.\n"+
		"Desired tone: %s\n"+
		"%s\n"+
		"Return only the message text with no quotes or extra commentary.\n\n"+
		"Message:\n%s",
		req.Tone, shortenInstr, strings.TrimSpace(req.Original))
}
