package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ikanisa/momo-relay/pkg/database"
)

// GeminiTier is the secondary AI tier, sharing the primary tier's prompt
// contract over the Gemini API.
type GeminiTier struct {
	client          *genai.Client
	model           *genai.GenerativeModel
	timeout         time.Duration
	defaultCurrency string
}

func NewGeminiTier(
	ctx context.Context,
	apiKey string,
	model string,
	timeout time.Duration,
	defaultCurrency string,
) (*GeminiTier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gemini client")
	}

	gm := client.GenerativeModel(model)
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(extractionPrompt)},
	}

	return &GeminiTier{
		client:          client,
		model:           gm,
		timeout:         timeout,
		defaultCurrency: defaultCurrency,
	}, nil
}

func (t *GeminiTier) Tier() database.ParserTier {
	return database.TierSecondaryAI
}

func (t *GeminiTier) Parse(
	ctx context.Context,
	sender string,
	body string,
) (*database.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.model.GenerateContent(ctx, genai.Text(userContent(sender, body)))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, nil
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	return decodeLLMResponse(text, t.defaultCurrency), nil
}

func (t *GeminiTier) Close() error {
	return t.client.Close()
}
