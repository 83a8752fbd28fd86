package parser

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/imroc/req/v3"

	"github.com/ikanisa/momo-relay/pkg/database"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAITier is the primary AI tier: any OpenAI-compatible
// chat-completions endpoint.
type OpenAITier struct {
	cl              *req.Client
	apiKey          string
	baseURL         string
	model           string
	timeout         time.Duration
	defaultCurrency string
}

func NewOpenAITier(
	cl *req.Client,
	apiKey string,
	baseURL string,
	model string,
	timeout time.Duration,
	defaultCurrency string,
) *OpenAITier {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	return &OpenAITier{
		cl:              cl,
		apiKey:          apiKey,
		baseURL:         baseURL,
		model:           model,
		timeout:         timeout,
		defaultCurrency: defaultCurrency,
	}
}

func (t *OpenAITier) Tier() database.ParserTier {
	return database.TierPrimaryAI
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
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (t *OpenAITier) Parse(
	ctx context.Context,
	sender string,
	body string,
) (*database.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var apiResp chatResponse

	resp, err := t.cl.R().
		SetContext(ctx).
		SetBearerAuthToken(t.apiKey).
		SetBody(chatRequest{
			Model: t.model,
			Messages: []chatMessage{
				{Role: "system", Content: extractionPrompt},
				{Role: "user", Content: userContent(sender, body)},
			},
		}).
		SetSuccessResult(&apiResp).
		Post(t.baseURL + "/chat/completions")
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if resp.IsErrorState() {
		return nil, errors.Newf("got error response: %s", resp.String())
	}

	if len(apiResp.Choices) == 0 {
		return nil, nil
	}

	return decodeLLMResponse(apiResp.Choices[0].Message.Content, t.defaultCurrency), nil
}
