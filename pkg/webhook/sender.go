package webhook

import (
	"context"
	"encoding/json"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/imroc/req/v3"

	"github.com/ikanisa/momo-relay/pkg/database"
)

const responseBodyLimit = 512

// Payload is the wire body delivered to each webhook. It is marshalled
// once per delivery; the signature covers these exact bytes.
type Payload struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	DeviceID  string `json:"deviceId"`
}

type Outcome struct {
	WebhookID    string
	Status       database.DeliveryStatus
	ResponseCode *int
	ResponseBody *string
	Retryable    bool
	Err          error
}

// Sender performs a single authenticated delivery to one endpoint.
type Sender struct {
	cl       *req.Client
	deviceID string
	timeout  time.Duration
}

func NewSender(cl *req.Client, deviceID string, timeout time.Duration) *Sender {
	return &Sender{
		cl:       cl,
		deviceID: deviceID,
		timeout:  timeout,
	}
}

func (s *Sender) DeviceID() string {
	return s.deviceID
}

// Send posts the signed payload. Outcome classing: 2xx is DELIVERED,
// 4xx is a terminal failure (retrying a rejected payload will not
// help), 5xx and transport errors are retryable failures.
func (s *Sender) Send(
	ctx context.Context,
	cfg *database.WebhookConfig,
	eventID string,
	payload Payload,
) Outcome {
	outcome := Outcome{WebhookID: cfg.ID}

	body, err := json.Marshal(payload)
	if err != nil {
		outcome.Status = database.DeliveryStatusFailed
		outcome.Err = errors.WithStack(err)

		return outcome
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.cl.R().
		SetContext(ctx).
		SetContentType("application/json").
		SetHeader(HeaderAPIKey, cfg.APIKey).
		SetHeader(HeaderSignature, Sign(cfg.HMACSecret, body)).
		SetHeader(HeaderIdempotencyKey, eventID).
		SetBodyBytes(body).
		Post(cfg.URL)
	if err != nil {
		outcome.Status = database.DeliveryStatusFailed
		outcome.Retryable = true
		outcome.Err = errors.WithStack(err)

		return outcome
	}

	code := resp.StatusCode
	outcome.ResponseCode = &code

	respBody := truncate(resp.String(), responseBodyLimit)
	if respBody != "" {
		outcome.ResponseBody = &respBody
	}

	switch {
	case code >= 200 && code < 300:
		outcome.Status = database.DeliveryStatusDelivered
	case code >= 400 && code < 500:
		outcome.Status = database.DeliveryStatusFailed
		outcome.Err = errors.Newf("webhook %s rejected delivery: %d", cfg.ID, code)
	default:
		outcome.Status = database.DeliveryStatusFailed
		outcome.Retryable = true
		outcome.Err = errors.Newf("webhook %s returned %d", cfg.ID, code)
	}

	return outcome
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}

	return s[:limit]
}
