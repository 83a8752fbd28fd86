package syncer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/imroc/req/v3"

	"github.com/ikanisa/momo-relay/pkg/database"
	"github.com/ikanisa/momo-relay/pkg/webhook"
)

// Client uploads parsed transactions to the backend. Each upload
// carries the transaction's own id as an idempotency key, so a retry
// after a lost response never creates a duplicate remotely.
type Client struct {
	cl       *req.Client
	baseURL  string
	apiKey   string
	deviceID string
	timeout  time.Duration
}

func NewClient(
	cl *req.Client,
	baseURL string,
	apiKey string,
	deviceID string,
	timeout time.Duration,
) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cl:       cl,
		baseURL:  baseURL,
		apiKey:   apiKey,
		deviceID: deviceID,
		timeout:  timeout,
	}
}

type uploadRequest struct {
	ID                   string  `json:"id"`
	AmountInMinorUnits   int64   `json:"amount_in_minor_units"`
	Currency             string  `json:"currency"`
	Direction            string  `json:"direction"`
	CounterpartyPhone    *string `json:"counterparty_phone,omitempty"`
	Provider             string  `json:"provider"`
	TransactionReference *string `json:"transaction_reference,omitempty"`
	BalanceInMinorUnits  *int64  `json:"balance_in_minor_units,omitempty"`
	Sender               string  `json:"sender"`
	RawMessage           string  `json:"raw_message"`
	ParsedBy             string  `json:"parsed_by"`
	Confidence           float64 `json:"confidence"`
	CreatedAtEpochMs     int64   `json:"created_at_epoch_ms"`
	DeviceID             string  `json:"device_id"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

func (c *Client) UploadTransaction(
	ctx context.Context,
	tx *database.Transaction,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var apiResp uploadResponse

	resp, err := c.cl.R().
		SetContext(ctx).
		SetBearerAuthToken(c.apiKey).
		SetHeader(webhook.HeaderIdempotencyKey, tx.ID).
		SetBody(&uploadRequest{
			ID:                   tx.ID,
			AmountInMinorUnits:   tx.AmountMinorUnits,
			Currency:             tx.CurrencyCode,
			Direction:            string(tx.Direction),
			CounterpartyPhone:    tx.CounterpartyPhone,
			Provider:             string(tx.Provider),
			TransactionReference: tx.TransactionReference,
			BalanceInMinorUnits:  tx.BalanceMinorUnits,
			Sender:               tx.Sender,
			RawMessage:           tx.RawMessage,
			ParsedBy:             string(tx.ParsedBy),
			Confidence:           tx.Confidence,
			CreatedAtEpochMs:     tx.CreatedAtEpochMs,
			DeviceID:             c.deviceID,
		}).
		SetSuccessResult(&apiResp).
		Post(c.baseURL + "/api/v1/transactions")
	if err != nil {
		return "", errors.Wrap(err, "failed to upload transaction")
	}

	if resp.IsErrorState() {
		return "", errors.Newf("got error response: %s", resp.String())
	}

	return apiResp.ID, nil
}
