package main

import "time"

type Config struct {
	ListenAddr        string `env:"LISTEN_ADDR" envDefault:":8080"`
	InboundAPIKey     string `env:"INBOUND_API_KEY,required"`
	DatabasePath      string `env:"DATABASE_PATH" envDefault:"momo-relay.db"`
	DeviceID          string `env:"DEVICE_ID" envDefault:"momo-relay"`
	DevicePhoneNumber string `env:"DEVICE_PHONE_NUMBER"`
	CountryCode       string `env:"COUNTRY_CODE" envDefault:"GH"`
	DefaultCurrency   string `env:"DEFAULT_CURRENCY" envDefault:"GHS"`

	OpenAIAPIKey  string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string        `env:"OPENAI_BASE_URL"`
	OpenAIModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	ParserTimeout time.Duration `env:"PARSER_TIMEOUT" envDefault:"20s"`

	BackendURL        string        `env:"BACKEND_URL"`
	BackendAPIKey     string        `env:"BACKEND_API_KEY"`
	SyncTimeout       time.Duration `env:"SYNC_TIMEOUT" envDefault:"30s"`
	SyncSweepInterval time.Duration `env:"SYNC_SWEEP_INTERVAL" envDefault:"5m"`

	WebhookTimeout    time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookMaxRetries int           `env:"WEBHOOK_MAX_RETRIES" envDefault:"5"`
	RetryPollInterval time.Duration `env:"RETRY_POLL_INTERVAL" envDefault:"30s"`

	IngestQueueSize int `env:"INGEST_QUEUE_SIZE" envDefault:"256"`
	IngestWorkers   int `env:"INGEST_WORKERS" envDefault:"4"`
}

type InboundSMS struct {
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type InboundResponse struct {
	Accepted bool `json:"accepted"`
}

type HealthResponse struct {
	Status              string `json:"status"`
	PendingTransactions int64  `json:"pendingTransactions"`
	PendingDeliveries   int64  `json:"pendingDeliveries"`
	QueueDepth          int    `json:"queueDepth"`
}
