package database

type Direction string

const (
	DirectionReceived   = Direction("RECEIVED")
	DirectionSent       = Direction("SENT")
	DirectionPayment    = Direction("PAYMENT")
	DirectionWithdrawal = Direction("WITHDRAWAL")
	DirectionDeposit    = Direction("DEPOSIT")
	DirectionAirtime    = Direction("AIRTIME")
	DirectionCashOut    = Direction("CASH_OUT")
	DirectionUnknown    = Direction("UNKNOWN")
)

type Provider string

const (
	ProviderMTN     = Provider("MTN")
	ProviderAirtel  = Provider("AIRTEL")
	ProviderOrange  = Provider("ORANGE")
	ProviderMpesa   = Provider("MPESA")
	ProviderUnknown = Provider("UNKNOWN")
)

type ParserTier string

const (
	TierPrimaryAI   = ParserTier("TIER_PRIMARY_AI")
	TierSecondaryAI = ParserTier("TIER_SECONDARY_AI")
	TierRegex       = ParserTier("TIER_REGEX")
	TierNone        = ParserTier("TIER_NONE")
)

type SyncState string

const (
	SyncStatePending = SyncState("PENDING")
	SyncStateSyncing = SyncState("SYNCING")
	SyncStateSynced  = SyncState("SYNCED")
	SyncStateFailed  = SyncState("FAILED")
)

type DeliveryStatus string

const (
	DeliveryStatusPending   = DeliveryStatus("PENDING")
	DeliveryStatusSent      = DeliveryStatus("SENT")
	DeliveryStatusDelivered = DeliveryStatus("DELIVERED")
	DeliveryStatusFailed    = DeliveryStatus("FAILED")
)

// Transaction is the durable record produced for every accepted SMS.
// Parse-derived fields are immutable after insert; only SyncState,
// RemoteID and SyncError transition afterwards.
type Transaction struct {
	ID                   string `gorm:"primaryKey"`
	AmountMinorUnits     int64
	CurrencyCode         string
	Direction            Direction
	CounterpartyPhone    *string
	Provider             Provider
	TransactionReference *string
	BalanceMinorUnits    *int64
	Sender               string
	RawMessage           string
	ParsedBy             ParserTier
	Confidence           float64
	CreatedAtEpochMs     int64
	SyncState            SyncState `gorm:"index"`
	RemoteID             *string
	SyncError            *string
}

func (Transaction) TableName() string {
	return "transactions"
}

type WebhookConfig struct {
	ID                string `gorm:"primaryKey"`
	Name              string
	URL               string
	PhoneMatchPattern string
	APIKey            string
	HMACSecret        string
	IsActive          bool `gorm:"index"`
	CreatedAtEpochMs  int64
}

func (WebhookConfig) TableName() string {
	return "webhook_configs"
}

// DeliveryLog is one logical delivery of one event to one webhook.
// Retries mutate the entry in place; RetryCount counts attempts.
type DeliveryLog struct {
	ID               string `gorm:"primaryKey"`
	WebhookID        string `gorm:"index"`
	EventID          string `gorm:"index"`
	TransactionRef   string
	Sender           string
	Message          string
	EventTimestampMs int64
	Status           DeliveryStatus `gorm:"index"`
	RetryCount       int
	ResponseCode     *int
	ResponseBody     *string
	NextAttemptAtMs  int64
	CreatedAtEpochMs int64
	UpdatedAtEpochMs int64
}

func (DeliveryLog) TableName() string {
	return "delivery_logs"
}
