package repo

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, &gormigrate.Options{
		TableName:                 "gorm_migrations",
		IDColumnName:              "id",
		IDColumnSize:              255,
		UseTransaction:            false,
		ValidateUnknownMigrations: false,
	}, getMigrations())

	return m.Migrate()
}

func getMigrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "2025_07_02_Initial",
			Migrate: func(db *gorm.DB) error {
				return db.Exec(`create table if not exists transactions
(
    id                    text not null
        constraint transactions_pk
            primary key,
    amount_minor_units    integer not null,
    currency_code         text,
    direction             text,
    counterparty_phone    text,
    provider              text,
    transaction_reference text,
    balance_minor_units   integer,
    sender                text,
    raw_message           text,
    parsed_by             text,
    confidence            real,
    created_at_epoch_ms   integer,
    sync_state            text,
    remote_id             text,
    sync_error            text
);
`).Error
			},
		},
		{
			ID: "2025_07_02_TransactionsSyncStateIndex",
			Migrate: func(db *gorm.DB) error {
				return db.Exec(`create index if not exists idx_transactions_sync_state
    on transactions (sync_state);
`).Error
			},
		},
		{
			ID: "2025_07_02_WebhookConfigs",
			Migrate: func(db *gorm.DB) error {
				return db.Exec(`create table if not exists webhook_configs
(
    id                  text not null
        constraint webhook_configs_pk
            primary key,
    name                text,
    url                 text not null,
    phone_match_pattern text,
    api_key             text,
    hmac_secret         text,
    is_active           integer,
    created_at_epoch_ms integer
);
`).Error
			},
		},
		{
			ID: "2025_07_02_DeliveryLogs",
			Migrate: func(db *gorm.DB) error {
				return db.Exec(`create table if not exists delivery_logs
(
    id                  text not null
        constraint delivery_logs_pk
            primary key,
    webhook_id          text,
    event_id            text,
    transaction_ref     text,
    sender              text,
    message             text,
    event_timestamp_ms  integer,
    status              text,
    retry_count         integer,
    response_code       integer,
    response_body       text,
    next_attempt_at_ms  integer,
    created_at_epoch_ms integer,
    updated_at_epoch_ms integer
);
`).Error
			},
		},
		{
			ID: "2025_07_02_DeliveryLogsIndexes",
			Migrate: func(db *gorm.DB) error {
				if err := db.Exec(`create index if not exists idx_delivery_logs_webhook
    on delivery_logs (webhook_id);`).Error; err != nil {
					return err
				}

				if err := db.Exec(`create index if not exists idx_delivery_logs_status
    on delivery_logs (status);`).Error; err != nil {
					return err
				}

				return db.Exec(`create unique index if not exists idx_delivery_logs_webhook_event
    on delivery_logs (webhook_id, event_id);`).Error
			},
		},
	}
}
