package common

import "github.com/cockroachdb/errors"

var (
	ErrNotFound    = errors.New("record not found")
	ErrQueueFull   = errors.New("ingest queue is full")
	ErrInsecureURL = errors.New("webhook url must use https outside loopback")
)
