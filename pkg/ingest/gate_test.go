package ingest_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ikanisa/momo-relay/pkg/common"
	"github.com/ikanisa/momo-relay/pkg/ingest"
	"github.com/ikanisa/momo-relay/pkg/patterns"
)

type recordingHandler struct {
	mu   sync.Mutex
	msgs []ingest.Message
	done chan struct{}
}

func newRecordingHandler(expect int) *recordingHandler {
	h := &recordingHandler{done: make(chan struct{})}
	if expect == 0 {
		close(h.done)
		return h
	}

	go func() {
		for {
			h.mu.Lock()
			n := len(h.msgs)
			h.mu.Unlock()

			if n >= expect {
				close(h.done)
				return
			}

			time.Sleep(5 * time.Millisecond)
		}
	}()

	return h
}

func (h *recordingHandler) HandleMessage(_ context.Context, msg ingest.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.msgs = append(h.msgs, msg)

	return nil
}

func (h *recordingHandler) received() []ingest.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]ingest.Message, len(h.msgs))
	copy(out, h.msgs)

	return out
}

func TestAcceptFiltersBySenderAndKeyword(t *testing.T) {
	registry := patterns.DefaultRegistry()

	gate := ingest.NewGate(registry, newRecordingHandler(0), 8, 1)

	cases := []struct {
		name     string
		sender   string
		body     string
		accepted bool
	}{
		{
			name:     "known provider sender",
			sender:   "MTN Mobile Money",
			body:     "anything at all",
			accepted: true,
		},
		{
			name:     "money keyword in body",
			sender:   "+233555000111",
			body:     "You have received GHS 50.00 from 0244123456.",
			accepted: true,
		},
		{
			name:     "french keyword",
			sender:   "+237699000111",
			body:     "Vous avez reçu 5000 FCFA",
			accepted: true,
		},
		{
			name:     "keyword is case insensitive",
			sender:   "unknown",
			body:     "PAYMENT made to KPLC",
			accepted: true,
		},
		{
			name:     "chatter is dropped",
			sender:   "+233555000111",
			body:     "hey, are we still on for lunch?",
			accepted: false,
		},
		{
			name:     "promo is dropped",
			sender:   "PROMO",
			body:     "Win big this weekend! Dial *123#",
			accepted: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			accepted, acceptErr := gate.Accept(context.TODO(), ingest.Message{
				Sender: tc.sender,
				Body:   tc.body,
			})
			assert.NoError(t, acceptErr)
			assert.Equal(t, tc.accepted, accepted)
		})
	}
}

func TestAcceptedMessagesReachHandler(t *testing.T) {
	registry := patterns.DefaultRegistry()

	handler := newRecordingHandler(2)
	gate := ingest.NewGate(registry, handler, 8, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go gate.Run(ctx)

	accepted, err := gate.Accept(ctx, ingest.Message{
		Sender:            "MPESA",
		Body:              "ABC123 Confirmed. You have received Ksh500.00",
		ReceivedAtEpochMs: 1700000000000,
	})
	require.NoError(t, err)
	require.True(t, accepted)

	accepted, err = gate.Accept(ctx, ingest.Message{
		Sender: "unknown",
		Body:   "cash out of RWF 2,000 completed",
	})
	require.NoError(t, err)
	require.True(t, accepted)

	select {
	case <-handler.done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never saw the accepted messages")
	}

	msgs := handler.received()
	require.Len(t, msgs, 2)

	// Workers finish in any order; find the MPESA message by sender.
	msg, _, found := lo.FindIndexOf(msgs, func(m ingest.Message) bool {
		return m.Sender == "MPESA"
	})
	require.True(t, found)
	assert.EqualValues(t, 1700000000000, msg.ReceivedAtEpochMs)
}

func TestAcceptRefusesWhenQueueIsFull(t *testing.T) {
	registry := patterns.DefaultRegistry()

	// No Run loop draining, so the queue fills after one message.
	gate := ingest.NewGate(registry, newRecordingHandler(0), 1, 1)

	accepted, err := gate.Accept(context.TODO(), ingest.Message{
		Sender: "MPESA",
		Body:   "payment received",
	})
	require.NoError(t, err)
	require.True(t, accepted)

	accepted, err = gate.Accept(context.TODO(), ingest.Message{
		Sender: "MPESA",
		Body:   "another payment received",
	})
	assert.True(t, accepted)
	assert.ErrorIs(t, err, common.ErrQueueFull)
	assert.Equal(t, 1, gate.QueueDepth())
}
