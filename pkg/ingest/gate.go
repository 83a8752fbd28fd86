package ingest

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"

	"github.com/ikanisa/momo-relay/pkg/common"
	"github.com/ikanisa/momo-relay/pkg/patterns"
)

const bodyPreviewLimit = 120

// moneyKeywords is the substring allow-list applied to message bodies
// whose sender is not a registered provider identity. Matching is
// case-insensitive.
var moneyKeywords = []string{
	"received",
	"sent",
	"payment",
	"paid",
	"withdraw",
	"deposit",
	"transfer",
	"balance",
	"airtime",
	"cash out",
	"cash in",
	"momo",
	"mobile money",
	"transaction",
	"recu",
	"reçu",
	"envoye",
	"envoyé",
	"retrait",
	"solde",
}

// Message is one raw inbound SMS. It lives only until the parse
// attempt finishes; nothing here is persisted unless a parser
// produces a transaction from it.
type Message struct {
	Sender            string
	Body              string
	ReceivedAtEpochMs int64
}

type Handler interface {
	HandleMessage(ctx context.Context, msg Message) error
}

// Gate filters inbound messages down to money-related ones and hands
// the survivors to a bounded background queue. Accept itself does no
// I/O and never blocks; bursts beyond the queue capacity are refused
// with common.ErrQueueFull rather than buffered without limit.
type Gate struct {
	registry *patterns.Registry
	handler  Handler
	queue    chan Message
	wp       *workerpool.WorkerPool
}

func NewGate(
	registry *patterns.Registry,
	handler Handler,
	queueSize int,
	workers int,
) *Gate {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 4
	}

	return &Gate{
		registry: registry,
		handler:  handler,
		queue:    make(chan Message, queueSize),
		wp:       workerpool.New(workers),
	}
}

// Accept decides whether msg looks money-related and, if so, enqueues
// it for background parsing. The boolean reports the filter decision;
// an error is returned only when an accepted message cannot be
// queued.
func (g *Gate) Accept(ctx context.Context, msg Message) (bool, error) {
	logger := zerolog.Ctx(ctx)

	if !g.isMoneyRelated(msg) {
		logger.Debug().
			Str("sender", msg.Sender).
			Str("body", preview(msg.Body)).
			Msg("dropping non financial message")

		return false, nil
	}

	select {
	case g.queue <- msg:
		return true, nil
	default:
		logger.Warn().
			Str("sender", msg.Sender).
			Int("queueSize", cap(g.queue)).
			Msg("inbound queue is full")

		return true, common.ErrQueueFull
	}
}

// Run drains the queue onto the worker pool until ctx is cancelled,
// then waits for in-flight handlers to finish.
func (g *Gate) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx)

	for {
		select {
		case <-ctx.Done():
			g.wp.StopWait()
			return
		case msg := <-g.queue:
			g.wp.Submit(func() {
				if err := g.handler.HandleMessage(ctx, msg); err != nil {
					logger.Error().Err(err).
						Str("sender", msg.Sender).
						Msg("failed to handle message")
				}
			})
		}
	}
}

func (g *Gate) QueueDepth() int {
	return len(g.queue)
}

func (g *Gate) isMoneyRelated(msg Message) bool {
	if g.registry.KnownSender(msg.Sender) {
		return true
	}

	body := strings.ToLower(msg.Body)
	for _, kw := range moneyKeywords {
		if strings.Contains(body, kw) {
			return true
		}
	}

	return false
}

func preview(body string) string {
	if len(body) <= bodyPreviewLimit {
		return body
	}

	cut := bodyPreviewLimit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}

	return body[:cut]
}
