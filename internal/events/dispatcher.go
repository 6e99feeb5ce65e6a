package events

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"

	"crowdfund/pkg/ledger"
)

// Publisher is the queue side of the dispatcher. config.Publisher satisfies it.
type Publisher interface {
	Publish(queueName string, message interface{}) error
}

// Dispatcher listens to the ledger and forwards fundraiser events to the hub and, when a
// publisher is set, to the queue. Publishing happens on a single goroutine in commit order.
type Dispatcher struct {
	programID solana.PublicKey
	hub       *Hub
	publisher Publisher
	queue     string
	now       func() time.Time
	pending   chan Event
}

func NewDispatcher(programID solana.PublicKey, hub *Hub, publisher Publisher, queue string) *Dispatcher {
	return &Dispatcher{
		programID: programID,
		hub:       hub,
		publisher: publisher,
		queue:     queue,
		now:       time.Now,
		pending:   make(chan Event, 1024),
	}
}

// OnTransaction implements ledger.Listener.
func (d *Dispatcher) OnTransaction(receipt *ledger.Receipt, tx *solana.Transaction) {
	for _, evt := range FromTransaction(d.programID, receipt, tx, d.now()) {
		if d.hub != nil {
			d.hub.Broadcast(evt)
		}
		if d.publisher == nil {
			continue
		}
		select {
		case d.pending <- evt:
		default:
			log.WithFields(log.Fields{
				"signature": evt.Signature,
				"type":      evt.Type,
			}).Error("event queue full, dropping event")
		}
	}
}

// Run publishes queued events until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	if d.publisher == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-d.pending:
			if err := d.publisher.Publish(d.queue, evt); err != nil {
				log.WithError(err).WithField("signature", evt.Signature).Error("failed to publish event")
			}
		}
	}
}

var _ ledger.Listener = (*Dispatcher)(nil)
