package events

import (
	"context"
	"errors"

	"go-stock-ledger/internal/model"
)

// Publisher delivers committed stock events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event model.StockEvent) error
}

type nopPublisher struct{}

func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, model.StockEvent) error { return nil }

type multiPublisher []Publisher

// NewMultiPublisher fans an event out to every publisher and joins their errors.
func NewMultiPublisher(publishers ...Publisher) Publisher {
	return multiPublisher(publishers)
}

func (m multiPublisher) Publish(ctx context.Context, event model.StockEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
