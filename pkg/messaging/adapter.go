package messaging

import (
	"context"
	"encoding/json"
	"fmt"
)

// Consume subscribes to channel and calls handler for every decoded message
// until ctx is done or the subscription closes. Undecodable payloads and
// handler errors are passed to onError and do not stop consumption.
func Consume(ctx context.Context, broker Broker, channel string, handler func(Message) error, onError func(error)) error {
	msgChan, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-msgChan:
			if !ok {
				return nil
			}

			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				onError(fmt.Errorf("failed to decode message: %w", err))
				continue
			}
			if err := handler(msg); err != nil {
				onError(err)
			}
		}
	}
}
