package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// channelPrefix namespaces change channels, one channel per table
const channelPrefix = "changes:"

// Change is a hint that rows in a table changed. Payloads carry no row
// data: subscribers must re-read authoritative state from the store,
// so a dropped message only delays a refresh and never corrupts it.
type Change struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
}

// Notifier publishes and subscribes to table change hints over Redis pub/sub
type Notifier struct {
	client *redis.Client
}

// NewNotifier creates a notifier on an existing Redis client
func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

// Publish emits a change hint. Failures are returned but callers treat
// them as non-fatal; the channel is a UI convenience, not a
// correctness mechanism.
func (n *Notifier) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := n.client.Publish(ctx, channelPrefix+change.Table, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe invokes fn for every change hint on the given table's
// channel until the returned unsubscribe function is called. Malformed
// payloads are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context, table string, fn func(Change)) (func(), error) {
	sub := n.client.Subscribe(ctx, channelPrefix+table)

	// Force the subscription to be established before returning
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s changes: %w", table, err)
	}

	go func() {
		for msg := range sub.Channel() {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.Printf("notify: dropping malformed change payload: %v", err)
				continue
			}
			fn(change)
		}
	}()

	unsubscribe := func() {
		if err := sub.Close(); err != nil {
			log.Printf("notify: failed to close subscription: %v", err)
		}
	}
	return unsubscribe, nil
}
