package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/drdata1010/plan-b-backend-sub001/internal/config"
	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

const relayChannel = "support-ticket:ws"

// relayEnvelope carries a published payload across the relay.
type relayEnvelope struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

// RelayBroker delegates fan-out to a Redis relay so every instance sharing
// the relay sees every publish. Local subscriptions and disconnects are
// handled by the wrapped LocalBroker; deliveries arrive through the relay
// subscription, own publishes included.
type RelayBroker struct {
	local  *LocalBroker
	rdb    *redis.Client
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// NewRelayBroker connects to the relay. Relay unavailability is a fatal
// startup condition for relay mode, not a per-message retry.
func NewRelayBroker(local *LocalBroker, cfg config.RelayConfig) (*RelayBroker, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrRelayUnavailable, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &RelayBroker{
		local:  local,
		rdb:    rdb,
		pubsub: rdb.Subscribe(ctx, relayChannel),
		cancel: cancel,
	}

	go b.receive(ctx)
	return b, nil
}

// Subscribe implements Broker.
func (b *RelayBroker) Subscribe(c *Client, d Destination) {
	b.local.Subscribe(c, d)
}

// Unsubscribe implements Broker.
func (b *RelayBroker) Unsubscribe(c *Client, d Destination) {
	b.local.Unsubscribe(c, d)
}

// Publish forwards the payload to the relay. Size limits are enforced at
// this boundary; delivery to local subscribers happens when the relayed
// message comes back.
func (b *RelayBroker) Publish(d Destination, body []byte) error {
	if b.local.maxMessageSize > 0 && len(body) > b.local.maxMessageSize {
		return ErrMessageTooLarge
	}

	data, err := json.Marshal(relayEnvelope{Destination: d.Path, Body: body})
	if err != nil {
		return err
	}
	return b.rdb.Publish(context.Background(), relayChannel, data).Err()
}

// Disconnect implements Broker.
func (b *RelayBroker) Disconnect(c *Client) {
	b.local.Disconnect(c)
}

// Close tears down the relay subscription and client.
func (b *RelayBroker) Close() error {
	b.cancel()
	b.pubsub.Close()
	return b.rdb.Close()
}

func (b *RelayBroker) receive(ctx context.Context) {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.L().Warn().Err(err).Msg("malformed relay envelope")
				continue
			}
			d, err := ParseDestination(env.Destination)
			if err != nil {
				log.L().Warn().Str(log.FieldDestination, env.Destination).Msg("relay envelope with invalid destination")
				continue
			}

			data, err := json.Marshal(NewMessageFrame(d.Path, env.Body))
			if err != nil {
				continue
			}
			b.local.deliver(d, data)
		}
	}
}
