package ws

import (
	"encoding/json"
	"sync"

	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

// Broker routes published payloads to subscribed connections.
type Broker interface {
	Subscribe(c *Client, d Destination)
	Unsubscribe(c *Client, d Destination)

	// Publish delivers the payload to every current subscriber of a
	// broadcast topic, or to the subscribers whose principal subject matches
	// the user segment of a user-scoped destination. Payloads over the size
	// limit are rejected whole with ErrMessageTooLarge.
	Publish(d Destination, body []byte) error

	// Disconnect atomically removes all of the connection's subscriptions
	// and closes it. No publish observes a half-removed connection.
	Disconnect(c *Client)

	Close() error
}

// LocalBroker is the in-process Broker.
type LocalBroker struct {
	maxMessageSize int

	mu     sync.Mutex
	subs   map[string]map[string]*Client   // destination path -> conn ID -> client
	byConn map[string]map[string]struct{}  // conn ID -> destination paths
}

// NewLocalBroker creates an in-process broker.
func NewLocalBroker(maxMessageSize int) *LocalBroker {
	return &LocalBroker{
		maxMessageSize: maxMessageSize,
		subs:           make(map[string]map[string]*Client),
		byConn:         make(map[string]map[string]struct{}),
	}
}

// Subscribe adds a (connection, destination) pair. The caller authorizes
// first.
func (b *LocalBroker) Subscribe(c *Client, d Destination) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[d.Path]; !ok {
		b.subs[d.Path] = make(map[string]*Client)
	}
	b.subs[d.Path][c.ID] = c

	if _, ok := b.byConn[c.ID]; !ok {
		b.byConn[c.ID] = make(map[string]struct{})
	}
	b.byConn[c.ID][d.Path] = struct{}{}
}

// Unsubscribe removes a (connection, destination) pair.
func (b *LocalBroker) Unsubscribe(c *Client, d Destination) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(c.ID, d.Path)
}

// Publish fans the payload out to current subscribers. Frames are enqueued
// while holding the broker lock, so deliveries on one destination keep
// publish order per subscriber.
func (b *LocalBroker) Publish(d Destination, body []byte) error {
	if b.maxMessageSize > 0 && len(body) > b.maxMessageSize {
		return ErrMessageTooLarge
	}

	data, err := json.Marshal(NewMessageFrame(d.Path, body))
	if err != nil {
		return err
	}

	b.deliver(d, data)
	return nil
}

// deliver enqueues an already-framed payload. Subscribers whose outbound
// buffer overflows are torn down without affecting the rest.
func (b *LocalBroker) deliver(d Destination, data []byte) {
	var slow []*Client

	b.mu.Lock()
	for _, c := range b.subs[d.Path] {
		if d.UserScoped() && c.Principal.Subject != d.Subject() {
			continue
		}
		if !c.enqueue(data) {
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		for path := range b.byConn[c.ID] {
			b.removeLocked(c.ID, path)
		}
		delete(b.byConn, c.ID)
	}
	b.mu.Unlock()

	for _, c := range slow {
		log.L().Warn().Str(log.FieldConnID, c.ID).Str(log.FieldDestination, d.Path).
			Msg("send buffer overflow, disconnecting subscriber")
		c.terminate()
	}
}

// Disconnect removes every subscription of the connection before closing it,
// under one critical section.
func (b *LocalBroker) Disconnect(c *Client) {
	b.mu.Lock()
	for path := range b.byConn[c.ID] {
		b.removeLocked(c.ID, path)
	}
	delete(b.byConn, c.ID)
	b.mu.Unlock()

	c.terminate()
}

// Close implements Broker. The local broker holds no external resources.
func (b *LocalBroker) Close() error {
	return nil
}

// SubscriberCount reports current subscribers of a destination.
func (b *LocalBroker) SubscriberCount(d Destination) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[d.Path])
}

func (b *LocalBroker) removeLocked(connID, path string) {
	if clients, ok := b.subs[path]; ok {
		delete(clients, connID)
		if len(clients) == 0 {
			delete(b.subs, path)
		}
	}
	if paths, ok := b.byConn[connID]; ok {
		delete(paths, path)
	}
}
