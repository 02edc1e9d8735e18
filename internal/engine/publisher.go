package engine

import (
	crand "crypto/rand"
	"encoding/hex"
	"sync"
)

// Publisher fans completed assessments out to subscribers. Sends never
// block: each subscriber channel holds one assessment, and a subscriber
// that lags simply misses the intermediate ones.
type Publisher struct {
	mu     sync.Mutex
	subs   map[string]chan *RiskAssessment
	closed bool
}

func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[string]chan *RiskAssessment)}
}

// randomID generates a random subscriber ID (8 byte random hex encoded
// value).
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// Subscribe registers a new subscriber and returns its ID and channel.
// The channel is closed on Unsubscribe or Close.
func (p *Publisher) Subscribe() (string, <-chan *RiskAssessment) {
	id := randomID()
	ch := make(chan *RiskAssessment, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(ch)
		return id, ch
	}
	p.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown IDs
// are a no-op.
func (p *Publisher) Unsubscribe(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.subs[id]; ok {
		close(ch)
		delete(p.subs, id)
	}
}

// Publish delivers the assessment to every subscriber whose channel has
// room and skips the rest.
func (p *Publisher) Publish(a *RiskAssessment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- a:
		default:
		}
	}
}

// Close closes all subscriber channels and rejects future subscribers.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}
