package web

import (
	"sync"

	"github.com/ersonp/newscheck/internal/domain/entities"
)

// subscriberBuffer is how many snapshots a slow SSE client may lag behind
// before further snapshots are dropped for it.
const subscriberBuffer = 8

// broker fans result snapshots out to SSE clients.
type broker struct {
	mu      sync.Mutex
	clients map[chan entities.AnalysisResult]struct{}
}

func newBroker() *broker {
	return &broker{clients: make(map[chan entities.AnalysisResult]struct{})}
}

func (b *broker) subscribe() chan entities.AnalysisResult {
	ch := make(chan entities.AnalysisResult, subscriberBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *broker) unsubscribe(ch chan entities.AnalysisResult) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

// publish never blocks the submitting goroutine.
func (b *broker) publish(result entities.AnalysisResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- result:
		default:
		}
	}
}

func (b *broker) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}
