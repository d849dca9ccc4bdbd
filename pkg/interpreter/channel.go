package interpreter

import "sync"

type EndpointKind int

const (
	SendEnd EndpointKind = iota
	ReceiveEnd
)

// String returns the name of the endpoint kind
func (k EndpointKind) String() string {
	if k == SendEnd {
		return "send"
	}
	return "receive"
}

// Endpoint is one half of a channel carrying integers.
type Endpoint struct {
	kind EndpointKind
	q    *queue
}

// NewChannel creates a linked send/receive endpoint pair. Sends never
// block; receives block until a value is available.
func NewChannel() (tx, rx *Endpoint) {
	q := &queue{}
	q.ready = sync.NewCond(&q.mu)
	return &Endpoint{kind: SendEnd, q: q}, &Endpoint{kind: ReceiveEnd, q: q}
}

// Kind reports which half of the channel this is
func (e *Endpoint) Kind() EndpointKind {
	return e.kind
}

// Send enqueues v
func (e *Endpoint) Send(v int64) {
	e.q.push(v)
}

// Receive blocks until a value arrives and returns it
func (e *Endpoint) Receive() int64 {
	return e.q.pop()
}

// queue is an unbounded FIFO shared by the two halves of a channel
type queue struct {
	mu    sync.Mutex
	ready *sync.Cond
	items []int64
}

func (q *queue) push(v int64) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.ready.Signal()
}

func (q *queue) pop() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		q.ready.Wait()
	}

	v := q.items[0]
	q.items = q.items[1:]
	return v
}
