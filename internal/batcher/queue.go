package batcher

import "sync"

// queueStore holds pending messages per topic, FIFO within a topic.
//
// drain swaps the whole slice out under the lock, so no message is seen by
// two drains and messages enqueued while a dispatch is in flight start a
// fresh sequence.
type queueStore struct {
	mu     sync.Mutex
	queues map[string][]Message
}

func newQueueStore() *queueStore {
	return &queueStore{queues: map[string][]Message{}}
}

// enqueue appends m to its topic and returns the topic's pending count.
func (q *queueStore) enqueue(m Message) int {
	q.mu.Lock()
	q.queues[m.Topic] = append(q.queues[m.Topic], m)
	n := len(q.queues[m.Topic])
	q.mu.Unlock()
	return n
}

// drain returns the topic's pending sequence and resets it to empty.
func (q *queueStore) drain(topic string) []Message {
	q.mu.Lock()
	batch := q.queues[topic]
	if len(batch) > 0 {
		delete(q.queues, topic)
	}
	q.mu.Unlock()
	return batch
}

// topics lists topics that currently have pending messages.
func (q *queueStore) topics() []string {
	q.mu.Lock()
	out := make([]string, 0, len(q.queues))
	for t, msgs := range q.queues {
		if len(msgs) > 0 {
			out = append(out, t)
		}
	}
	q.mu.Unlock()
	return out
}

func (q *queueStore) pending(topic string) int {
	q.mu.Lock()
	n := len(q.queues[topic])
	q.mu.Unlock()
	return n
}

// clear discards all pending messages. Used by Destroy.
func (q *queueStore) clear() {
	q.mu.Lock()
	q.queues = map[string][]Message{}
	q.mu.Unlock()
}
