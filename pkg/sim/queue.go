package sim

import (
	"container/heap"
	"time"

	"github.com/SiloFlight/Strat-Sim/pkg/common"
)

type queueItem struct {
	ev       common.Event
	ts       time.Time
	priority common.EventKind
	seq      uint64
}

// eventQueue orders items by timestamp, then by event kind precedence, then
// by insertion sequence. Two runs over the same inputs drain identically.
type eventQueue struct {
	items   []queueItem
	nextSeq uint64
}

func newEventQueue() *eventQueue {
	q := &eventQueue{}
	heap.Init(q)
	return q
}

func (q *eventQueue) Push(x any) {
	q.items = append(q.items, x.(queueItem))
}

func (q *eventQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

func (q *eventQueue) Len() int { return len(q.items) }

func (q *eventQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if !a.ts.Equal(b.ts) {
		return a.ts.Before(b.ts)
	}
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.seq < b.seq
}

func (q *eventQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *eventQueue) push(ev common.Event) {
	heap.Push(q, queueItem{
		ev:       ev,
		ts:       ev.Time(),
		priority: ev.Kind(),
		seq:      q.nextSeq,
	})
	q.nextSeq++
}

func (q *eventQueue) pop() (common.Event, bool) {
	if q.Len() == 0 {
		return nil, false
	}
	return heap.Pop(q).(queueItem).ev, true
}

func (q *eventQueue) peek() (common.Event, bool) {
	if q.Len() == 0 {
		return nil, false
	}
	return q.items[0].ev, true
}
