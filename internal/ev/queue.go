// Package ev provides the event queue that backs a client's dispatch
// loop.
package ev

import (
	"errors"

	"deedles.dev/xsync/cq"
)

// Queue collects pending work, both outgoing requests and incoming
// event dispatches, as thunks to be run on the dispatching goroutine.
type Queue = cq.BulkQueue[func() error, *Events]

func NewQueue() *Queue {
	return cq.New(func(v []func() error) *Events {
		return &Events{
			events: v,
		}
	})
}

// Events is one batch pulled from a Queue.
type Events struct {
	events []func() error
}

// Flush runs every thunk in the batch, in order, and joins any
// errors. All thunks run even if an earlier one fails.
func (q *Events) Flush() error {
	return errors.Join(Flush(q)...)
}

func Flush(queue *Events) (errs []error) {
	for _, ev := range queue.events {
		err := ev()
		if err != nil {
			errs = append(errs, err)
		}
	}
	queue.events = nil
	return errs
}
