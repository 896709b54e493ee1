package worker

import (
	"context"

	audit "datagate/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. A failed
// append is reported through the error handler and the worker moves on, so one
// bad event never stalls the rest.
type Worker struct {
	store   audit.Store
	inbox   <-chan audit.Event
	onError func(audit.Event, error)
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, onError func(audit.Event, error)) *Worker {
	return &Worker{store: store, inbox: inbox, onError: onError}
}

// Run drains the inbox until it is closed or ctx is done. A closed inbox is a
// clean stop and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil && w.onError != nil {
				w.onError(event, err)
			}
		}
	}
}
