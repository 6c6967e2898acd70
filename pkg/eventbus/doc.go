// Package eventbus implements the in-process publish/subscribe primitive at
// the bottom of the notification pipeline.
//
// Producers construct typed events through per-type constructors (which
// validate payloads at construction) and publish them fire-and-forget;
// Publish never returns an error to the caller. Each matching handler runs
// as an independently scheduled execution wrapped with a timeout and an
// exponential backoff retry loop, so a slow or failing handler never blocks
// its siblings or the publisher.
//
//	bus := eventbus.New(eventbus.WithLogger(log))
//	defer func() {
//		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//		defer cancel()
//		_ = bus.Close(ctx)
//	}()
//
//	unsubscribe := bus.Subscribe(eventbus.TypePostUpvoted, handler,
//		eventbus.WithTimeout(5*time.Second),
//		eventbus.WithPriority(10),
//	)
//	defer unsubscribe()
//
//	evt, err := eventbus.NewPostUpvoted(postID, authorID, voterID, voterName)
//	if err == nil {
//		bus.Publish(ctx, evt)
//	}
//
// Handlers that exhaust their retries surface through the handler-error
// callback for observability; nothing propagates back to business logic.
package eventbus
