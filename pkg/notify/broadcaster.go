package notify

import "context"

// Broadcaster fans an event out to whoever is listening. Delivery is
// best-effort: implementations must never block or fail the caller on a
// slow listener. The dispatcher is owned by the composition root and
// injected into services, never reached through package-level state.
type Broadcaster interface {
	Broadcast(ctx context.Context, event Event)
}

// Fanout broadcasts to several sinks in order.
type Fanout []Broadcaster

func (f Fanout) Broadcast(ctx context.Context, event Event) {
	for _, b := range f {
		b.Broadcast(ctx, event)
	}
}
