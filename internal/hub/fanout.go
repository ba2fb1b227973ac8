package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alecbaum/wagl-backend-sub002/pkg/log"
	"github.com/alecbaum/wagl-backend-sub002/pkg/pubsub"
)

// Fanout bridges the cross-instance event bus into the local hub so
// clients connected to another instance still see room traffic.
type Fanout struct {
	sub pubsub.Subscriber
	hub *Hub
}

func NewFanout(sub pubsub.Subscriber, h *Hub) *Fanout {
	return &Fanout{sub: sub, hub: h}
}

// Run pumps bus events into the hub until ctx is cancelled.
func (f *Fanout) Run(ctx context.Context) error {
	pattern := fmt.Sprintf(pubsub.ChannelRoom, "*")
	events, err := f.sub.SubscribePattern(ctx, pattern)
	if err != nil {
		return err
	}

	l := log.L()
	l.Info().Str("pattern", pattern).Msg("room fan-out started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				l.Warn().Err(err).Msg("failed to marshal bus event")
				continue
			}
			f.hub.BroadcastRawToRoom(event.RoomID, data, "")
		}
	}
}
