// README: Redis pub/sub broadcaster for auction notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"relay/internal/types"
)

const (
	newRequestChannel   = "relay:requests:new"
	volunteerChanPrefix = "relay:volunteers:%s"
	outcomeChanPrefix   = "relay:requests:%s:outcome"
)

// Broadcaster implements auction.Notifier over Redis pub/sub. Delivery
// is fire-and-forget: subscribers that are offline simply miss the
// message, which matches the broadcast contract.
type Broadcaster struct {
	redis *redis.Client
}

func NewBroadcaster(redis *redis.Client) *Broadcaster {
	return &Broadcaster{redis: redis}
}

type requestNotice struct {
	RequestID  types.ID    `json:"request_id"`
	Pickup     types.Point `json:"pickup"`
	Volunteers []types.ID  `json:"volunteers,omitempty"`
}

type outcomeNotice struct {
	RequestID   types.ID `json:"request_id"`
	Result      string   `json:"result"`
	VolunteerID types.ID `json:"volunteer_id,omitempty"`
}

func (b *Broadcaster) BroadcastRequest(ctx context.Context, requestID types.ID, pickup types.Point, volunteers []types.ID) error {
	payload, err := json.Marshal(requestNotice{RequestID: requestID, Pickup: pickup, Volunteers: volunteers})
	if err != nil {
		return err
	}
	if err := b.redis.Publish(ctx, newRequestChannel, payload).Err(); err != nil {
		return fmt.Errorf("broadcast request %s: %w", requestID, err)
	}
	return nil
}

func (b *Broadcaster) NotifyAssigned(ctx context.Context, requestID, volunteerID types.ID) error {
	payload, err := json.Marshal(outcomeNotice{RequestID: requestID, Result: "assigned", VolunteerID: volunteerID})
	if err != nil {
		return err
	}
	pipe := b.redis.Pipeline()
	pipe.Publish(ctx, fmt.Sprintf(volunteerChanPrefix, string(volunteerID)), payload)
	pipe.Publish(ctx, fmt.Sprintf(outcomeChanPrefix, string(requestID)), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("notify assigned %s: %w", requestID, err)
	}
	return nil
}

func (b *Broadcaster) NotifyUnassigned(ctx context.Context, requestID types.ID) error {
	payload, err := json.Marshal(outcomeNotice{RequestID: requestID, Result: "unassigned"})
	if err != nil {
		return err
	}
	if err := b.redis.Publish(ctx, fmt.Sprintf(outcomeChanPrefix, string(requestID)), payload).Err(); err != nil {
		return fmt.Errorf("notify unassigned %s: %w", requestID, err)
	}
	return nil
}
