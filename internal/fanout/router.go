package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/roamly-app/backend/internal/models"
	"github.com/roamly-app/backend/internal/realtime"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentDeliveries bounds the per-event fan-out workers so one
// large audience cannot exhaust the process.
const maxConcurrentDeliveries = 8

// Event is a domain occurrence to be fanned out. Direct events name a
// single recipient; broadcast events reach the actor's followers.
type Event struct {
	Kind        string
	ActorID     uint
	RecipientID uint // direct events only
	Broadcast   bool // fan out to the actor's followers
	Title       string
	Message     string
	Link        string
	Payload     map[string]any
}

// FollowerSource resolves the audience of broadcast events.
type FollowerSource interface {
	GetFollowerIDs(userID uint) ([]uint, error)
}

// Publisher is the realtime delivery channel. Publish is fire-and-forget.
type Publisher interface {
	Publish(userID uint, msg realtime.Message)
	IsOnline(userID uint) bool
}

// Ledger records notifications durably for offline consumption.
type Ledger interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Pusher delivers a mobile push to a recipient. Optional; a nil pusher
// disables the channel.
type Pusher interface {
	Push(ctx context.Context, userID uint, title, body string, data map[string]string) error
}

// Router translates one domain event into per-recipient realtime
// publications and ledger writes. Deliveries to different recipients are
// independent: there is no ordering between them and no rollback when
// some fail.
type Router struct {
	followers FollowerSource
	publisher Publisher
	ledger    Ledger
	pusher    Pusher
}

func NewRouter(followers FollowerSource, publisher Publisher, ledger Ledger, pusher Pusher) *Router {
	return &Router{
		followers: followers,
		publisher: publisher,
		ledger:    ledger,
		pusher:    pusher,
	}
}

// Route resolves the audience of the event and attempts, for every
// recipient, a realtime publish and a durable ledger write. Realtime
// misses are expected (recipient offline) and never reported. Ledger
// write failures are logged and do not abort delivery to the rest of
// the audience. An error is returned only when the audience itself
// cannot be resolved.
func (r *Router) Route(ctx context.Context, event Event) error {
	audience, err := r.resolveAudience(event)
	if err != nil {
		return fmt.Errorf("resolving audience for %q event: %w", event.Kind, err)
	}
	if len(audience) == 0 {
		return nil
	}

	payload := ""
	if event.Payload != nil {
		if raw, err := json.Marshal(event.Payload); err == nil {
			payload = string(raw)
		}
	}

	msg := realtime.Message{
		Kind:    event.Kind,
		ActorID: event.ActorID,
		Data:    event.Payload,
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentDeliveries)
	for _, recipientID := range audience {
		recipientID := recipientID
		g.Go(func() error {
			r.deliver(ctx, event, recipientID, msg, payload)
			return nil
		})
	}
	return g.Wait()
}

// resolveAudience returns the deduplicated recipient set. The actor is
// never part of their own audience.
func (r *Router) resolveAudience(event Event) ([]uint, error) {
	var candidates []uint
	if event.Broadcast {
		followers, err := r.followers.GetFollowerIDs(event.ActorID)
		if err != nil {
			return nil, err
		}
		candidates = followers
	} else if event.RecipientID != 0 {
		candidates = []uint{event.RecipientID}
	}

	seen := make(map[uint]struct{}, len(candidates))
	audience := make([]uint, 0, len(candidates))
	for _, id := range candidates {
		if id == event.ActorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		audience = append(audience, id)
	}
	return audience, nil
}

func (r *Router) deliver(ctx context.Context, event Event, recipientID uint, msg realtime.Message, payload string) {
	online := r.publisher.IsOnline(recipientID)
	r.publisher.Publish(recipientID, msg)

	notification := &models.Notification{
		Type:        event.Kind,
		ActorID:     event.ActorID,
		RecipientID: recipientID,
		Title:       event.Title,
		Message:     event.Message,
		Link:        event.Link,
		Payload:     payload,
	}
	if err := r.ledger.Create(ctx, notification); err != nil {
		log.Printf("fanout: ledger write for user %d (%s) failed: %v", recipientID, event.Kind, err)
	}

	// Mobile push only for recipients with no live session; connected
	// clients already got the realtime message.
	if r.pusher != nil && !online {
		data := map[string]string{"kind": event.Kind, "link": event.Link}
		if err := r.pusher.Push(ctx, recipientID, event.Title, event.Message, data); err != nil {
			log.Printf("fanout: push to user %d (%s) failed: %v", recipientID, event.Kind, err)
		}
	}
}
