package events

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2/log"

	"github.com/gigforge/gig-service/internal/pkg/queue"
)

// GigMutator is the slice of the gig service the consumers drive.
type GigMutator interface {
	AdjustActiveOrderCount(ctx context.Context, gigID string, delta int64) error
	ApplyRating(ctx context.Context, gigID string, rating int) error
	UpdateProfilePicture(ctx context.Context, sellerID, profilePicture string) error
}

// Subscriber starts consumers on the broker connection.
type Subscriber interface {
	Consume(cfg queue.ConsumerConfig, handler queue.HandlerFunc) error
}

// StartConsumers subscribes to the order, review and user topics.
func StartConsumers(conn Subscriber, gigs GigMutator) error {
	subscriptions := []struct {
		exchange string
		queue    string
		handler  queue.HandlerFunc
	}{
		{ExchangeOrders, QueueOrders, OrderHandler(gigs)},
		{ExchangeReviews, QueueReviews, ReviewHandler(gigs)},
		{ExchangeUsers, QueueUsers, UserHandler(gigs)},
	}

	for _, sub := range subscriptions {
		err := conn.Consume(queue.ConsumerConfig{
			Exchange:   sub.exchange,
			Queue:      sub.queue,
			MaxRetries: MaxRetries,
		}, sub.handler)
		if err != nil {
			return err
		}
	}
	return nil
}

// OrderHandler applies order lifecycle facts to the active order counter.
// STARTED increments; APPROVED and CANCELED decrement. The deltas commute,
// so out-of-order delivery converges on the same counter.
func OrderHandler(gigs GigMutator) queue.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var message OrderMessage
		if err := json.Unmarshal(body, &message); err != nil {
			log.Errorf("[OrderConsumer] Discarding unparsable message: %v", err)
			return nil
		}

		switch message.Type {
		case TypeOrderStarted:
			return gigs.AdjustActiveOrderCount(ctx, message.GigID, 1)
		case TypeOrderApproved, TypeOrderCanceled:
			return gigs.AdjustActiveOrderCount(ctx, message.GigID, -1)
		default:
			log.Warnf("[OrderConsumer] Unhandled event type: %s", message.Type)
			return nil
		}
	}
}

// ReviewHandler folds buyer reviews into the rating aggregates.
func ReviewHandler(gigs GigMutator) queue.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var message ReviewMessage
		if err := json.Unmarshal(body, &message); err != nil {
			log.Errorf("[ReviewConsumer] Discarding unparsable message: %v", err)
			return nil
		}

		if message.Type != TypeBuyerReviewed {
			log.Warnf("[ReviewConsumer] Unhandled event type: %s", message.Type)
			return nil
		}
		return gigs.ApplyRating(ctx, message.GigID, message.Rating)
	}
}

// UserHandler propagates seller profile changes onto their gigs.
func UserHandler(gigs GigMutator) queue.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		var message SellerMessage
		if err := json.Unmarshal(body, &message); err != nil {
			log.Errorf("[UserConsumer] Discarding unparsable message: %v", err)
			return nil
		}

		if message.Type != TypeProfilePictureUpdated || message.SellerID == "" {
			log.Warnf("[UserConsumer] Unhandled event type: %s", message.Type)
			return nil
		}
		return gigs.UpdateProfilePicture(ctx, message.SellerID, message.ProfilePicture)
	}
}
