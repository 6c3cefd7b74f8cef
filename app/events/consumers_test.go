package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigforge/gig-service/internal/pkg/queue"
)

type mutatorCall struct {
	Method string
	GigID  string
	Delta  int64
	Rating int
	Seller string
	URL    string
}

type recordingMutator struct {
	calls []mutatorCall
	err   error
}

func (m *recordingMutator) AdjustActiveOrderCount(ctx context.Context, gigID string, delta int64) error {
	m.calls = append(m.calls, mutatorCall{Method: "adjust", GigID: gigID, Delta: delta})
	return m.err
}

func (m *recordingMutator) ApplyRating(ctx context.Context, gigID string, rating int) error {
	m.calls = append(m.calls, mutatorCall{Method: "rate", GigID: gigID, Rating: rating})
	return m.err
}

func (m *recordingMutator) UpdateProfilePicture(ctx context.Context, sellerID, profilePicture string) error {
	m.calls = append(m.calls, mutatorCall{Method: "picture", Seller: sellerID, URL: profilePicture})
	return m.err
}

type recordingSubscriber struct {
	configs []queue.ConsumerConfig
	err     error
}

func (s *recordingSubscriber) Consume(cfg queue.ConsumerConfig, handler queue.HandlerFunc) error {
	s.configs = append(s.configs, cfg)
	return s.err
}

func TestStartConsumers(t *testing.T) {
	sub := &recordingSubscriber{}
	require.NoError(t, StartConsumers(sub, &recordingMutator{}))

	require.Len(t, sub.configs, 3)
	assert.Equal(t, ExchangeOrders, sub.configs[0].Exchange)
	assert.Equal(t, QueueOrders, sub.configs[0].Queue)
	assert.Equal(t, ExchangeReviews, sub.configs[1].Exchange)
	assert.Equal(t, ExchangeUsers, sub.configs[2].Exchange)
	for _, cfg := range sub.configs {
		assert.Equal(t, MaxRetries, cfg.MaxRetries)
	}
}

func TestStartConsumers_SubscribeFailure(t *testing.T) {
	sub := &recordingSubscriber{err: errors.New("channel closed")}
	assert.Error(t, StartConsumers(sub, &recordingMutator{}))
}

func TestOrderHandler(t *testing.T) {
	mutator := &recordingMutator{}
	handler := OrderHandler(mutator)

	require.NoError(t, handler(context.Background(), []byte(`{"type":"ORDER_STARTED","gigId":"gig-1"}`)))
	require.NoError(t, handler(context.Background(), []byte(`{"type":"ORDER_APPROVED","gigId":"gig-1"}`)))
	require.NoError(t, handler(context.Background(), []byte(`{"type":"ORDER_CANCELED","gigId":"gig-2"}`)))

	require.Len(t, mutator.calls, 3)
	assert.Equal(t, mutatorCall{Method: "adjust", GigID: "gig-1", Delta: 1}, mutator.calls[0])
	assert.Equal(t, mutatorCall{Method: "adjust", GigID: "gig-1", Delta: -1}, mutator.calls[1])
	assert.Equal(t, mutatorCall{Method: "adjust", GigID: "gig-2", Delta: -1}, mutator.calls[2])
}

func TestOrderHandler_IgnoresUnknownAndUnparsable(t *testing.T) {
	mutator := &recordingMutator{}
	handler := OrderHandler(mutator)

	// neither may trigger a retry loop
	require.NoError(t, handler(context.Background(), []byte(`{"type":"ORDER_SHIPPED","gigId":"gig-1"}`)))
	require.NoError(t, handler(context.Background(), []byte(`not json`)))

	assert.Empty(t, mutator.calls)
}

func TestOrderHandler_PropagatesMutatorError(t *testing.T) {
	mutator := &recordingMutator{err: errors.New("db down")}
	handler := OrderHandler(mutator)

	assert.Error(t, handler(context.Background(), []byte(`{"type":"ORDER_STARTED","gigId":"gig-1"}`)))
}

func TestReviewHandler(t *testing.T) {
	mutator := &recordingMutator{}
	handler := ReviewHandler(mutator)

	require.NoError(t, handler(context.Background(), []byte(`{"type":"BUYER_REVIEWED","gigId":"gig-1","rating":5}`)))

	require.Len(t, mutator.calls, 1)
	assert.Equal(t, mutatorCall{Method: "rate", GigID: "gig-1", Rating: 5}, mutator.calls[0])
}

func TestReviewHandler_IgnoresOtherTypes(t *testing.T) {
	mutator := &recordingMutator{}
	handler := ReviewHandler(mutator)

	require.NoError(t, handler(context.Background(), []byte(`{"type":"SELLER_REVIEWED","gigId":"gig-1","rating":5}`)))
	assert.Empty(t, mutator.calls)
}

func TestUserHandler(t *testing.T) {
	mutator := &recordingMutator{}
	handler := UserHandler(mutator)

	body := []byte(`{"type":"PROFILE_PICTURE_UPDATED","sellerId":"seller-1","profilePicture":"https://cdn.example.com/p.png"}`)
	require.NoError(t, handler(context.Background(), body))

	require.Len(t, mutator.calls, 1)
	assert.Equal(t, mutatorCall{Method: "picture", Seller: "seller-1", URL: "https://cdn.example.com/p.png"}, mutator.calls[0])
}

func TestUserHandler_RequiresSellerID(t *testing.T) {
	mutator := &recordingMutator{}
	handler := UserHandler(mutator)

	require.NoError(t, handler(context.Background(), []byte(`{"type":"PROFILE_PICTURE_UPDATED","profilePicture":"p.png"}`)))
	assert.Empty(t, mutator.calls)
}
