package events

// Exchanges and queues this service talks to. Order, review and user facts
// are produced elsewhere; the gig exchange is ours.
const (
	ExchangeGigs    = "gig-events"
	ExchangeOrders  = "order-events"
	ExchangeReviews = "review-events"
	ExchangeUsers   = "user-events"

	QueueOrders  = "gig.orders"
	QueueReviews = "gig.reviews"
	QueueUsers   = "gig.users"

	RoutingKeyGigCreated = "gig.created"
	RoutingKeyGigDeleted = "gig.deleted"

	// MaxRetries bounds broker redelivery per message before a terminal
	// failure is logged and the message dropped.
	MaxRetries = 5
)

// Event kinds. Each topic carries a closed set of kinds this service
// handles; anything else is logged and discarded, since shared topics may
// carry event kinds outside our interest.
const (
	TypeGigCreated            = "GIG_CREATED"
	TypeGigDeleted            = "GIG_DELETED"
	TypeOrderStarted          = "ORDER_STARTED"
	TypeOrderApproved         = "ORDER_APPROVED"
	TypeOrderCanceled         = "ORDER_CANCELED"
	TypeBuyerReviewed         = "BUYER_REVIEWED"
	TypeProfilePictureUpdated = "PROFILE_PICTURE_UPDATED"
)

// GigMessage announces a gig lifecycle fact to seller-aggregate consumers.
type GigMessage struct {
	Type     string `json:"type"`
	SellerID string `json:"sellerId"`
	GigCount int    `json:"gigCount"`
}

// OrderMessage is an order lifecycle fact affecting a gig's active order
// counter.
type OrderMessage struct {
	Type  string `json:"type"`
	GigID string `json:"gigId"`
}

// ReviewMessage is a review fact carrying the rating for a gig.
type ReviewMessage struct {
	Type     string `json:"type"`
	GigID    string `json:"gigId"`
	TargetID string `json:"targetId"` // seller receiving the review
	Rating   int    `json:"rating"`
}

// SellerMessage is a profile change fact for a seller.
type SellerMessage struct {
	Type           string `json:"type"`
	SellerID       string `json:"sellerId"`
	ProfilePicture string `json:"profilePicture"`
}
