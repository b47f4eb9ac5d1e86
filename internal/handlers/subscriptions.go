package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/graph"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

// SubscriptionHandler serves the subscribe toggle and both directions of the
// subscription graph.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Accounts      AccountStore
	Engine        *graph.Engine
}

// Toggle handles POST /api/v1/subscriptions/{channelId}. Subscribing to
// yourself is rejected.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	channelID := r.PathValue("channelId")
	if channelID == identity.ID {
		fail(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	if _, err := h.Accounts.FindByID(ctx, channelID); err != nil {
		failFromError(ctx, w, err, "load channel")
		return
	}

	added, err := h.Subscriptions.Toggle(ctx, models.Subscription{
		ID:           uuid.NewString(),
		SubscriberID: identity.ID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		failFromError(ctx, w, err, "toggle subscription")
		return
	}

	state := "unsubscribed"
	if added {
		state = "subscribed"
	}
	logging.FromContext(ctx).Info("subscription toggled", "channelId", channelID, "subscriberId", identity.ID, "state", state)
	respond(ctx, w, http.StatusOK, toggleResponse{State: state}, state)
}

// ListMine handles GET /api/v1/subscriptions: the channels the caller
// subscribes to.
func (h SubscriptionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		fail(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	channels, err := h.Engine.Subscriptions(ctx, identity.ID)
	if err != nil {
		failFromError(ctx, w, err, "list subscriptions")
		return
	}

	respond(ctx, w, http.StatusOK, channels, "subscribed channels")
}

// ListSubscribers handles GET /api/v1/channels/{id}/subscribers.
func (h SubscriptionHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID := r.PathValue("id")
	if _, err := h.Accounts.FindByID(ctx, channelID); err != nil {
		failFromError(ctx, w, err, "load channel")
		return
	}

	subscribers, err := h.Engine.Subscribers(ctx, channelID)
	if err != nil {
		failFromError(ctx, w, err, "list subscribers")
		return
	}

	respond(ctx, w, http.StatusOK, subscribers, "channel subscribers")
}
