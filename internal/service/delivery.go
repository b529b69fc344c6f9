package service

import (
	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/registry"
)

// Deliverer is the entry point stream transports use to attach to the broadcaster.
type Deliverer interface {
	Subscribe(identity model.Identity) *registry.Subscriber
	Unsubscribe(subscriberID uuid.UUID)
	Stats() model.HubStats
}

type DeliveryService struct {
	hub registry.Hubber
}

func NewDeliveryService(hub registry.Hubber) *DeliveryService {
	return &DeliveryService{hub: hub}
}

// Subscribe registers a queue for identity. The identity is captured once and
// used for every visibility decision of the session.
func (s *DeliveryService) Subscribe(identity model.Identity) *registry.Subscriber {
	return s.hub.Subscribe(identity)
}

// Unsubscribe is idempotent; the Hub closes the queue.
func (s *DeliveryService) Unsubscribe(subscriberID uuid.UUID) {
	s.hub.Unsubscribe(subscriberID)
}

func (s *DeliveryService) Stats() model.HubStats {
	return s.hub.Stats()
}
