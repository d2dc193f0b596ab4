package application

import (
	"betmate/domain/events"
	"betmate/domain/interfaces"
	"betmate/infrastructure"
)

// RegisterApplicationSubscriptions wires the notification fan-out onto the
// event bus
func RegisterApplicationSubscriptions(
	bus *events.Bus,
	uowFactory interfaces.UnitOfWorkFactory,
	pusher *infrastructure.PushPublisher,
) {
	handler := NewNotificationEventHandler(uowFactory, pusher)

	bus.Subscribe(events.EventTypeGroupJoinRequested, handler.HandleGroupJoinRequested)
	bus.Subscribe(events.EventTypeMembershipDecided, handler.HandleMembershipDecided)
	bus.Subscribe(events.EventTypeBetCreated, handler.HandleBetCreated)
	bus.Subscribe(events.EventTypeBetStateChange, handler.HandleBetStateChange)
	bus.Subscribe(events.EventTypeBetResolved, handler.HandleBetResolved)
	bus.Subscribe(events.EventTypeFulfillmentConfirmed, handler.HandleFulfillmentConfirmed)
	bus.Subscribe(events.EventTypeMessagePosted, handler.HandleMessagePosted)
	bus.Subscribe(events.EventTypeBalanceChange, handler.HandleBalanceChange)
}
