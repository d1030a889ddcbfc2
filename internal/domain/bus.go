package domain

// EventBus routes inbound chat events from gateway adapters to the parser
// engine. Delivery is once per event; the bus never retries.
type EventBus interface {
	Publish(ev InboundEvent)
	Subscribe() <-chan InboundEvent
	Close()
}
