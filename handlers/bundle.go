package handlers

// HandlerBundle aggregates the HTTP handlers wired at startup so route
// registration takes a single argument.
type HandlerBundle struct {
	Booking      *BookingHandler
	Order        *OrderHandler
	Payment      *PaymentHandler
	Webhook      *WebhookHandler
	Availability *AvailabilityHandler
}
