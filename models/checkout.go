package models

// CheckoutSession is the reference to a processor-hosted payment page.
// It is never persisted beyond the redirect URL stored on the order.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
