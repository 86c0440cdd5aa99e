package handlers

// HandlerBundle groups all endpoint handlers for route registration.
type HandlerBundle struct {
	Wallet       *WalletHandler
	Subscription *SubscriptionHandler
	Trip         *TripHandler
	Settlement   *SettlementHandler
	Billing      *BillingHandler
	Blackout     *BlackoutHandler
	Route        *RouteHandler
}
