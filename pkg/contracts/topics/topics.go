package topics

const (
	// Wagers
	WagerPlaced = "wager_placed"

	// Pools
	PoolClosed  = "pool_closed"
	PoolSettled = "pool_settled"

	// DLQs
	WagerPlacedDLQ = "wager_placed_dlq"
)
