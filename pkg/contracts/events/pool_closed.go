package events

import "time"

// Evento emitido pelo pool-close-worker (ou pelo fechamento explícito)
// quando um pool deixa de aceitar apostas.
type PoolClosed struct {
	EventID string    `json:"event_id"`
	Reason  string    `json:"reason"` // "CUTOFF" | "EXPLICIT"
	Ts      time.Time `json:"ts"`
}
