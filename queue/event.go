// Package queue publishes reservation lifecycle events to RabbitMQ.
package queue

const (
	EventBooked      = "reservation.booked"
	EventRescheduled = "reservation.rescheduled"
	EventCancelled   = "reservation.cancelled"
)

// ReservationEvent is the JSON payload put on the reservation events queue.
type ReservationEvent struct {
	Type          string `json:"type"`
	ReservationID uint   `json:"reservation_id"`
	VillainID     uint   `json:"villain_id"`
	LairID        uint   `json:"lair_id"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	TotalCost     string `json:"total_cost,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
