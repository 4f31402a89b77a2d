package domain

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotifBookingCreated   NotificationType = "booking_created"
	NotifBookingAccepted  NotificationType = "booking_accepted"
	NotifBookingRejected  NotificationType = "booking_rejected"
	NotifBookingCancelled NotificationType = "booking_cancelled"
	NotifBookingDelivered NotificationType = "booking_delivered"
	NotifExtraCharge      NotificationType = "extra_charge_requested"
)

// Notification is the persisted copy of a user-facing event. Delivery over
// other channels (mq, websocket) is fire-and-forget on top of this row.
type Notification struct {
	ID     int64            `json:"id"`
	UserID int64            `json:"user_id"`
	Type   NotificationType `json:"type"`
	Title  string           `json:"title"`
	Body   string           `json:"body,omitempty"`
	Data   datatypes.JSON   `json:"data,omitempty"`

	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
