package payment

import "encoding/json"

type CreateCheckoutRequest struct {
	BookingID int64  `json:"booking_id" binding:"required"`
	SourceID  string `json:"source_id" binding:"required"`
	ReturnURI string `json:"return_uri"`
}

// webhookEvent is the minimal shape of a processor webhook delivery. Only the
// event id is trusted; everything else is re-read at the processor.
type webhookEvent struct {
	ID   string          `json:"id"`
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}
