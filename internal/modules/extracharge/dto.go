package extracharge

type CreateExtraChargeRequest struct {
	BookingID   int64   `json:"booking_id" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
}

type PayExtraChargeRequest struct {
	SourceID  string `json:"source_id" binding:"required"`
	ReturnURI string `json:"return_uri"`
}
