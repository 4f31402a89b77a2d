package repository

// Models lists every gorm model for schema migration.
func Models() []any {
	return []any{
		&companyModel{},
		&slotModel{},
		&bookingModel{},
		&paymentModel{},
		&extraChargeModel{},
		&sequenceCounterModel{},
		&notificationModel{},
	}
}
