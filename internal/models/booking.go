package models

const StatusConfirmed = "confirmed"

type Booking struct {
	ID            int64   `json:"id"`
	EquipmentID   int64   `json:"equipment_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerEmail string  `json:"customer_email"`
	StartDate     Date    `json:"start_date"`
	EndDate       Date    `json:"end_date"`
	TotalPrice    float64 `json:"total_price"`
	Status        string  `json:"status"`
}

