package domain

// TelegramUser is the identity supplied by the Mini App host bridge.
type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	PhotoURL  string `json:"photo_url"`
}

// StoreUser is a customer entry shown in the admin panel.
type StoreUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	TotalOrders int    `json:"total_orders"`
	Status      string `json:"status"` // active or blocked
}
