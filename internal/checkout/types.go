package checkout

type ItemInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type PlaceOrderInput struct {
	UserID         string
	Items          []ItemInput
	AddressID      string
	PaymentMethod  string
	IdempotencyKey string
}

type PlaceOrderResult struct {
	OrderID       string
	TotalCents    int64
	PaymentStatus string
	Lines         []Line
	Idempotent    bool
}

// Line is one priced order line, the unit price snapshotted at order time.
type Line struct {
	ProductID  string
	Qty        int
	PriceCents int64
}

type OrderRecord struct {
	ID             string
	UserID         string
	AddressID      string
	IdempotencyKey string
	Status         string
	TotalCents     int64
}

type PaymentRecord struct {
	ID             string
	OrderID        string
	AmountCents    int64
	Method         string
	Status         string
	TransactionRef string
}
