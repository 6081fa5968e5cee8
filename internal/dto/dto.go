// dto.go
package dto

// OrderChangeRequest: cancelación o devolución. Sin productId afecta toda la orden.
type OrderChangeRequest struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

type WishlistItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// OrderSummary es la fila del listado admin.
type OrderSummary struct {
	OrderID       string `json:"orderId"`
	UserID        string `json:"userId"`
	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod"`
	TotalAmount   string `json:"totalAmount"`
	IsRefunded    bool   `json:"isRefunded"`
}
