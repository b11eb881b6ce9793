package models

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// NormalizeStatus maps the customer-facing "confirmed" synonym onto
// delivered; every other value passes through.
func NormalizeStatus(s string) OrderStatus {
	if s == "confirmed" {
		return StatusDelivered
	}
	return OrderStatus(s)
}

// Terminal reports whether no further transition is permitted from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// OrderItem is the snapshot of a cart item embedded in an order. Later cart
// changes never affect it.
type OrderItem struct {
	Name        string `json:"name" mapstructure:"name"`
	Price       int64  `json:"price" mapstructure:"price"`
	Description string `json:"description" mapstructure:"description"`
	Position    int    `json:"position" mapstructure:"position"`
	OrderedBy   string `json:"orderedBy" mapstructure:"orderedBy"`
}

// Order is one persisted purchase record for a single line item. Orders are
// created in a batch by order placement, mutated only by a status
// transition, and never deleted.
type Order struct {
	ID                  string      `json:"id,omitempty" mapstructure:"-"`
	DocPath             string      `json:"documentPath,omitempty" mapstructure:"-"`
	OrderNumber         string      `json:"orderNumber" mapstructure:"orderNumber"`
	Customer            string      `json:"customer" mapstructure:"customer"`
	CustomerDisplayName string      `json:"customerDisplayName" mapstructure:"customerDisplayName"`
	Items               []OrderItem `json:"items" mapstructure:"items"`
	ItemCount           int         `json:"itemCount" mapstructure:"itemCount"`
	Total               int64       `json:"total" mapstructure:"total"`
	Status              OrderStatus `json:"status" mapstructure:"status"`
	Timestamp           int64       `json:"timestamp" mapstructure:"timestamp"`
	CreatedAt           string      `json:"createdAt" mapstructure:"createdAt"`
	OrderedDate         string      `json:"orderedDate" mapstructure:"orderedDate"`
	OrderedTime         string      `json:"orderedTime" mapstructure:"orderedTime"`
	Source              string      `json:"source" mapstructure:"source"`
	UpdatedAt           string      `json:"updatedAt,omitempty" mapstructure:"updatedAt"`
	DeliveredAt         string      `json:"deliveredAt,omitempty" mapstructure:"deliveredAt"`
	CancelledAt         string      `json:"cancelledAt,omitempty" mapstructure:"cancelledAt"`
}

// OrderNumber synthesizes a batch-unique order number from the placement
// timestamp base and the item's position in the batch.
func OrderNumber(base int64, index int) string {
	return fmt.Sprintf("ORD-%d-%d", base, index)
}

// NewOrder snapshots one cart item into a pending order. base is the shared
// placement timestamp in milliseconds; index is the item's position, which
// keeps numbers distinct within a same-millisecond batch.
func NewOrder(identity *Identity, item CartItem, base int64, index int) Order {
	placed := time.UnixMilli(base + int64(index))
	return Order{
		OrderNumber:         OrderNumber(base, index),
		Customer:            identity.ID,
		CustomerDisplayName: identity.DisplayName,
		Items: []OrderItem{{
			Name:        item.Name,
			Price:       item.Price,
			Description: item.Description,
			Position:    1,
			OrderedBy:   identity.ID,
		}},
		ItemCount:   1,
		Total:       item.Price,
		Status:      StatusPending,
		Timestamp:   base + int64(index),
		CreatedAt:   placed.UTC().Format(time.RFC3339),
		OrderedDate: placed.Format("2006-01-02"),
		OrderedTime: placed.Format("15:04:05"),
		Source:      "web",
	}
}
