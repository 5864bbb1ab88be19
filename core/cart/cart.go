// Package cart implements the framed-print shopping cart: pricing, merging of
// identical configurations, ownership-scoped mutation and the combined
// line-plus-total view.
package cart

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/wilde-art/framecart/core/claims"
)

// Messages clients see verbatim.
var (
	ErrMissingConfiguration = errors.New("animalId, frameSpecId, and frameMaterialId are required!")
	ErrInvalidCombination   = errors.New("Invalid frame specification or material combination!")
	ErrMissingUpdate        = errors.New("orderLineId and quantity are required!")
	ErrLineNotFound         = errors.New("Order line not found or access denied!")
	ErrItemNotFound         = errors.New("Item not found or access denied!")
)

const (
	StatusRemoved = "Item removed from cart."
	StatusEmpty   = "The cart is empty."
)

type OrderStatus string

const (
	Open OrderStatus = "open"
	Paid OrderStatus = "paid"
)

// Owner is whoever a cart belongs to: the browser session, the signed-in user,
// or both once they have been bound.
type Owner struct {
	SessionID string
	UserID    int64
}

func OwnerOf(c claims.Claims) Owner {
	return Owner{SessionID: c.SessionID, UserID: c.UserID}
}

func (o Owner) params() map[string]any {
	p := map[string]any{
		"sessionId": nil,
		"userId":    nil,
	}
	if o.SessionID != "" {
		p["sessionId"] = o.SessionID
	}
	if o.UserID != 0 {
		p["userId"] = o.UserID
	}
	return p
}

// owns reports whether o may touch an order carrying the given owner columns.
func (o Owner) owns(sessionID any, userID any) bool {
	if o.SessionID != "" {
		if s, ok := sessionID.(string); ok && s == o.SessionID {
			return true
		}
	}
	if o.UserID != 0 {
		if u, ok := userID.(int64); ok && u == o.UserID {
			return true
		}
	}
	return false
}

type Order struct {
	ID        int64
	SessionID string
	UserID    int64
	Status    OrderStatus
}

type Line struct {
	ID        int64
	OrderID   int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

type AddItem struct {
	AnimalID        ID    `json:"animalId" validate:"required"`
	FrameSpecID     ID    `json:"frameSpecId" validate:"required"`
	FrameMaterialID ID    `json:"frameMaterialId" validate:"required"`
	WithMat         *bool `json:"withMat"`
	Quantity        *int  `json:"quantity" validate:"omitempty,min=0"`
}

func (a AddItem) withMat() bool {
	return a.WithMat == nil || *a.WithMat
}

func (a AddItem) quantity() int64 {
	if a.Quantity == nil || *a.Quantity == 0 {
		return 1
	}
	return int64(*a.Quantity)
}

// ID is a row id in a request body. Forms post ids as strings, so the
// decimal string form is accepted alongside plain numbers.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.Number:
		if r.Num != float64(int64(r.Num)) {
			return fmt.Errorf("id %s is not an integer", r.Raw)
		}
		*id = ID(r.Int())
		return nil
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(r.Str), 10, 64)
		if err != nil {
			return fmt.Errorf("id %q is not an integer", r.Str)
		}
		*id = ID(n)
		return nil
	}
	return fmt.Errorf("id must be a number, got %s", r.Raw)
}

type UpdateItem struct {
	OrderLineID *ID  `json:"orderLineId" validate:"required,gt=0"`
	Quantity    *int `json:"quantity" validate:"required"`
}

type Status struct {
	Status string `json:"status"`
}

var matFactor = decimal.RequireFromString("1.2")

// UnitPrice rounds half away from zero to two places.
func UnitPrice(base, multiplier decimal.Decimal, withMat bool) decimal.Decimal {
	p := base.Mul(multiplier)
	if withMat {
		p = p.Mul(matFactor)
	}
	return p.Round(2)
}

func LineTotal(unit decimal.Decimal, quantity int64) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(quantity)).Round(2)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		return decimal.NewFromString(x)
	}
	return decimal.Decimal{}, fmt.Errorf("not a number: %v", v)
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		return int64(x), true
	}
	return 0, false
}
