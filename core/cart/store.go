package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wilde-art/framecart/database"
	"github.com/wilde-art/framecart/validate"
)

// Engine runs cart operations through the shared executor. Every statement
// commits on its own; a concurrent add of the same configuration can lose the
// read-then-write race, in which case the UNIQUE constraint on orderLines
// reports the conflict instead of duplicating the line.
//
// Executor failures are returned unwrapped so the driver message reaches the
// client as is.
type Engine struct {
	exec *database.Executor
}

func NewEngine(exec *database.Executor) *Engine {
	return &Engine{exec: exec}
}

// Bind stamps the user on orders that were started anonymously in the same
// session.
func (e *Engine) Bind(ctx context.Context, o Owner) error {
	if o.SessionID == "" || o.UserID == 0 {
		return nil
	}

	const q = `
	UPDATE orders SET userId = :userId
	WHERE userId IS NULL AND sessionId = :sessionId`

	if res := e.exec.Execute(ctx, q, o.params()); res.Failed() {
		return res.Err
	}
	return nil
}

// Price returns the base price of a frame specification and the multiplier of
// a material. The pair must resolve to exactly one pricing row.
func (e *Engine) Price(ctx context.Context, frameSpecID, frameMaterialID int64) (base, multiplier decimal.Decimal, err error) {
	const q = `
	SELECT fp.basePrice AS basePrice, fm.priceMultiplier AS priceMultiplier
	FROM framePricing fp
	JOIN frameMaterials fm ON fm.id = :frameMaterialId
	WHERE fp.frameSpecId = :frameSpecId`

	res := e.exec.Execute(ctx, q, map[string]any{
		"frameSpecId":     frameSpecID,
		"frameMaterialId": frameMaterialID,
	})
	if res.Failed() {
		return base, multiplier, res.Err
	}
	if len(res.Rows) != 1 {
		return base, multiplier, ErrInvalidCombination
	}

	row := res.First()
	if base, err = toDecimal(row["basePrice"]); err != nil {
		return base, multiplier, fmt.Errorf("basePrice: %w", err)
	}
	if multiplier, err = toDecimal(row["priceMultiplier"]); err != nil {
		return base, multiplier, fmt.Errorf("priceMultiplier: %w", err)
	}
	return base, multiplier, nil
}

// OpenOrder finds the caller's cart. When both a user-owned and a session-only
// order match, the user-owned one wins.
func (e *Engine) OpenOrder(ctx context.Context, o Owner) (Order, bool, error) {
	const q = `
	SELECT id, sessionId, userId, status
	FROM orders
	WHERE status = :status AND (sessionId = :sessionId OR userId = :userId)
	ORDER BY userId DESC, id DESC
	LIMIT 1`

	p := o.params()
	p["status"] = string(Open)

	res := e.exec.Execute(ctx, q, p)
	if res.Failed() {
		return Order{}, false, res.Err
	}

	row := res.First()
	if row == nil {
		return Order{}, false, nil
	}

	ord := Order{Status: Open}
	ord.ID, _ = toInt(row["id"])
	ord.UserID, _ = toInt(row["userId"])
	ord.SessionID, _ = row["sessionId"].(string)
	return ord, true, nil
}

func (e *Engine) CreateOrder(ctx context.Context, o Owner) (Order, error) {
	const q = `
	INSERT INTO orders (sessionId, userId, status)
	VALUES (:sessionId, :userId, :status)`

	p := o.params()
	p["status"] = string(Open)

	res := e.exec.Execute(ctx, q, p)
	if res.Failed() {
		return Order{}, res.Err
	}

	return Order{
		ID:        res.Write.LastInsertRowID,
		SessionID: o.SessionID,
		UserID:    o.UserID,
		Status:    Open,
	}, nil
}

func (e *Engine) openOrCreate(ctx context.Context, o Owner) (Order, error) {
	ord, ok, err := e.OpenOrder(ctx, o)
	if err != nil {
		return Order{}, err
	}
	if ok {
		return ord, nil
	}
	return e.CreateOrder(ctx, o)
}

// Add prices the configuration and merges it into the caller's cart.
func (e *Engine) Add(ctx context.Context, o Owner, item AddItem) error {
	if err := validate.Check(item); err != nil {
		if item.AnimalID == 0 || item.FrameSpecID == 0 || item.FrameMaterialID == 0 {
			return ErrMissingConfiguration
		}
		return err
	}

	if err := e.Bind(ctx, o); err != nil {
		return err
	}

	base, mult, err := e.Price(ctx, int64(item.FrameSpecID), int64(item.FrameMaterialID))
	if err != nil {
		return err
	}
	unit := UnitPrice(base, mult, item.withMat())

	ord, err := e.openOrCreate(ctx, o)
	if err != nil {
		return err
	}

	const find = `
	SELECT id, quantity FROM orderLines
	WHERE orderId = :orderId
		AND animalId = :animalId
		AND frameSpecId = :frameSpecId
		AND frameMaterialId = :frameMaterialId
		AND withMat = :withMat`

	cfg := map[string]any{
		"orderId":         ord.ID,
		"animalId":        int64(item.AnimalID),
		"frameSpecId":     int64(item.FrameSpecID),
		"frameMaterialId": int64(item.FrameMaterialID),
		"withMat":         item.withMat(),
	}

	res := e.exec.Execute(ctx, find, cfg)
	if res.Failed() {
		return res.Err
	}

	qty := item.quantity()

	if row := res.First(); row != nil {
		id, _ := toInt(row["id"])
		have, _ := toInt(row["quantity"])
		qty += have

		const merge = `
		UPDATE orderLines
		SET quantity = :quantity, unitPrice = :unitPrice, totalPrice = :totalPrice
		WHERE id = :id`

		res = e.exec.Execute(ctx, merge, map[string]any{
			"id":         id,
			"quantity":   qty,
			"unitPrice":  unit.InexactFloat64(),
			"totalPrice": LineTotal(unit, qty).InexactFloat64(),
		})
		if res.Failed() {
			return res.Err
		}
		return nil
	}

	const insert = `
	INSERT INTO orderLines (orderId, animalId, frameSpecId, frameMaterialId, withMat, quantity, unitPrice, totalPrice)
	VALUES (:orderId, :animalId, :frameSpecId, :frameMaterialId, :withMat, :quantity, :unitPrice, :totalPrice)`

	cfg["quantity"] = qty
	cfg["unitPrice"] = unit.InexactFloat64()
	cfg["totalPrice"] = LineTotal(unit, qty).InexactFloat64()

	if res := e.exec.Execute(ctx, insert, cfg); res.Failed() {
		return res.Err
	}
	return nil
}

// UpdateQuantity sets the quantity of one of the caller's open lines. Zero or
// less removes the line. It returns the id of the order the line belongs to.
func (e *Engine) UpdateQuantity(ctx context.Context, o Owner, up UpdateItem) (int64, error) {
	if err := validate.Check(up); err != nil {
		return 0, ErrMissingUpdate
	}

	if err := e.Bind(ctx, o); err != nil {
		return 0, err
	}

	lineID := int64(*up.OrderLineID)

	const q = `
	SELECT ol.id AS id, ol.orderId AS orderId, ol.unitPrice AS unitPrice,
		o.sessionId AS sessionId, o.userId AS userId
	FROM orderLines ol
	JOIN orders o ON o.id = ol.orderId
	WHERE ol.id = :orderLineId AND o.status = :status`

	res := e.exec.Execute(ctx, q, map[string]any{
		"orderLineId": lineID,
		"status":      string(Open),
	})
	if res.Failed() {
		return 0, res.Err
	}

	row := res.First()
	if row == nil || !o.owns(row["sessionId"], row["userId"]) {
		return 0, ErrLineNotFound
	}
	orderID, _ := toInt(row["orderId"])

	if *up.Quantity <= 0 {
		res = e.exec.Execute(ctx, "DELETE FROM orderLines WHERE id = :id", map[string]any{"id": lineID})
		if res.Failed() {
			return 0, res.Err
		}
		return orderID, nil
	}

	unit, err := toDecimal(row["unitPrice"])
	if err != nil {
		return 0, fmt.Errorf("unitPrice: %w", err)
	}
	qty := int64(*up.Quantity)

	const update = `
	UPDATE orderLines SET quantity = :quantity, totalPrice = :totalPrice
	WHERE id = :id`

	res = e.exec.Execute(ctx, update, map[string]any{
		"id":         lineID,
		"quantity":   qty,
		"totalPrice": LineTotal(unit, qty).InexactFloat64(),
	})
	if res.Failed() {
		return 0, res.Err
	}
	return orderID, nil
}

// Remove deletes a line only when it sits in one of the caller's open orders.
func (e *Engine) Remove(ctx context.Context, o Owner, orderLineID any) error {
	if err := e.Bind(ctx, o); err != nil {
		return err
	}

	const q = `
	DELETE FROM orderLines
	WHERE id = :orderLineId AND orderId IN (
		SELECT id FROM orders
		WHERE status = :status AND (sessionId = :sessionId OR userId = :userId)
	)`

	p := o.params()
	p["orderLineId"] = orderLineID
	p["status"] = string(Open)

	res := e.exec.Execute(ctx, q, p)
	if res.Failed() {
		return res.Err
	}
	if res.Write.Changes == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Clear empties the caller's cart. The order itself is kept.
func (e *Engine) Clear(ctx context.Context, o Owner) error {
	if err := e.Bind(ctx, o); err != nil {
		return err
	}

	ord, ok, err := e.OpenOrder(ctx, o)
	if err != nil || !ok {
		return err
	}

	res := e.exec.Execute(ctx, "DELETE FROM orderLines WHERE orderId = :orderId", map[string]any{"orderId": ord.ID})
	if res.Failed() {
		return res.Err
	}
	return nil
}
