package cart

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/wilde-art/framecart/core/resource"
	"github.com/wilde-art/framecart/database"
)

const (
	itemTypeItem  = "ITEM"
	itemTypeTotal = "TOTAL"
)

// View is the cart as clients see it: item rows first, then one TOTAL row.
// An empty view encodes as the "cart is empty" status.
type View struct {
	Rows []database.Row
}

func (v View) Empty() bool { return len(v.Rows) == 0 }

func (v View) MarshalJSON() ([]byte, error) {
	if v.Empty() {
		return json.Marshal(Status{Status: StatusEmpty})
	}
	return json.Marshal(v.Rows)
}

// Total returns the TOTAL row, or nil for an empty view.
func (v View) Total() database.Row {
	if v.Empty() {
		return nil
	}
	return v.Rows[len(v.Rows)-1]
}

type viewColumn struct {
	alias string
	item  string // expression in the item branch
	total string // expression in the total branch, NULL when empty
}

func viewColumns(lang string) []viewColumn {
	loc := func(expr string) string { return resource.Localized(expr, lang) }

	return []viewColumn{
		{alias: "orderLineId", item: "ol.id"},
		{alias: "orderId", item: "ol.orderId", total: "t.id"},
		{alias: "quantity", item: "ol.quantity", total: "t.totalQuantity"},
		{alias: "unitPrice", item: "ol.unitPrice"},
		{alias: "totalPrice", item: "ol.totalPrice", total: "t.totalAmount"},
		{alias: "withMat", item: "ol.withMat"},
		{alias: "created", item: "ol.created"},
		{alias: "animalId", item: "ol.animalId"},
		{alias: "animalName", item: loc("a.name")},
		{alias: "animalSlug", item: "a.slug"},
		{alias: "imageAspectRatio", item: "a.imageAspectRatio"},
		{alias: "category", item: loc("a.category")},
		{alias: "frameSpecId", item: "ol.frameSpecId"},
		{alias: "frameSpecName", item: loc("fs.name")},
		{alias: "frameWidthCm", item: "fs.frameWidthCm"},
		{alias: "frameHeightCm", item: "fs.frameHeightCm"},
		{alias: "imageAreaWidthCm", item: "fs.imageAreaWidthCm"},
		{alias: "imageAreaHeightCm", item: "fs.imageAreaHeightCm"},
		{alias: "matOpeningWidthCm", item: "fs.matOpeningWidthCm"},
		{alias: "matOpeningHeightCm", item: "fs.matOpeningHeightCm"},
		{alias: "frameMaterialId", item: "ol.frameMaterialId"},
		{alias: "materialName", item: loc("fm.name")},
		{alias: "material", item: loc("fm.material")},
		{alias: "color", item: loc("fm.color")},
		{alias: "style", item: loc("fm.style")},
		{alias: "priceMultiplier", item: "fm.priceMultiplier"},
		{alias: "cssBackground", item: "fm.cssBackground"},
		{alias: "basePrice", item: "fp.basePrice"},
		{alias: "itemType", item: "'" + itemTypeItem + "'", total: "t.itemType"},
	}
}

// viewQuery unions the order's lines, joined with the catalog in lang, with its
// row from orderTotals. Both branches are generated from one column list so
// their arity always matches.
func viewQuery(lang string) string {
	cols := viewColumns(lang)

	items := make([]string, len(cols))
	totals := make([]string, len(cols))
	for i, c := range cols {
		item, total := c.item, c.total
		if item == "" {
			item = "NULL"
		}
		if total == "" {
			total = "NULL"
		}
		items[i] = item + " AS " + c.alias
		totals[i] = total + " AS " + c.alias
	}

	return `
	SELECT * FROM (
		SELECT ` + strings.Join(items, ", ") + `
		FROM orderLines ol
		JOIN animals a ON a.id = ol.animalId
		JOIN frameSpecifications fs ON fs.id = ol.frameSpecId
		JOIN frameMaterials fm ON fm.id = ol.frameMaterialId
		LEFT JOIN framePricing fp ON fp.frameSpecId = ol.frameSpecId
		WHERE ol.orderId = :orderId
		UNION ALL
		SELECT ` + strings.Join(totals, ", ") + `
		FROM orderTotals t
		WHERE t.id = :orderId
	)
	ORDER BY CASE WHEN itemType = '` + itemTypeItem + `' THEN 0 ELSE 1 END, orderLineId`
}

// View renders the caller's open cart in lang.
func (e *Engine) View(ctx context.Context, o Owner, lang string) (View, error) {
	if err := e.Bind(ctx, o); err != nil {
		return View{}, err
	}

	ord, ok, err := e.OpenOrder(ctx, o)
	if err != nil || !ok {
		return View{}, err
	}

	return e.ViewOrder(ctx, ord.ID, lang)
}

// ViewOrder renders one order in lang. The TOTAL row keeps only its non-null
// columns.
func (e *Engine) ViewOrder(ctx context.Context, orderID int64, lang string) (View, error) {
	res := e.exec.Execute(ctx, viewQuery(lang), map[string]any{"orderId": orderID})
	if res.Failed() {
		return View{}, res.Err
	}

	for _, row := range res.Rows {
		if row["itemType"] != itemTypeTotal {
			continue
		}
		for k, v := range row {
			if v == nil {
				delete(row, k)
			}
		}
	}

	return View{Rows: res.Rows}, nil
}
