package ingest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
	"github.com/shopspring/decimal"

	"github.com/tphakala/orderlens/internal/datastore/entities"
	"github.com/tphakala/orderlens/internal/errors"
)

// moneyExponent converts minor currency units to decimal currency.
const moneyExponent = -2

// Export is a parsed provider export document.
type Export struct {
	Orders []*ExportOrder
}

// ExportOrder is one order of an export.
type ExportOrder struct {
	ID          string
	StoreID     string
	Fulfillment string
	CreatedAt   time.Time
	Tip         decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	Items       []*ExportItem
}

// ExportItem is one line item of an export order.
type ExportItem struct {
	ID                  string
	ItemID              string
	Name                string
	Category            string
	Quantity            int
	UnitPrice           decimal.Decimal
	SpecialInstructions string
	Options             []ExportOption
}

// ExportOption is a modifier chosen on a line item.
type ExportOption struct {
	Name  string
	Price decimal.Decimal
}

// ParseExport reads an export document:
//
//	{"orders":[{"id","store_id","fulfillment","created_at","tip","tax","total",
//	  "items":[{"id","item_id","name","category","quantity","unit_price",
//	  "special_instructions","options":[{"name","price"}]}]}]}
//
// Money fields are integer minor units. created_at is RFC 3339 text or Unix
// seconds.
func ParseExport(r io.Reader) (*Export, error) {
	root, err := jason.NewObjectFromReader(r)
	if err != nil {
		return nil, parseError(err, "document")
	}

	orders, err := root.GetObjectArray("orders")
	if err != nil {
		return nil, parseError(err, "orders")
	}

	export := &Export{Orders: make([]*ExportOrder, 0, len(orders))}
	for i, obj := range orders {
		order, err := parseOrder(obj)
		if err != nil {
			return nil, parseError(fmt.Errorf("order %d: %w", i, err), "orders")
		}
		export.Orders = append(export.Orders, order)
	}
	return export, nil
}

func parseOrder(obj *jason.Object) (*ExportOrder, error) {
	id, err := requiredString(obj, "id")
	if err != nil {
		return nil, err
	}
	order := &ExportOrder{ID: id}

	if order.StoreID, err = requiredString(obj, "store_id"); err != nil {
		return nil, err
	}
	order.Fulfillment = normalizeFulfillment(optionalString(obj, "fulfillment"))
	if order.CreatedAt, err = timestamp(obj, "created_at"); err != nil {
		return nil, err
	}
	if order.Tip, err = money(obj, "tip", false); err != nil {
		return nil, err
	}
	if order.Tax, err = money(obj, "tax", false); err != nil {
		return nil, err
	}
	if order.Total, err = money(obj, "total", true); err != nil {
		return nil, err
	}

	items, err := obj.GetObjectArray("items")
	if err != nil && !isMissing(obj, "items") {
		return nil, fmt.Errorf("items: %w", err)
	}
	for j, itemObj := range items {
		item, err := parseItem(itemObj)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", j, err)
		}
		order.Items = append(order.Items, item)
	}
	return order, nil
}

func parseItem(obj *jason.Object) (*ExportItem, error) {
	id, err := requiredString(obj, "id")
	if err != nil {
		return nil, err
	}
	item := &ExportItem{
		ID:                  id,
		ItemID:              optionalString(obj, "item_id"),
		Name:                optionalString(obj, "name"),
		Category:            optionalString(obj, "category"),
		SpecialInstructions: optionalString(obj, "special_instructions"),
		Quantity:            1,
	}

	if !isMissing(obj, "quantity") {
		qty, err := obj.GetInt64("quantity")
		if err != nil {
			return nil, fmt.Errorf("quantity: %w", err)
		}
		if qty < 0 {
			return nil, fmt.Errorf("quantity: negative value %d", qty)
		}
		item.Quantity = int(qty)
	}
	if item.UnitPrice, err = money(obj, "unit_price", false); err != nil {
		return nil, err
	}

	options, err := obj.GetObjectArray("options")
	if err != nil && !isMissing(obj, "options") {
		return nil, fmt.Errorf("options: %w", err)
	}
	for k, optObj := range options {
		name, err := requiredString(optObj, "name")
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", k, err)
		}
		price, err := money(optObj, "price", false)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", k, err)
		}
		item.Options = append(item.Options, ExportOption{Name: name, Price: price})
	}
	return item, nil
}

func isMissing(obj *jason.Object, key string) bool {
	v, err := obj.GetValue(key)
	if err != nil {
		return true
	}
	return v.Null() == nil
}

func requiredString(obj *jason.Object, key string) (string, error) {
	s, err := obj.GetString(key)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%s: empty value", key)
	}
	return s, nil
}

func optionalString(obj *jason.Object, key string) string {
	s, err := obj.GetString(key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func money(obj *jason.Object, key string, required bool) (decimal.Decimal, error) {
	if isMissing(obj, key) {
		if required {
			return decimal.Zero, fmt.Errorf("%s: missing", key)
		}
		return decimal.Zero, nil
	}
	minor, err := obj.GetInt64(key)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return decimal.New(minor, moneyExponent), nil
}

func timestamp(obj *jason.Object, key string) (time.Time, error) {
	if s, err := obj.GetString(key); err == nil {
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", key, err)
		}
		return t.UTC(), nil
	}
	secs, err := obj.GetInt64(key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// normalizeFulfillment maps provider spellings onto the stored method names.
// Anything unrecognised is stored as unknown so it stays filterable.
func normalizeFulfillment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	switch s {
	case "delivery", "courier", "third_party_delivery", "dispatch":
		return entities.FulfillmentDelivery
	case "dinein", "eat_in", "dine_in", "for_here":
		return entities.FulfillmentDineIn
	case "takeout", "take_out", "take_away", "takeaway", "collection",
		"pickup", "pick_up", "curbside", "drive_thru", "drive_through":
		return entities.FulfillmentPickup
	default:
		return entities.FulfillmentUnknown
	}
}

func parseError(err error, field string) error {
	return errors.New(fmt.Errorf("parse export: %w", err)).
		Component("ingest").
		Category(errors.CategoryFileParsing).
		Context("field", field).
		Build()
}

// ToEntities converts an export order into store entities for provider.
func (o *ExportOrder) ToEntities(provider string) *entities.Order {
	order := &entities.Order{
		OrderID:           o.ID,
		StoreID:           o.StoreID,
		FulfillmentMethod: o.Fulfillment,
		CreatedAt:         o.CreatedAt,
		Tip:               o.Tip,
		Tax:               o.Tax,
		Total:             o.Total,
		Provider:          provider,
	}
	for _, it := range o.Items {
		line := entities.OrderLineItem{
			LineItemID:          it.ID,
			OrderID:             o.ID,
			ItemID:              it.ItemID,
			Name:                it.Name,
			Quantity:            it.Quantity,
			UnitPrice:           it.UnitPrice,
			SpecialInstructions: it.SpecialInstructions,
			Category:            it.Category,
		}
		for _, opt := range it.Options {
			line.Options = append(line.Options, entities.LineItemOption{
				LineItemID: it.ID,
				Name:       opt.Name,
				Price:      opt.Price,
			})
		}
		order.LineItems = append(order.LineItems, line)
	}
	return order
}
