package tilda

import (
	"strconv"

	"gorm.io/datatypes"

	"github.com/nylinary/openlines-tg/internal/types"
)

// Normalize maps one raw Tilda product record into the canonical Product.
// Pure and idempotent. Every scalar is coerced to a display string (the API
// returns ints where strings are expected); malformed nested entries are
// dropped; gallery/image fields are discarded because the consuming chat
// channel is text-only (photos remain reachable via the product page URL).
func Normalize(raw map[string]any, categorySlug string) types.Product {
	var editions []types.Edition
	if rawEditions, ok := raw["editions"].([]any); ok {
		for _, e := range rawEditions {
			ed, ok := e.(map[string]any)
			if !ok {
				continue
			}
			editions = append(editions, types.Edition{
				UID:      AsString(ed["uid"]),
				Price:    AsString(ed["price"]),
				PriceOld: AsString(ed["priceold"]),
				SKU:      AsString(ed["sku"]),
				Text:     AsString(ed["text"]),
				Quantity: AsString(ed["quantity"]),
			})
		}
	}

	var characteristics []types.Characteristic
	if rawChars, ok := raw["characteristics"].([]any); ok {
		for _, c := range rawChars {
			ch, ok := c.(map[string]any)
			if !ok {
				continue
			}
			characteristics = append(characteristics, types.Characteristic{
				Title: AsString(ch["title"]),
				Value: AsString(ch["value"]),
			})
		}
	}

	return types.Product{
		UID:             AsString(raw["uid"]),
		Title:           AsString(raw["title"]),
		SKU:             AsString(raw["sku"]),
		Text:            AsString(raw["text"]),
		Descr:           AsString(raw["descr"]),
		Price:           AsString(raw["price"]),
		PriceOld:        AsString(raw["priceold"]),
		Quantity:        AsString(raw["quantity"]),
		Portion:         AsString(raw["portion"]),
		Unit:            AsString(raw["unit"]),
		Mark:            AsString(raw["mark"]),
		URL:             AsString(raw["url"]),
		Editions:        datatypes.NewJSONSlice(editions),
		Characteristics: datatypes.NewJSONSlice(characteristics),
		Category:        categorySlug,
	}
}

// AsString coerces an upstream JSON value to a display string. nil becomes
// ""; numbers render without a forced decimal point ("123", not "123.000").
func AsString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
