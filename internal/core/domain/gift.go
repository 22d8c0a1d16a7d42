package domain

import "sort"

// Gift is a catalog entry with a fixed token price.
type Gift struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

var giftCatalog = map[string]int64{
	"Smile":      10,
	"Flower":     50,
	"Star":       100,
	"Heart":      200,
	"Crown":      500,
	"Dragon":     1000,
	"Jet":        3000,
	"FortuneBox": 5000,
}

// LookupGift returns the catalog entry for name.
func LookupGift(name string) (Gift, bool) {
	v, ok := giftCatalog[name]
	if !ok {
		return Gift{}, false
	}
	return Gift{Name: name, Value: v}, true
}

// GiftCatalog lists all gifts, cheapest first.
func GiftCatalog() []Gift {
	gifts := make([]Gift, 0, len(giftCatalog))
	for name, v := range giftCatalog {
		gifts = append(gifts, Gift{Name: name, Value: v})
	}
	sort.Slice(gifts, func(i, j int) bool { return gifts[i].Value < gifts[j].Value })
	return gifts
}
