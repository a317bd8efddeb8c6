package menustore

import (
	"context"
	"fmt"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

// Static serves a fixed menu from memory. It backs development setups and
// acts as the fallback when no database is configured.
type Static struct {
	tenantRef string
	name      string
	items     []menu.Item
}

func NewStatic(tenantRef, name string, items []menu.Item) *Static {
	return &Static{tenantRef: tenantRef, name: name, items: items}
}

func (s *Static) Items(_ context.Context, tenantRef string) ([]menu.Item, error) {
	if tenantRef != s.tenantRef {
		return nil, fmt.Errorf("unknown tenant %q", tenantRef)
	}
	out := make([]menu.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *Static) Tenant(_ context.Context, tenantRef string) (TenantConfig, error) {
	if tenantRef != s.tenantRef {
		return TenantConfig{}, fmt.Errorf("unknown tenant %q", tenantRef)
	}
	return TenantConfig{Ref: s.tenantRef, Name: s.name}, nil
}

// SeedTenantName labels the development tenant served by SeedItems.
const SeedTenantName = "Spice Garden"

// SeedItems is the development menu used when postgres.dsn is unset.
func SeedItems() []menu.Item {
	return []menu.Item{
		{ID: "naan-plain", Name: "Naan", NameNL: "Naan", Category: "breads", PriceCents: 250, Aliases: []string{"plain naan", "naan bread"}},
		{ID: "naan-garlic", Name: "Garlic Naan", NameNL: "Knoflook Naan", Category: "breads", PriceCents: 325, Aliases: []string{"garlic naan", "knoflook naan"}},
		{ID: "naan-cheese", Name: "Cheese Naan", NameNL: "Kaas Naan", Category: "breads", PriceCents: 350, Aliases: []string{"cheese naan", "kaas naan"}},
		{ID: "chicken-tikka", Name: "Chicken Tikka Masala", NameNL: "Kip Tikka Masala", Category: "mains", PriceCents: 1450, Aliases: []string{"tikka masala", "chicken tikka", "kip tikka"}},
		{ID: "chicken-korma", Name: "Chicken Korma", NameNL: "Kip Korma", Category: "mains", PriceCents: 1400, Aliases: []string{"korma", "kip korma"}},
		{ID: "lamb-madras", Name: "Lamb Madras", NameNL: "Lam Madras", Category: "mains", PriceCents: 1550, Aliases: []string{"madras", "lam madras"}},
		{ID: "veg-biryani", Name: "Vegetable Biryani", NameNL: "Groente Biryani", Category: "mains", PriceCents: 1200, Aliases: []string{"biryani", "veggie biryani", "groente biryani"}},
		{ID: "samosa", Name: "Vegetable Samosa", NameNL: "Groente Samosa", Category: "starters", PriceCents: 450, Aliases: []string{"samosa", "samosas"}},
		{ID: "pakora", Name: "Onion Pakora", NameNL: "Ui Pakora", Category: "starters", PriceCents: 425, Aliases: []string{"pakora", "onion bhaji", "bhaji"}},
		{ID: "rice-pilau", Name: "Pilau Rice", NameNL: "Pilavrijst", Category: "sides", PriceCents: 375, Aliases: []string{"pilau", "rice", "rijst"}},
		{ID: "raita", Name: "Raita", NameNL: "Raita", Category: "sides", PriceCents: 275, Aliases: []string{"yoghurt dip"}},
		{ID: "cola", Name: "Cola", NameNL: "Cola", Category: "drinks", PriceCents: 250, Aliases: []string{"coke", "cola"}},
		{ID: "mango-lassi", Name: "Mango Lassi", NameNL: "Mango Lassi", Category: "drinks", PriceCents: 395, Aliases: []string{"lassi", "mango lassi"}},
	}
}
