package menustore

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"

	"github.com/ordervox/ordervox/pkg/core/menu"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the schema migrations. db must be a database/sql handle,
// typically opened through the pgx stdlib driver.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Postgres reads menu rows from the tenants, menu_items and
// menu_item_aliases tables.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Tenant(ctx context.Context, tenantRef string) (TenantConfig, error) {
	var tc TenantConfig
	err := p.pool.QueryRow(ctx,
		`SELECT ref, name FROM tenants WHERE ref = $1`, tenantRef).Scan(&tc.Ref, &tc.Name)
	if err != nil {
		return TenantConfig{}, fmt.Errorf("query tenant %s: %w", tenantRef, err)
	}
	return tc, nil
}

func (p *Postgres) Items(ctx context.Context, tenantRef string) ([]menu.Item, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT i.id, i.name, COALESCE(i.name_nl, ''), i.category, i.price_cents
		FROM menu_items i
		JOIN tenants t ON t.id = i.tenant_id
		WHERE t.ref = $1 AND i.active
		ORDER BY i.category, i.name`, tenantRef)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []menu.Item
	index := make(map[string]int)
	for rows.Next() {
		var it menu.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.NameNL, &it.Category, &it.PriceCents); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}

	aliasRows, err := p.pool.Query(ctx, `
		SELECT a.item_id, a.alias
		FROM menu_item_aliases a
		JOIN menu_items i ON i.id = a.item_id
		JOIN tenants t ON t.id = i.tenant_id
		WHERE t.ref = $1 AND i.active
		ORDER BY a.item_id, a.alias`, tenantRef)
	if err != nil {
		return nil, fmt.Errorf("query menu aliases: %w", err)
	}
	defer aliasRows.Close()

	for aliasRows.Next() {
		var itemID, alias string
		if err := aliasRows.Scan(&itemID, &alias); err != nil {
			return nil, fmt.Errorf("scan menu alias: %w", err)
		}
		if idx, ok := index[itemID]; ok {
			items[idx].Aliases = append(items[idx].Aliases, alias)
		}
	}
	if err := aliasRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu aliases: %w", err)
	}

	return items, nil
}
