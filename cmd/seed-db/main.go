// Command seed-db fills a development or integration database with the base
// catalog, a demo customer, and a back-office API key.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gsmmotor/storefront/internal/domain/auth"
	"github.com/gsmmotor/storefront/internal/repository"
)

type productJSON struct {
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Price3Items decimal.Decimal `json:"price_3_items"`
	Price5Items decimal.Decimal `json:"price_5_items"`
	Stock       int             `json:"stock"`
	WeightGrams int             `json:"weight_grams"`
	ImagePath   string          `json:"image_path"`
	SubmittedBy string          `json:"submitted_by"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or GSM_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or GSM_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("GSM_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or GSM_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("GSM_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedUsers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed users")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

const (
	upsertCategorySQL = `INSERT INTO categories (name, slug) VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertProductSQL = `INSERT INTO products
		(category_id, name, slug, description, price, price_3_items, price_5_items, stock, weight_grams, image_path, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (slug) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			price_3_items = EXCLUDED.price_3_items,
			price_5_items = EXCLUDED.price_5_items,
			stock = EXCLUDED.stock,
			weight_grams = EXCLUDED.weight_grams,
			image_path = EXCLUDED.image_path,
			updated_at = now()`

	upsertUserSQL = `INSERT INTO users
		(name, email, phone, role, province, city, district, subdistrict, subdistrict_id, postal_code, address_detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (email) DO NOTHING`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash,
			scopes = EXCLUDED.scopes,
			active = TRUE`
)

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	categories := make(map[string]int64)
	for _, p := range products {
		if _, ok := categories[p.Category]; ok {
			continue
		}
		name := categoryName(p.Category)
		var id int64
		if err := pool.QueryRow(ctx, upsertCategorySQL, name, slug.Make(p.Category)).Scan(&id); err != nil {
			return errors.Wrapf(err, "upsert category %s", p.Category)
		}
		categories[p.Category] = id
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		_, err := pool.Exec(ctx, upsertProductSQL,
			categories[p.Category], p.Name, p.Slug, p.Description,
			p.Price, p.Price3Items, p.Price5Items,
			p.Stock, p.WeightGrams, p.ImagePath, p.SubmittedBy,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Slug)
		}

		slog.Info("upserted product", slog.String("slug", p.Slug), slog.String("name", p.Name))
	}

	return nil
}

// categoryName turns a category slug like "oli-dan-cairan" into a display
// name like "Oli Dan Cairan".
func categoryName(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo customer")

	_, err := pool.Exec(ctx, upsertUserSQL,
		"Andi Pratama", "andi@example.com", "081234567890", "customer",
		"Jawa Barat", "Bandung", "Sukajadi", "Pasteur", "5779", "40162",
		"Jl. Merdeka No. 1",
	)
	if err != nil {
		return errors.Wrap(err, "upsert demo customer")
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding back-office API key")

	keyHash := auth.HashKey([]byte(pepper), apiKey)

	_, err := pool.Exec(ctx, upsertAPIKeySQL,
		"backoffice", keyHash, "Back-office key", []string{auth.ScopeAdmin},
	)
	if err != nil {
		return errors.Wrap(err, "upsert back-office API key")
	}

	slog.Info("upserted API key", slog.String("id", "backoffice"))

	return nil
}
