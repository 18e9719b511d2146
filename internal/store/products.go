package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/money"
	"github.com/noah-isme/storefront-engine/internal/product"
)

const productColumns = `
	p.id::text, p.seller_id::text, COALESCE(s.id::text, ''), COALESCE(s.name, ''),
	p.name, p.base_price::text, p.compare_at_price::text,
	p.quantity, p.low_stock_alert, p.status,
	COALESCE(p.discount_name, ''), p.discount_percentage, p.discount_start_date, p.discount_end_date,
	p.total_sales, p.total_revenue::text, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (product.Product, error) {
	var (
		p                      product.Product
		shopID, shopName       string
		base, revenue          string
		compareAt              *string
		status                 string
		discStart, discEnd     *time.Time
	)
	err := row.Scan(
		&p.ID, &p.SellerID, &shopID, &shopName,
		&p.Name, &base, &compareAt,
		&p.Quantity, &p.LowStockAlert, &status,
		&p.DiscountName, &p.DiscountPercentage, &discStart, &discEnd,
		&p.TotalSales, &revenue, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return product.Product{}, err
	}
	if shopID != "" {
		p.Shop = &product.Shop{ID: shopID, Name: shopName}
	}
	p.Status = product.Status(status)
	if p.BasePrice, err = parseMoney(base); err != nil {
		return product.Product{}, fmt.Errorf("scan base price: %w", err)
	}
	if p.CompareAtPrice, err = parseMoneyPtr(compareAt); err != nil {
		return product.Product{}, fmt.Errorf("scan compare-at price: %w", err)
	}
	if p.TotalRevenue, err = parseMoney(revenue); err != nil {
		return product.Product{}, fmt.Errorf("scan revenue: %w", err)
	}
	if discStart != nil {
		t := discStart.UTC()
		p.DiscountStart = &t
	}
	if discEnd != nil {
		t := discEnd.UTC()
		p.DiscountEnd = &t
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

// GetProduct loads a product with its shop, variations and options.
func (s *Store) GetProduct(ctx context.Context, id string) (product.Product, error) {
	if !validUUID(id) {
		return product.Product{}, common.NotFoundError("product")
	}
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+`
		FROM products p LEFT JOIN shops s ON s.id = p.shop_id
		WHERE p.id = $1::uuid`, id)
	p, err := scanProduct(row)
	if err != nil {
		return product.Product{}, notFound(err, "product")
	}
	variations, err := loadVariations(ctx, s.pool, []string{p.ID})
	if err != nil {
		return product.Product{}, err
	}
	p.Variations = variations[p.ID]
	return p, nil
}

// loadVariations returns the variations of every product in ids keyed by
// product id, options attached and ordered by position.
func loadVariations(ctx context.Context, q querier, ids []string) (map[string][]product.Variation, error) {
	out := make(map[string][]product.Variation, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT id::text, product_id::text, name, has_individual_stock, quantity, low_stock_alert
		FROM product_variations
		WHERE product_id = ANY($1::text[]::uuid[])
		ORDER BY product_id, position, name`, ids)
	if err != nil {
		return nil, fmt.Errorf("query variations: %w", err)
	}
	index := map[string]int{}
	for rows.Next() {
		var v product.Variation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.HasIndividualStock, &v.Quantity, &v.LowStockAlert); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		v.Options = []product.Option{}
		out[v.ProductID] = append(out[v.ProductID], v)
		index[v.ID] = len(out[v.ProductID]) - 1
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(index) == 0 {
		return out, nil
	}

	rows, err = q.Query(ctx, `
		SELECT o.id::text, o.variation_id::text, v.product_id::text, o.name, o.value, COALESCE(o.sku, ''),
			o.price::text, o.compare_at_price::text, o.stock, o.low_stock_alert
		FROM variation_options o
		JOIN product_variations v ON v.id = o.variation_id
		WHERE v.product_id = ANY($1::text[]::uuid[])
		ORDER BY o.variation_id, o.position, o.value`, ids)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			o                product.Option
			productID        string
			price, compareAt *string
		)
		if err := rows.Scan(&o.ID, &o.VariationID, &productID, &o.Name, &o.Value, &o.SKU, &price, &compareAt, &o.Stock, &o.LowStockAlert); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		if o.Price, err = parseMoneyPtr(price); err != nil {
			return nil, fmt.Errorf("scan option price: %w", err)
		}
		if o.CompareAtPrice, err = parseMoneyPtr(compareAt); err != nil {
			return nil, fmt.Errorf("scan option compare-at price: %w", err)
		}
		pos, ok := index[o.VariationID]
		if !ok {
			continue
		}
		vs := out[productID]
		vs[pos].Options = append(vs[pos].Options, o)
	}
	return out, rows.Err()
}

// UpdateProductStatus moves the product from one status to another. The
// update only applies while the stored status still equals from.
func (s *Store) UpdateProductStatus(ctx context.Context, id string, from, to product.Status) error {
	if !validUUID(id) {
		return common.NotFoundError("product")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE products SET status = $3, updated_at = now()
		WHERE id = $1::uuid AND status = $2`, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update product status: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var current string
	if err := s.pool.QueryRow(ctx, `SELECT status FROM products WHERE id = $1::uuid`, id).Scan(&current); err != nil {
		return notFound(err, "product")
	}
	return common.InvalidTransitionError(current, string(to))
}

func (s *Store) DecrementProductStock(ctx context.Context, productID string, qty int) (int, error) {
	return s.decrement(ctx, "products", "quantity", "product", productID, qty)
}

func (s *Store) DecrementVariationStock(ctx context.Context, variationID string, qty int) (int, error) {
	return s.decrement(ctx, "product_variations", "quantity", "variation", variationID, qty)
}

func (s *Store) DecrementOptionStock(ctx context.Context, optionID string, qty int) (int, error) {
	return s.decrement(ctx, "variation_options", "stock", "option", optionID, qty)
}

// decrement subtracts qty only while the counter covers it, so concurrent
// callers can never drive it negative.
func (s *Store) decrement(ctx context.Context, table, column, resource, id string, qty int) (int, error) {
	if qty < 1 {
		return 0, common.ValidationError("quantity", "quantity must be at least 1")
	}
	if !validUUID(id) {
		return 0, common.NotFoundError(resource)
	}
	var remaining int
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE %[1]s SET %[2]s = %[2]s - $2
		WHERE id = $1::uuid AND %[2]s >= $2
		RETURNING %[2]s`, table, column), id, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("decrement %s stock: %w", resource, err)
	}
	var available int
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1::uuid`, column, table), id).Scan(&available)
	if err != nil {
		return 0, notFound(err, resource)
	}
	return 0, common.StockInsufficientError(qty, available)
}

// RecordSale adds a completed sale to the product's running totals.
func (s *Store) RecordSale(ctx context.Context, productID string, qty int, revenue money.Money) error {
	if !validUUID(productID) {
		return common.NotFoundError("product")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET total_sales = total_sales + $2, total_revenue = total_revenue + $3::numeric, updated_at = now()
		WHERE id = $1::uuid`, productID, qty, revenue.String())
	if err != nil {
		return fmt.Errorf("record sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NotFoundError("product")
	}
	return nil
}

// CreateShop registers a storefront for a seller.
func (s *Store) CreateShop(ctx context.Context, sellerID, name string) (product.Shop, error) {
	if !validUUID(sellerID) {
		return product.Shop{}, common.ValidationError("seller_id", "seller id must be a uuid")
	}
	shop := product.Shop{Name: name}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO shops (seller_id, name) VALUES ($1::uuid, $2)
		RETURNING id::text`, sellerID, name).Scan(&shop.ID)
	if err != nil {
		return product.Shop{}, fmt.Errorf("insert shop: %w", err)
	}
	return shop, nil
}

// CreateProduct inserts a product with its variations and options in one
// transaction and returns it with generated ids.
func (s *Store) CreateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	if !validUUID(p.SellerID) {
		return product.Product{}, common.ValidationError("seller_id", "seller id must be a uuid")
	}
	if p.Status == "" {
		p.Status = product.StatusDraft
	}
	if !p.Status.Valid() {
		return product.Product{}, common.ValidationError("status", "unknown status")
	}
	var shopID *string
	if p.Shop != nil && p.Shop.ID != "" {
		shopID = &p.Shop.ID
	}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO products (
				seller_id, shop_id, name, base_price, compare_at_price, quantity, low_stock_alert, status,
				discount_name, discount_percentage, discount_start_date, discount_end_date
			) VALUES ($1::uuid, $2::uuid, $3, $4::numeric, $5::numeric, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id::text, created_at, updated_at`,
			p.SellerID, shopID, p.Name, p.BasePrice.String(), moneyParam(p.CompareAtPrice),
			p.Quantity, p.LowStockAlert, string(p.Status),
			nullableString(p.DiscountName), p.DiscountPercentage, p.DiscountStart, p.DiscountEnd,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		for i := range p.Variations {
			v := &p.Variations[i]
			v.ProductID = p.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO product_variations (product_id, name, has_individual_stock, quantity, low_stock_alert, position)
				VALUES ($1::uuid, $2, $3, $4, $5, $6)
				RETURNING id::text`,
				p.ID, v.Name, v.HasIndividualStock, v.Quantity, v.LowStockAlert, i,
			).Scan(&v.ID)
			if err != nil {
				return fmt.Errorf("insert variation: %w", err)
			}
			for j := range v.Options {
				o := &v.Options[j]
				o.VariationID = v.ID
				err := tx.QueryRow(ctx, `
					INSERT INTO variation_options (variation_id, name, value, sku, price, compare_at_price, stock, low_stock_alert, position)
					VALUES ($1::uuid, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9)
					RETURNING id::text`,
					v.ID, o.Name, o.Value, nullableString(o.SKU), moneyParam(o.Price), moneyParam(o.CompareAtPrice),
					o.Stock, o.LowStockAlert, j,
				).Scan(&o.ID)
				if err != nil {
					return fmt.Errorf("insert option: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return product.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}
