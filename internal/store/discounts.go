package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/storefront-engine/internal/common"
	"github.com/noah-isme/storefront-engine/internal/discount"
	"github.com/noah-isme/storefront-engine/internal/product"
)

const sellerScope = `($2::text = '' OR seller_id::text = $2::text)`

// CreateDiscount stores a window and copies its terms onto every attached
// product. A product moves out of any window it was previously attached to.
func (s *Store) CreateDiscount(ctx context.Context, w discount.Window) (discount.Window, error) {
	if !validUUID(w.SellerID) {
		return discount.Window{}, common.ValidationError("seller_id", "seller id must be a uuid")
	}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		if err := checkOwnership(ctx, tx, w.SellerID, w.ProductIDs); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO discounts (seller_id, name, percentage, start_date, end_date)
			VALUES ($1::uuid, $2, $3, $4, $5)
			RETURNING id::text, created_at`,
			w.SellerID, w.Name, w.Percentage, w.Start, w.End,
		).Scan(&w.ID, &w.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return common.ConflictError("a discount with this name already exists")
			}
			return fmt.Errorf("insert discount: %w", err)
		}
		_, err = attach(ctx, tx, w)
		return err
	})
	if err != nil {
		return discount.Window{}, err
	}
	w.CreatedAt = w.CreatedAt.UTC()
	return w, nil
}

// UpdateDiscount replaces the terms and product set of the named window. The
// returned ids cover products that were attached before or after.
func (s *Store) UpdateDiscount(ctx context.Context, sellerID, name string, w discount.Window) (discount.Window, []string, error) {
	if !validUUID(sellerID) {
		return discount.Window{}, nil, common.NotFoundError("discount")
	}
	var affected []string
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		id, err := lockWindow(ctx, tx, sellerID, name)
		if err != nil {
			return err
		}
		if err := checkOwnership(ctx, tx, sellerID, w.ProductIDs); err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			UPDATE discounts
			SET name = $2, percentage = $3, start_date = $4, end_date = $5, updated_at = now()
			WHERE id = $1::uuid
			RETURNING created_at`,
			id, w.Name, w.Percentage, w.Start, w.End,
		).Scan(&w.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return common.ConflictError("a discount with this name already exists")
			}
			return fmt.Errorf("update discount: %w", err)
		}
		w.ID = id
		w.SellerID = sellerID

		previous, err := detach(ctx, tx, id)
		if err != nil {
			return err
		}
		current, err := attach(ctx, tx, w)
		if err != nil {
			return err
		}
		affected = union(previous, current)
		return nil
	})
	if err != nil {
		return discount.Window{}, nil, err
	}
	w.CreatedAt = w.CreatedAt.UTC()
	return w, affected, nil
}

// DeleteDiscount removes the named window and clears its products' discount
// fields. Products themselves are kept.
func (s *Store) DeleteDiscount(ctx context.Context, sellerID, name string) ([]string, error) {
	if !validUUID(sellerID) {
		return nil, common.NotFoundError("discount")
	}
	var affected []string
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		id, err := lockWindow(ctx, tx, sellerID, name)
		if err != nil {
			return err
		}
		if affected, err = detach(ctx, tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM discounts WHERE id = $1::uuid`, id); err != nil {
			return fmt.Errorf("delete discount: %w", err)
		}
		return nil
	})
	return affected, err
}

// ListDiscounts returns every window of the seller with its product ids,
// ordered by start date.
func (s *Store) ListDiscounts(ctx context.Context, sellerID string) ([]discount.Window, error) {
	if !validUUID(sellerID) {
		return []discount.Window{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT d.id::text, d.seller_id::text, d.name, d.percentage, d.start_date, d.end_date, d.created_at,
			COALESCE(array_agg(dp.product_id::text ORDER BY dp.product_id) FILTER (WHERE dp.product_id IS NOT NULL), '{}')
		FROM discounts d
		LEFT JOIN discount_products dp ON dp.discount_id = d.id
		WHERE d.seller_id = $1::uuid
		GROUP BY d.id
		ORDER BY d.start_date, d.name`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	defer rows.Close()
	out := []discount.Window{}
	for rows.Next() {
		var w discount.Window
		if err := rows.Scan(&w.ID, &w.SellerID, &w.Name, &w.Percentage, &w.Start, &w.End, &w.CreatedAt, &w.ProductIDs); err != nil {
			return nil, fmt.Errorf("scan discount: %w", err)
		}
		w.Start, w.End, w.CreatedAt = w.Start.UTC(), w.End.UTC(), w.CreatedAt.UTC()
		out = append(out, w)
	}
	return out, rows.Err()
}

// DetachExpired clears discount fields on products whose window ended before
// now and drops the expired windows. An empty sellerID sweeps all sellers.
func (s *Store) DetachExpired(ctx context.Context, sellerID string, now time.Time) (discount.DetachResult, error) {
	if sellerID != "" && !validUUID(sellerID) {
		return discount.DetachResult{ProductIDs: []string{}}, nil
	}
	res := discount.DetachResult{ProductIDs: []string{}}
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE products
			SET discount_name = NULL, discount_percentage = NULL,
				discount_start_date = NULL, discount_end_date = NULL, updated_at = now()
			WHERE discount_end_date IS NOT NULL AND discount_end_date < $1 AND `+sellerScope+`
			RETURNING id::text`, now.UTC(), sellerID)
		if err != nil {
			return fmt.Errorf("clear expired product discounts: %w", err)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("scan cleared products: %w", err)
		}
		res.ProductIDs = append(res.ProductIDs, ids...)

		tag, err := tx.Exec(ctx, `DELETE FROM discounts WHERE end_date < $1 AND `+sellerScope, now.UTC(), sellerID)
		if err != nil {
			return fmt.Errorf("delete expired discounts: %w", err)
		}
		res.Windows = int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return discount.DetachResult{}, err
	}
	sort.Strings(res.ProductIDs)
	return res, nil
}

// ListDiscountable pages through the seller's non-archived products for the
// discount picker, filtered by a case-insensitive name search.
func (s *Store) ListDiscountable(ctx context.Context, q discount.DiscountableQuery) ([]product.Product, int, error) {
	if !validUUID(q.SellerID) {
		return []product.Product{}, 0, nil
	}
	pattern := "%" + escapeLike(q.Search) + "%"
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM products p
		WHERE p.seller_id = $1::uuid AND p.status <> 'archived' AND p.name ILIKE $2`,
		q.SellerID, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count discountable: %w", err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+`
		FROM products p LEFT JOIN shops s ON s.id = p.shop_id
		WHERE p.seller_id = $1::uuid AND p.status <> 'archived' AND p.name ILIKE $2
		ORDER BY p.name, p.id
		LIMIT $3 OFFSET $4`, q.SellerID, pattern, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list discountable: %w", err)
	}
	products := []product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan discountable: %w", err)
		}
		products = append(products, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	variations, err := loadVariations(ctx, s.pool, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].Variations = variations[products[i].ID]
	}
	return products, total, nil
}

func lockWindow(ctx context.Context, tx pgx.Tx, sellerID, name string) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		SELECT id::text FROM discounts
		WHERE seller_id = $1::uuid AND name = $2
		FOR UPDATE`, sellerID, name).Scan(&id)
	if err != nil {
		return "", notFound(err, "discount")
	}
	return id, nil
}

// checkOwnership rejects product ids that are malformed, unknown or owned by
// another seller.
func checkOwnership(ctx context.Context, tx pgx.Tx, sellerID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if !allValidUUIDs(ids) {
		return common.ValidationError("product_ids", "product ids must be valid")
	}
	var owned int
	err := tx.QueryRow(ctx, `
		SELECT count(*) FROM products
		WHERE id = ANY($1::text[]::uuid[]) AND seller_id = $2::uuid`, ids, sellerID).Scan(&owned)
	if err != nil {
		return fmt.Errorf("check product ownership: %w", err)
	}
	if owned != len(ids) {
		return common.ValidationError("product_ids", "one or more products do not exist")
	}
	return nil
}

// attach links the window's products and writes its terms onto them. It
// returns the ids of every product whose discount fields changed, including
// those taken from another window.
func attach(ctx context.Context, tx pgx.Tx, w discount.Window) ([]string, error) {
	if len(w.ProductIDs) == 0 {
		return []string{}, nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM discount_products WHERE product_id = ANY($1::text[]::uuid[])`, w.ProductIDs); err != nil {
		return nil, fmt.Errorf("release products: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO discount_products (discount_id, product_id)
		SELECT $1::uuid, unnest($2::text[]::uuid[])`, w.ID, w.ProductIDs); err != nil {
		return nil, fmt.Errorf("attach products: %w", err)
	}
	rows, err := tx.Query(ctx, `
		UPDATE products
		SET discount_name = $2, discount_percentage = $3,
			discount_start_date = $4, discount_end_date = $5, updated_at = now()
		WHERE id = ANY($1::text[]::uuid[])
		RETURNING id::text`, w.ProductIDs, w.Name, w.Percentage, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("apply discount: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// detach unlinks every product of the window and clears their discount fields.
func detach(ctx context.Context, tx pgx.Tx, discountID string) ([]string, error) {
	rows, err := tx.Query(ctx, `
		DELETE FROM discount_products WHERE discount_id = $1::uuid
		RETURNING product_id::text`, discountID)
	if err != nil {
		return nil, fmt.Errorf("detach products: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan detached products: %w", err)
	}
	if len(ids) == 0 {
		return []string{}, nil
	}
	if _, err := tx.Exec(ctx, `
		UPDATE products
		SET discount_name = NULL, discount_percentage = NULL,
			discount_start_date = NULL, discount_end_date = NULL, updated_at = now()
		WHERE id = ANY($1::text[]::uuid[])`, ids); err != nil {
		return nil, fmt.Errorf("clear product discounts: %w", err)
	}
	return ids, nil
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

