package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/eco-catalog/internal/core/domain"
	"github.com/niksmo/eco-catalog/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

const upsertProductQuery = `
	INSERT INTO products (
		id, name, material, price, impact_score, is_new, is_limited
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		material = EXCLUDED.material,
		price = EXCLUDED.price,
		impact_score = EXCLUDED.impact_score,
		is_new = EXCLUDED.is_new,
		is_limited = EXCLUDED.is_limited;
`

// position is assigned once on insert, so it holds the featured order.
const selectProductsQuery = `
	SELECT id, name, material, price, impact_score, is_new, is_limited
	FROM products
	ORDER BY position ASC;
`

type ProductsRepository struct {
	sqldb sqldb
}

func NewProductsRepository(sqldb sqldb) ProductsRepository {
	return ProductsRepository{sqldb}
}

func (r ProductsRepository) StoreProducts(
	ctx context.Context, vs []domain.Product,
) (storeErr error) {
	const op = "ProductsRepository.StoreProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := r.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}

	defer func() {
		if storeErr == nil {
			if err := tx.Commit(); err != nil {
				storeErr = fmt.Errorf("%s: failed to commit: %w", op, err)
			}
			return
		}

		if err := tx.Rollback(); err != nil {
			log.Error("failed to rollback tx", "err", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertProductQuery)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare stmt: %w", op, err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for _, v := range vs {
		_, err := stmt.ExecContext(ctx,
			v.ID, v.Name, v.Material, v.Price,
			v.ImpactScore, v.IsNew, v.IsLimited,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to exec for %q: %w", op, v.ID, err)
		}
	}

	log.Debug("products stored", "count", len(vs))
	return nil
}

// ReadProducts returns the whole catalog in featured order.
func (r ProductsRepository) ReadProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ReadProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := r.sqldb.QueryContext(ctx, selectProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ps []domain.Product
	for rows.Next() {
		var v domain.Product
		err := rows.Scan(
			&v.ID, &v.Name, &v.Material, &v.Price,
			&v.ImpactScore, &v.IsNew, &v.IsLimited,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan: %w", op, err)
		}
		ps = append(ps, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}
