package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/model"
	"github.com/sakif/edtech-platform/internal/repository"
)

var _ repository.GoodieRepository = (*GoodieDB)(nil)

type GoodieDB struct {
	conn *sql.DB
}

const goodieColumns = `id, name, description, price, coin_price, stock, category, is_popular,
	image, created_at, updated_at`

func (g *GoodieDB) Create(ctx context.Context, goodie *model.Goodie) error {
	goodie.ID = xid.New().String()
	now := time.Now().UTC()
	goodie.CreatedAt = now
	goodie.UpdatedAt = now

	_, err := g.conn.ExecContext(ctx,
		`INSERT INTO goodies (`+goodieColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goodie.ID, goodie.Name, goodie.Description, goodie.Price, goodie.CoinPrice,
		goodie.Stock, goodie.Category, goodie.IsPopular, goodie.Image,
		goodie.CreatedAt, goodie.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating goodie: %w", err)
	}
	return nil
}

func (g *GoodieDB) GetByID(ctx context.Context, id string) (*model.Goodie, error) {
	goodie, err := scanGoodie(g.conn.QueryRowContext(ctx,
		`SELECT `+goodieColumns+` FROM goodies WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("goodie", id)
		}
		return nil, fmt.Errorf("sqlite: getting goodie %s: %w", id, err)
	}
	return goodie, nil
}

// List returns popular goodies first, then by name.
func (g *GoodieDB) List(ctx context.Context, category string) ([]model.Goodie, error) {
	rows, err := g.conn.QueryContext(ctx,
		`SELECT `+goodieColumns+` FROM goodies
		 WHERE (? = '' OR category = ?)
		 ORDER BY is_popular DESC, name ASC`,
		category, category,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing goodies: %w", err)
	}
	defer rows.Close()

	goodies := []model.Goodie{}
	for rows.Next() {
		goodie, err := scanGoodie(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning goodie row: %w", err)
		}
		goodies = append(goodies, *goodie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating goodies: %w", err)
	}
	return goodies, nil
}

func (g *GoodieDB) Update(ctx context.Context, goodie *model.Goodie) error {
	goodie.UpdatedAt = time.Now().UTC()
	result, err := g.conn.ExecContext(ctx,
		`UPDATE goodies
		 SET name = ?, description = ?, price = ?, coin_price = ?, stock = ?, category = ?,
		     is_popular = ?, image = ?, updated_at = ?
		 WHERE id = ?`,
		goodie.Name, goodie.Description, goodie.Price, goodie.CoinPrice, goodie.Stock,
		goodie.Category, goodie.IsPopular, goodie.Image, goodie.UpdatedAt, goodie.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating goodie %s: %w", goodie.ID, err)
	}
	return expectOneRow(result, "goodie", goodie.ID)
}

func (g *GoodieDB) Delete(ctx context.Context, id string) error {
	result, err := g.conn.ExecContext(ctx, `DELETE FROM goodies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting goodie %s: %w", id, err)
	}
	return expectOneRow(result, "goodie", id)
}

func scanGoodie(row rowScanner) (*model.Goodie, error) {
	var goodie model.Goodie
	err := row.Scan(
		&goodie.ID, &goodie.Name, &goodie.Description, &goodie.Price, &goodie.CoinPrice,
		&goodie.Stock, &goodie.Category, &goodie.IsPopular, &goodie.Image,
		&goodie.CreatedAt, &goodie.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &goodie, nil
}
