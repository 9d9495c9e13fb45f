package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postpilot/internal/models"
)

type AssetRepository interface {
	Create(ctx context.Context, tx *sql.Tx, asset *models.Asset) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.Asset, error)
	Remove(ctx context.Context, id int64) error
}

type assetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, tx *sql.Tx, asset *models.Asset) (int64, error) {
	query := `
		INSERT INTO assets (post_id, user_id, storage_path, public_url, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	var err error

	args := []any{asset.PostID, asset.UserID, asset.StoragePath, asset.PublicURL, asset.DisplayOrder}
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// ListByPostID returns assets in slide order.
func (r *assetRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.Asset, error) {
	query := `
		SELECT id, post_id, user_id, storage_path, public_url, display_order, created_at
		FROM assets
		WHERE post_id = $1
		ORDER BY display_order
	`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.PostID, &a.UserID, &a.StoragePath, &a.PublicURL, &a.DisplayOrder, &a.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &a)
	}

	if err = rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return assets, nil
}

func (r *assetRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM assets WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
