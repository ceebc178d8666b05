package repository

import (
	"context"
	"database/sql"
	"fmt"

	"transferflow/internal/domain"
)

// MySQLStoreRepository serves the store directory.
type MySQLStoreRepository struct {
	db *sql.DB
}

func NewMySQLStoreRepository(db *sql.DB) *MySQLStoreRepository {
	return &MySQLStoreRepository{db: db}
}

func (r *MySQLStoreRepository) ListStores(ctx context.Context) ([]domain.Store, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, city
		FROM Stores
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying stores: %w", err)
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		var s domain.Store
		var city sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &city); err != nil {
			return nil, fmt.Errorf("scanning store row: %w", err)
		}
		s.City = city.String
		stores = append(stores, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating store rows: %w", err)
	}

	return stores, nil
}
