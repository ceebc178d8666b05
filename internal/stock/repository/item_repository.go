package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"transferflow/internal/domain"
	apperrors "transferflow/internal/errors"
)

// MySQLItemRepository is the adapter for the external persistence service. The
// in-memory store is authoritative; this repository only makes mutations
// durable and provides the initial load.
type MySQLItemRepository struct {
	db *sql.DB
}

func NewMySQLItemRepository(db *sql.DB) *MySQLItemRepository {
	return &MySQLItemRepository{db: db}
}

const itemColumns = `id, source_store_id, source_store_name,
		       destination_store_id, destination_store_name,
		       brand, gender, category, typology, color, size, quantity,
		       description, article_code, status,
		       date_added, date_requested, date_received,
		       version, transitions`

func (r *MySQLItemRepository) CreateItems(ctx context.Context, items []domain.Item) ([]domain.Item, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO TransferItems (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	for _, it := range items {
		transitions, err := json.Marshal(it.Transitions)
		if err != nil {
			return nil, fmt.Errorf("marshaling transitions for item %s: %w", it.ID, err)
		}

		_, err = tx.ExecContext(ctx, query,
			it.ID, it.SourceStoreID, it.SourceStoreName,
			nullString(it.DestinationStoreID), nullString(it.DestinationStoreName),
			it.Brand, it.Gender, it.Category, nullString(it.Typology), it.Color, it.Size, it.Quantity,
			it.Description, nullString(it.ArticleCode), string(it.Status),
			it.DateAdded, it.DateRequested, it.DateReceived,
			it.Version, transitions,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting item %s: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item batch: %w", err)
	}

	return items, nil
}

// UpdateItem applies a transitioned copy with a conditional update: the row must
// still carry the version the transition was computed from. Zero rows affected
// means another writer got there first.
func (r *MySQLItemRepository) UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	transitions, err := json.Marshal(item.Transitions)
	if err != nil {
		return domain.Item{}, fmt.Errorf("marshaling transitions for item %s: %w", item.ID, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE TransferItems
		SET destination_store_id = ?,
		    destination_store_name = ?,
		    status = ?,
		    date_requested = ?,
		    date_received = ?,
		    version = ?,
		    transitions = ?
		WHERE id = ? AND version = ?`,
		nullString(item.DestinationStoreID), nullString(item.DestinationStoreName),
		string(item.Status), item.DateRequested, item.DateReceived,
		item.Version, transitions,
		item.ID, item.Version-1,
	)
	if err != nil {
		return domain.Item{}, fmt.Errorf("updating item %s: %w", item.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Item{}, fmt.Errorf("reading affected rows for item %s: %w", item.ID, err)
	}
	if affected == 0 {
		return domain.Item{}, apperrors.NewConflictError(fmt.Sprintf(
			"item %s was not at version %d", item.ID, item.Version-1))
	}

	return item, nil
}

func (r *MySQLItemRepository) DeleteItem(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM TransferItems WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows for item %s: %w", id, err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("item %s not found", id))
	}
	return nil
}

func (r *MySQLItemRepository) ListAllItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM TransferItems
		ORDER BY date_added ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}

	return items, nil
}

func scanItem(rows *sql.Rows) (domain.Item, error) {
	var it domain.Item
	var destID, destName, typology, articleCode sql.NullString
	var requested, received sql.NullTime
	var transitions []byte

	err := rows.Scan(
		&it.ID, &it.SourceStoreID, &it.SourceStoreName,
		&destID, &destName,
		&it.Brand, &it.Gender, &it.Category, &typology, &it.Color, &it.Size, &it.Quantity,
		&it.Description, &articleCode, &it.Status,
		&it.DateAdded, &requested, &received,
		&it.Version, &transitions,
	)
	if err != nil {
		return domain.Item{}, fmt.Errorf("scanning item row: %w", err)
	}

	it.DestinationStoreID = destID.String
	it.DestinationStoreName = destName.String
	it.Typology = typology.String
	it.ArticleCode = articleCode.String
	if requested.Valid {
		t := requested.Time
		it.DateRequested = &t
	}
	if received.Valid {
		t := received.Time
		it.DateReceived = &t
	}
	if len(transitions) > 0 {
		if err := json.Unmarshal(transitions, &it.Transitions); err != nil {
			return domain.Item{}, fmt.Errorf("unmarshaling transitions for item %s: %w", it.ID, err)
		}
	}

	return it, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
