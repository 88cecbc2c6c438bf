package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chaintrack/backend/internal/model"
	"github.com/chaintrack/backend/internal/repository"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const productColumns = "id, ledger_id, name, manufacturer, origin, description, status, owner_address, data_hash, created_at, updated_at"

// queryableColumns whitelists the fields exposed for exact-match lookups.
var queryableColumns = map[repository.QueryField]string{
	repository.IDField:           "id",
	repository.LedgerIDField:     "ledger_id",
	repository.OwnerAddressField: "owner_address",
	repository.StatusField:       "status",
}

// DocumentRepository manages product documents in the store.
type DocumentRepository struct {
	db dbExecutor
}

// NewDocumentRepository creates a new DocumentRepository instance.
func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Partial is a field-merge update: only non-nil fields are written.
type Partial struct {
	Name         *string
	Manufacturer *string
	Origin       *string
	Description  *string
	Status       *string
	OwnerAddress *string
	DataHash     *string
}

// Create appends a new document and returns its store-assigned id.
func (r *DocumentRepository) Create(ctx context.Context, product *model.Product) (uuid.UUID, error) {
	if product.DocumentID == uuid.Nil {
		product.InitMeta()
	}

	query := `INSERT INTO products (` + productColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		product.DocumentID, product.LedgerID, product.Name, product.Manufacturer,
		product.Origin, product.Description, product.Status, product.OwnerAddress,
		product.DataHash, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert product document: %w", err)
	}

	return product.DocumentID, nil
}

// GetByField returns the first document matching an exact field value, newest
// first. Duplicates are tolerated, not prevented: when more than one document
// matches, the most recent wins and the ambiguity is logged.
func (r *DocumentRepository) GetByField(ctx context.Context, field repository.QueryField, value string) (*model.Product, error) {
	column, ok := queryableColumns[field]
	if !ok {
		return nil, fmt.Errorf("field %q is not queryable", field)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` + pq.QuoteIdentifier(column) + ` = $1 ORDER BY created_at DESC, id DESC`

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query product documents: %w", err)
	}
	defer rows.Close()

	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("no document with %s=%s: %w", column, value, ErrNotFound)
	}
	if len(products) > 1 {
		slog.Warn("duplicate documents for field, most recent wins",
			slog.String("field", column),
			slog.String("value", value),
			slog.Int("count", len(products)),
		)
	}
	return products[0], nil
}

// GetByLedgerID is a convenience composition of GetByField over the
// ledger-assigned identifier.
func (r *DocumentRepository) GetByLedgerID(ctx context.Context, ledgerID string) (*model.Product, error) {
	return r.GetByField(ctx, repository.LedgerIDField, ledgerID)
}

// Update merges the provided fields into an existing document. It does not
// validate that required fields remain present.
func (r *DocumentRepository) Update(ctx context.Context, documentID uuid.UUID, partial Partial) error {
	assignments := make([]string, 0, 8)
	args := make([]interface{}, 0, 9)
	argIndex := 1

	appendField := func(column string, value *string) {
		if value == nil {
			return
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(column), argIndex))
		args = append(args, *value)
		argIndex++
	}

	appendField("name", partial.Name)
	appendField("manufacturer", partial.Manufacturer)
	appendField("origin", partial.Origin)
	appendField("description", partial.Description)
	appendField("status", partial.Status)
	appendField("owner_address", partial.OwnerAddress)
	appendField("data_hash", partial.DataHash)

	if len(assignments) == 0 {
		return errors.New("no fields to update")
	}

	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(assignments, ", "), argIndex)
	args = append(args, documentID)

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to update product document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}

	return nil
}

// List retrieves documents matching the query, newest first, with cursor
// pagination.
func (r *DocumentRepository) List(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + productColumns + " FROM products WHERE 1=1")

	var args []interface{}
	argIndex := 1

	// Apply exact-match filters
	for field, value := range query.Values {
		column, ok := queryableColumns[field]
		if !ok {
			return nil, fmt.Errorf("field %q is not queryable", field)
		}
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", pq.QuoteIdentifier(column), argIndex))
		args = append(args, value)
		argIndex++
	}

	// Apply pagination
	if query.Paginator != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1))
		args = append(args, query.Paginator.LastCreatedAt, query.Paginator.LastID)
		argIndex += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	limit := query.Limit
	if limit <= 0 {
		limit = repository.DefaultPaginationLimit
	}
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argIndex))
	args = append(args, limit)

	stmt, err := r.db.PrepareContext(ctx, queryBuilder.String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product documents: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]*model.Product, error) {
	var products []*model.Product
	for rows.Next() {
		var product model.Product
		err := rows.Scan(
			&product.DocumentID, &product.LedgerID, &product.Name, &product.Manufacturer,
			&product.Origin, &product.Description, &product.Status, &product.OwnerAddress,
			&product.DataHash, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product document: %w", err)
		}
		products = append(products, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return products, nil
}
