package repository

import (
	"errors"
	"log/slog"
)

const (
	// IDField filters by document id.
	IDField QueryField = "id"
	// LedgerIDField filters by the ledger-assigned identifier.
	LedgerIDField QueryField = "ledger_id"
	// OwnerAddressField filters by the mirrored owner address.
	OwnerAddressField QueryField = "owner_address"
	// StatusField filters by product status.
	StatusField QueryField = "status"
	// CreatedAtField orders and filters by document creation time.
	CreatedAtField QueryField = "created_at"
)

// Query describes a field-equality lookup against the document collection.
type Query struct {
	Values map[QueryField]string

	Limit int

	Paginator *Paginator
}

// QueryField is a queryable document field.
type QueryField string

// NewQuery creates an empty query.
func NewQuery() *Query {
	return &Query{
		Values: map[QueryField]string{},
	}
}

// With adds a field-equality condition.
func (q *Query) With(field QueryField, val string) *Query {
	q.Values[field] = val
	return q
}

// ApplyPagination sets the limit and decodes an optional cursor token.
func (q *Query) ApplyPagination(limit int32, token string) error {
	queryLimit := DefaultPaginationLimit
	if limit > 0 {
		queryLimit = min(maxPaginationLimit, int(limit))
	}
	q.Limit = queryLimit

	if token == "" {
		return nil
	}

	paginator, err := DecodePageToken(token)
	if err != nil {
		slog.Error("failed to decode page token", slog.Any("err", err), slog.String("token", token))
		return errors.New("invalid page token")
	}
	q.Paginator = paginator
	return nil
}
