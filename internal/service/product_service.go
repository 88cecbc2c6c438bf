// Package service implements the dual-write/dual-read reconciliation between
// the ledger and the document store. The ledger is written first and is
// authoritative for identity, ownership and the content hash; the document
// store mirrors it and additionally owns the free-form description. A mirror
// write that fails after the ledger write committed is recorded as a durable
// reconcile task instead of being lost.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/chaintrack/backend/internal/hashing"
	"github.com/chaintrack/backend/internal/ledger"
	"github.com/chaintrack/backend/internal/metrics"
	"github.com/chaintrack/backend/internal/model"
	"github.com/chaintrack/backend/internal/repository"
	"github.com/chaintrack/backend/internal/store"
)

// ErrValidation marks input errors the HTTP layer maps to a 400 response.
var ErrValidation = errors.New("validation failed")

// LedgerClient is the subset of the ledger adapter the service depends on.
type LedgerClient interface {
	CreateProduct(ctx context.Context, name, manufacturer, origin, description, dataHash string) (*ledger.CreateResult, error)
	GetProduct(ctx context.Context, id string) (*ledger.Record, error)
	TransferProduct(ctx context.Context, to, id string) (string, error)
	UpdateProductHash(ctx context.Context, id, newHash string) (string, error)
}

// DocumentStore is the subset of the document repository the service depends on.
type DocumentStore interface {
	Create(ctx context.Context, product *model.Product) (uuid.UUID, error)
	GetByLedgerID(ctx context.Context, ledgerID string) (*model.Product, error)
	Update(ctx context.Context, documentID uuid.UUID, partial store.Partial) error
	List(ctx context.Context, query repository.Query) ([]*model.Product, error)
}

// TaskStore records reconcile tasks for the outbox relay.
type TaskStore interface {
	Create(ctx context.Context, task *model.ReconcileTask) error
}

type ProductService struct {
	ledger LedgerClient
	docs   DocumentStore
	tasks  TaskStore
}

func NewProductService(ledgerClient LedgerClient, docs DocumentStore, tasks TaskStore) *ProductService {
	return &ProductService{
		ledger: ledgerClient,
		docs:   docs,
		tasks:  tasks,
	}
}

// RegisterInput carries the descriptive fields of a new product.
type RegisterInput struct {
	Name         string
	Manufacturer string
	Origin       string
	Description  string
}

func (in RegisterInput) validate() error {
	if in.Name == "" || in.Manufacturer == "" || in.Origin == "" {
		return fmt.Errorf("%w: name, manufacturer and origin are required", ErrValidation)
	}
	return nil
}

// RegisterResult carries the chain-assigned identity of a registered product
// alongside the mirrored document. Mirrored is false when the ledger write
// succeeded but the document write did not; a reconcile task has been recorded
// in that case and the identity is still returned.
type RegisterResult struct {
	Product     *model.Product
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Mirrored    bool
}

// Register creates a product on the ledger first, then mirrors it into the
// document store. A ledger failure aborts with nothing written anywhere. A
// mirror failure after the ledger write committed records a reconcile task and
// still reports success: the money has been spent and the identity exists.
func (ps *ProductService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	dataHash := hashing.ComputeHash(hashing.ProductFields{
		Name:         in.Name,
		Manufacturer: in.Manufacturer,
		Origin:       in.Origin,
		Description:  in.Description,
	})

	created, err := ps.ledger.CreateProduct(ctx, in.Name, in.Manufacturer, in.Origin, in.Description, dataHash)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			metrics.LedgerUnavailable.Inc()
		}
		return nil, fmt.Errorf("ledger registration failed: %w", err)
	}

	metrics.ProductsRegistered.Inc()

	product := &model.Product{
		LedgerID:     created.LedgerID,
		Name:         in.Name,
		Manufacturer: in.Manufacturer,
		Origin:       in.Origin,
		Description:  in.Description,
		OwnerAddress: created.Owner,
		DataHash:     dataHash,
	}
	product.InitMeta()

	result := &RegisterResult{
		Product:     product,
		TxHash:      created.TxHash,
		BlockNumber: created.BlockNumber,
		GasUsed:     created.GasUsed,
		Mirrored:    true,
	}

	if _, err := ps.docs.Create(ctx, product); err != nil {
		slog.Error("Failed to mirror registered product, recording reconcile task",
			slog.String("ledger_id", created.LedgerID),
			slog.Any("err", err))
		ps.recordReconcileTask(ctx, model.TaskMirrorCreate, created.LedgerID)
		result.Mirrored = false
	}

	return result, nil
}

// Fetch merges the document and the on-chain record into a single view. The
// document store is the hard dependency; an unreachable ledger degrades the
// view instead of failing it, with BlockchainDataAvailable and IsVerified off.
func (ps *ProductService) Fetch(ctx context.Context, ledgerID string) (*model.ProductView, error) {
	doc, err := ps.docs.GetByLedgerID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	view := &model.ProductView{
		Product: *doc,
		ComputedHash: hashing.ComputeHash(hashing.ProductFields{
			Name:         doc.Name,
			Manufacturer: doc.Manufacturer,
			Origin:       doc.Origin,
			Description:  doc.Description,
		}),
	}

	record, err := ps.ledger.GetProduct(ctx, ledgerID)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			metrics.LedgerUnavailable.Inc()
		}
		slog.Warn("Ledger read failed, serving degraded view",
			slog.String("ledger_id", ledgerID),
			slog.Any("err", err))
		return view, nil
	}

	view.BlockchainDataAvailable = true
	view.LedgerDataHash = record.DataHash
	view.CreateTime = record.CreateTime
	view.UpdateTime = record.UpdateTime
	// the ledger is authoritative for ownership
	view.OwnerAddress = record.Owner
	view.IsVerified = view.ComputedHash == record.DataHash
	if !view.IsVerified {
		metrics.HashMismatches.Inc()
		slog.Warn("Content hash mismatch",
			slog.String("ledger_id", ledgerID),
			slog.String("computed", view.ComputedHash),
			slog.String("on_ledger", record.DataHash))
	}

	return view, nil
}

// TransferResult reports a completed ownership transfer.
type TransferResult struct {
	TxHash   string
	NewOwner string
	Mirrored bool
}

// Transfer moves ownership on the ledger, then mirrors the new owner and a
// Transferred status into the document. A mirror failure records a reconcile
// task; the transfer itself has already happened and is reported as done.
func (ps *ProductService) Transfer(ctx context.Context, ledgerID, to string) (*TransferResult, error) {
	if !common.IsHexAddress(to) {
		return nil, fmt.Errorf("%w: %q is not a valid recipient address", ErrValidation, to)
	}

	doc, err := ps.docs.GetByLedgerID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	txHash, err := ps.ledger.TransferProduct(ctx, to, ledgerID)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			metrics.LedgerUnavailable.Inc()
		}
		return nil, fmt.Errorf("ledger transfer failed: %w", err)
	}

	metrics.ProductsTransferred.Inc()

	result := &TransferResult{TxHash: txHash, NewOwner: to, Mirrored: true}

	status := string(model.StatusTransferred)
	if err := ps.docs.Update(ctx, doc.DocumentID, store.Partial{
		OwnerAddress: &to,
		Status:       &status,
	}); err != nil {
		slog.Error("Failed to mirror ownership transfer, recording reconcile task",
			slog.String("ledger_id", ledgerID),
			slog.Any("err", err))
		ps.recordReconcileTask(ctx, model.TaskMirrorTransfer, ledgerID)
		result.Mirrored = false
	}

	return result, nil
}

// UpdateInput is a field-merge edit: only non-nil fields change.
type UpdateInput struct {
	Name         *string
	Manufacturer *string
	Origin       *string
	Description  *string
	Status       *string
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.Manufacturer == nil && in.Origin == nil &&
		in.Description == nil && in.Status == nil
}

// UpdateResult reports a completed product update. TxHash is empty when the
// edit did not touch any hashed field and no ledger write was needed.
type UpdateResult struct {
	TxHash   string
	DataHash string
	Mirrored bool
}

// Update merges the proposed changes over the current document, recomputes the
// content hash and anchors it on the ledger before touching the document. A
// ledger failure aborts the whole edit with the store untouched, so the two
// sides never diverge by construction. Status-only edits skip the ledger: the
// hash does not cover status.
func (ps *ProductService) Update(ctx context.Context, ledgerID string, in UpdateInput) (*UpdateResult, error) {
	if in.empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	doc, err := ps.docs.GetByLedgerID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	merged := hashing.ProductFields{
		Name:         doc.Name,
		Manufacturer: doc.Manufacturer,
		Origin:       doc.Origin,
		Description:  doc.Description,
	}
	if in.Name != nil {
		merged.Name = *in.Name
	}
	if in.Manufacturer != nil {
		merged.Manufacturer = *in.Manufacturer
	}
	if in.Origin != nil {
		merged.Origin = *in.Origin
	}
	if in.Description != nil {
		merged.Description = *in.Description
	}

	newHash := hashing.ComputeHash(merged)
	result := &UpdateResult{DataHash: newHash, Mirrored: true}

	if newHash != doc.DataHash {
		txHash, err := ps.ledger.UpdateProductHash(ctx, ledgerID, newHash)
		if err != nil {
			if errors.Is(err, ledger.ErrUnavailable) {
				metrics.LedgerUnavailable.Inc()
			}
			return nil, fmt.Errorf("ledger hash update failed: %w", err)
		}
		result.TxHash = txHash
	}

	partial := store.Partial{
		Name:         in.Name,
		Manufacturer: in.Manufacturer,
		Origin:       in.Origin,
		Description:  in.Description,
		Status:       in.Status,
	}
	if newHash != doc.DataHash {
		partial.DataHash = &newHash
	}

	metrics.ProductsUpdated.Inc()

	if err := ps.docs.Update(ctx, doc.DocumentID, partial); err != nil {
		slog.Error("Failed to mirror product update, recording reconcile task",
			slog.String("ledger_id", ledgerID),
			slog.Any("err", err))
		ps.recordReconcileTask(ctx, model.TaskMirrorUpdate, ledgerID)
		result.Mirrored = false
	}

	return result, nil
}

// VerifyResult is the public tamper-evidence report for a presented hash.
type VerifyResult struct {
	LedgerID                string
	ComputedHash            string
	LedgerDataHash          string
	BlockchainDataAvailable bool
	MatchesStore            bool
	MatchesLedger           bool
}

// Verify checks a presented content hash against both sides. MatchesLedger is
// only meaningful when the ledger was reachable.
func (ps *ProductService) Verify(ctx context.Context, ledgerID, presentedHash string) (*VerifyResult, error) {
	if presentedHash == "" {
		return nil, fmt.Errorf("%w: hash is required", ErrValidation)
	}

	view, err := ps.Fetch(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		LedgerID:                ledgerID,
		ComputedHash:            view.ComputedHash,
		LedgerDataHash:          view.LedgerDataHash,
		BlockchainDataAvailable: view.BlockchainDataAvailable,
		MatchesStore:            presentedHash == view.ComputedHash,
		MatchesLedger:           view.BlockchainDataAvailable && presentedHash == view.LedgerDataHash,
	}, nil
}

// List returns a page of mirrored documents for the dashboard.
func (ps *ProductService) List(ctx context.Context, query repository.Query) ([]*model.Product, error) {
	return ps.docs.List(ctx, query)
}

// recordReconcileTask durably records a failed mirror write. If even the task
// insert fails the inconsistency is logged at error level as the last resort.
func (ps *ProductService) recordReconcileTask(ctx context.Context, action model.TaskAction, ledgerID string) {
	task := &model.ReconcileTask{
		Action:   action,
		LedgerID: ledgerID,
	}
	task.InitMeta()

	if err := ps.tasks.Create(ctx, task); err != nil {
		slog.Error("Failed to record reconcile task, mirror is orphaned",
			slog.String("action", string(action)),
			slog.String("ledger_id", ledgerID),
			slog.Any("err", err))
		return
	}
	metrics.ReconcileTasksEnqueued.Inc()
}
