package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus is an open vocabulary: the ledger and the document store are not
// forced to agree on it, and the dashboard adds its own transit states.
type ProductStatus string

const (
	// StatusActive is the initial status assigned at registration.
	StatusActive ProductStatus = "Active"
	// StatusInactive marks a product that is no longer tracked.
	StatusInactive ProductStatus = "Inactive"
	// StatusTransferred is set after a successful ownership transfer.
	StatusTransferred ProductStatus = "Transferred"
	// StatusInTransit is a dashboard-only shipping state.
	StatusInTransit ProductStatus = "In-Transit"
	// StatusDelivered is a dashboard-only shipping state.
	StatusDelivered ProductStatus = "Delivered"
	// StatusDamaged is a dashboard-only shipping state.
	StatusDamaged ProductStatus = "Damaged"
	// StatusRecalled is a dashboard-only shipping state.
	StatusRecalled ProductStatus = "Recalled"
)

// Product is the document-store side of a tracked product. The ledger is
// authoritative for LedgerID, OwnerAddress and DataHash; everything else lives
// only here.
type Product struct {
	DocumentID   uuid.UUID
	LedgerID     string
	Name         string
	Manufacturer string
	Origin       string
	Description  string
	Status       ProductStatus
	OwnerAddress string
	DataHash     string
	UpdatedAt    time.Time
	CreatedAt    time.Time
}

// InitMeta initializes the document metadata including ID and timestamps.
func (p *Product) InitMeta() {
	p.DocumentID = uuid.New()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = StatusActive
	}
}

// ProductView is the merged ledger + document-store read model returned to the
// dashboard. CreateTime and UpdateTime are ledger-assigned seconds since epoch,
// carried as decimal strings; they are empty when the ledger was unreachable.
type ProductView struct {
	Product

	BlockchainDataAvailable bool
	IsVerified              bool
	ComputedHash            string
	LedgerDataHash          string
	CreateTime              string
	UpdateTime              string
}
