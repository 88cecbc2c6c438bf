package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role names understood by the access-control contract.
const (
	RoleManufacturer = "MANUFACTURER_ROLE"
	RoleDistributor  = "DISTRIBUTOR_ROLE"
	RoleAdmin        = "ADMIN_ROLE"
)

// HasRole asks the access-control contract whether an account holds a role.
// Role names are keccak-hashed to the contract's bytes32 role identifiers.
func (c *Client) HasRole(ctx context.Context, account, role string) (bool, error) {
	if err := c.ensureConnected(); err != nil {
		return false, err
	}
	if !common.IsHexAddress(account) {
		return false, fmt.Errorf("invalid account address: %q", account)
	}

	roleID := crypto.Keccak256Hash([]byte(role))

	var out []interface{}
	if err := c.access.Call(&bind.CallOpts{Context: ctx}, &out, "hasRole", roleID, common.HexToAddress(account)); err != nil {
		return false, classifyCallError(err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("hasRole returned %d values, want 1", len(out))
	}

	dec := callOutputs{method: "hasRole", out: out}
	granted := dec.boolAt(0)
	if dec.err != nil {
		return false, dec.err
	}
	return granted, nil
}

// Agreement is the normalized on-chain supply agreement. The agreement
// contract is bound at startup but plays no part in the reconciliation flow.
type Agreement struct {
	ID        string
	ProductID string
	Buyer     string
	Seller    string
	Terms     string
	CreatedAt string
	Active    bool
}

// GetAgreement reads a supply agreement by identifier.
func (c *Client) GetAgreement(ctx context.Context, id string) (*Agreement, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	idBig, err := parseLedgerID(id)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := c.agreement.Call(&bind.CallOpts{Context: ctx}, &out, "getAgreement", idBig); err != nil {
		return nil, classifyCallError(err)
	}
	if len(out) != 7 {
		return nil, fmt.Errorf("getAgreement returned %d values, want 7", len(out))
	}

	dec := callOutputs{method: "getAgreement", out: out}
	agreement := &Agreement{
		ID:        dec.bigAt(0),
		ProductID: dec.bigAt(1),
		Buyer:     dec.addressAt(2),
		Seller:    dec.addressAt(3),
		Terms:     dec.stringAt(4),
		CreatedAt: dec.bigAt(5),
		Active:    dec.boolAt(6),
	}
	if dec.err != nil {
		return nil, dec.err
	}
	return agreement, nil
}
