package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// productCreatedEvent is the log payload emitted by the registry on creation.
const productCreatedEvent = "ProductCreated"

// Record is the normalized on-chain product state. All wide-integer fields are
// decimal strings; CreateTime and UpdateTime are seconds since epoch.
type Record struct {
	ID           string
	Name         string
	Manufacturer string
	Origin       string
	DataHash     string
	Owner        string
	CreateTime   string
	UpdateTime   string
	Status       string
}

// CreateResult carries the chain-assigned identity emitted by a successful
// registration.
type CreateResult struct {
	TxHash      string
	LedgerID    string
	Owner       string
	BlockNumber uint64
	GasUsed     uint64
}

type productCreated struct {
	Id       *big.Int
	Owner    common.Address
	DataHash string
}

// CreateProduct submits the registration transaction and blocks until it is
// mined, then surfaces the emitted creation event. The caller pays the network
// fee; a mined write is irreversible even if later mirror steps fail.
func (c *Client) CreateProduct(ctx context.Context, name, manufacturer, origin, description, dataHash string) (*CreateResult, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	opts, err := c.transactOpts(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := c.registry.Transact(opts, "createProduct", name, manufacturer, origin, description, dataHash)
	if err != nil {
		return nil, fmt.Errorf("%w: createProduct rejected: %s", ErrUnavailable, err.Error())
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("%w: waiting for createProduct receipt: %s", ErrUnavailable, err.Error())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("createProduct transaction %s reverted", tx.Hash().Hex())
	}

	event, err := c.decodeProductCreated(receipt)
	if err != nil {
		return nil, err
	}

	return &CreateResult{
		TxHash:      tx.Hash().Hex(),
		LedgerID:    normalizeBig(event.Id),
		Owner:       event.Owner.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}

func (c *Client) decodeProductCreated(receipt *types.Receipt) (*productCreated, error) {
	eventID := c.registryABI.Events[productCreatedEvent].ID
	for _, lg := range receipt.Logs {
		if lg.Address != c.registryAddr || len(lg.Topics) == 0 || lg.Topics[0] != eventID {
			continue
		}
		var event productCreated
		if err := c.registry.UnpackLog(&event, productCreatedEvent, *lg); err != nil {
			return nil, fmt.Errorf("failed to decode %s event: %w", productCreatedEvent, err)
		}
		return &event, nil
	}
	return nil, fmt.Errorf("transaction %s emitted no %s event", receipt.TxHash.Hex(), productCreatedEvent)
}

// GetProduct reads the current on-chain state for an identifier. A contract
// revert surfaces as ErrNotFound, transport failures as ErrUnavailable.
func (c *Client) GetProduct(ctx context.Context, id string) (*Record, error) {
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	idBig, err := parseLedgerID(id)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := c.registry.Call(&bind.CallOpts{Context: ctx}, &out, "getProduct", idBig); err != nil {
		return nil, classifyCallError(err)
	}
	if len(out) != 9 {
		return nil, fmt.Errorf("getProduct returned %d values, want 9", len(out))
	}

	dec := callOutputs{method: "getProduct", out: out}
	record := &Record{
		ID:           dec.bigAt(0),
		Name:         dec.stringAt(1),
		Manufacturer: dec.stringAt(2),
		Origin:       dec.stringAt(3),
		DataHash:     dec.stringAt(4),
		Owner:        dec.addressAt(5),
		CreateTime:   dec.bigAt(6),
		UpdateTime:   dec.bigAt(7),
		Status:       dec.stringAt(8),
	}
	if dec.err != nil {
		return nil, dec.err
	}
	return record, nil
}

// TransferProduct changes on-chain ownership and blocks until mined. Returns
// the transaction hash.
func (c *Client) TransferProduct(ctx context.Context, to, id string) (string, error) {
	if err := c.ensureConnected(); err != nil {
		return "", err
	}
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid recipient address: %q", to)
	}

	idBig, err := parseLedgerID(id)
	if err != nil {
		return "", err
	}

	opts, err := c.transactOpts(ctx)
	if err != nil {
		return "", err
	}

	tx, err := c.registry.Transact(opts, "transferProduct", common.HexToAddress(to), idBig)
	if err != nil {
		return "", fmt.Errorf("%w: transferProduct rejected: %s", ErrUnavailable, err.Error())
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return "", fmt.Errorf("%w: waiting for transferProduct receipt: %s", ErrUnavailable, err.Error())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("transferProduct transaction %s reverted", tx.Hash().Hex())
	}

	return tx.Hash().Hex(), nil
}

// UpdateProductHash stores a new content hash for an identifier and blocks
// until mined. Returns the transaction hash.
func (c *Client) UpdateProductHash(ctx context.Context, id, newHash string) (string, error) {
	if err := c.ensureConnected(); err != nil {
		return "", err
	}

	idBig, err := parseLedgerID(id)
	if err != nil {
		return "", err
	}

	opts, err := c.transactOpts(ctx)
	if err != nil {
		return "", err
	}

	tx, err := c.registry.Transact(opts, "updateProductHash", idBig, newHash)
	if err != nil {
		return "", fmt.Errorf("%w: updateProductHash rejected: %s", ErrUnavailable, err.Error())
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return "", fmt.Errorf("%w: waiting for updateProductHash receipt: %s", ErrUnavailable, err.Error())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("updateProductHash transaction %s reverted", tx.Hash().Hex())
	}

	return tx.Hash().Hex(), nil
}
