// Package ledger wraps the JSON-RPC connection to the chain and the three
// deployed contracts (product registry, access control, supply agreement).
//
// Two rules hold at this boundary: wide integers never escape as *big.Int
// (they are normalized to decimal strings) and every failed call is classified
// as either ErrNotFound or ErrUnavailable so the reconciliation service can
// tell a genuine miss from a dead node.
package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/chaintrack/backend/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client is the process-wide connection manager for the ledger. It is
// constructed once at startup and passed by reference to every component that
// needs it; Connect is lazy and idempotent.
type Client struct {
	cfg config.ChainConfig

	// dialFn is swapped out in tests
	dialFn func(ctx context.Context, url string) (*ethclient.Client, error)

	mu        sync.Mutex
	connected bool

	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	account common.Address

	registryAddr common.Address
	registryABI  abi.ABI
	registry     *bind.BoundContract

	accessABI abi.ABI
	access    *bind.BoundContract

	agreementABI abi.ABI
	agreement    *bind.BoundContract
}

// NewClient creates an unconnected ledger client.
func NewClient(cfg config.ChainConfig) *Client {
	return &Client{
		cfg: cfg,
		dialFn: func(ctx context.Context, url string) (*ethclient.Client, error) {
			return ethclient.DialContext(ctx, url)
		},
	}
}

// Connect dials the RPC endpoint, loads the contract artifacts and binds the
// three contracts. A second call is a no-op returning the cached success
// state; there is no reconnect path, the handle lives until process exit.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	eth, err := c.dialFn(ctx, c.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("%w: failed to dial %s: %s", ErrUnavailable, c.cfg.RPCURL, err.Error())
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return fmt.Errorf("%w: failed to fetch chain id: %s", ErrUnavailable, err.Error())
	}

	if c.cfg.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(c.cfg.PrivateKey, "0x"))
		if err != nil {
			eth.Close()
			return fmt.Errorf("invalid signing key: %w", err)
		}
		c.key = key
		c.account = crypto.PubkeyToAddress(key.PublicKey)
	}

	addrs, err := LoadAddresses(c.cfg.AddressesPath)
	if err != nil {
		eth.Close()
		return err
	}

	registryABI, err := LoadABI(c.cfg.ArtifactsDir, ProductRegistryContract)
	if err != nil {
		eth.Close()
		return err
	}
	accessABI, err := LoadABI(c.cfg.ArtifactsDir, AccessControlContract)
	if err != nil {
		eth.Close()
		return err
	}
	agreementABI, err := LoadABI(c.cfg.ArtifactsDir, SupplyAgreementContract)
	if err != nil {
		eth.Close()
		return err
	}

	c.eth = eth
	c.chainID = chainID
	c.registryAddr = common.HexToAddress(addrs.ProductRegistry)
	c.registryABI = registryABI
	c.registry = bind.NewBoundContract(c.registryAddr, registryABI, eth, eth, eth)
	c.accessABI = accessABI
	c.access = bind.NewBoundContract(common.HexToAddress(addrs.AccessControl), accessABI, eth, eth, eth)
	c.agreementABI = agreementABI
	c.agreement = bind.NewBoundContract(common.HexToAddress(addrs.SupplyAgreement), agreementABI, eth, eth, eth)
	c.connected = true

	slog.Info("ledger client connected",
		slog.String("rpc_url", c.cfg.RPCURL),
		slog.String("chain_id", chainID.String()),
		slog.String("registry", addrs.ProductRegistry),
		slog.Bool("signing_enabled", c.key != nil),
	)

	return nil
}

// CurrentAccount returns the signing account address or fails when no key is
// configured.
func (c *Client) CurrentAccount() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return "", ErrNotConnected
	}
	if c.key == nil {
		return "", ErrNoSigningKey
	}
	return c.account.Hex(), nil
}

func (c *Client) ensureConnected() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if c.key == nil {
		return nil, ErrNoSigningKey
	}
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transact opts: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

// normalizeBig converts a wide integer to a decimal string at the adapter
// boundary. Raw *big.Int values must not cross into application code.
func normalizeBig(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// parseLedgerID converts a decimal-string identifier back to the contract's
// numeric domain.
func parseLedgerID(id string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(id, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid ledger id: %q", id)
	}
	return v, nil
}

// callOutputs decodes a contract call's return slice, checking each concrete
// type against what the bundled artifact promises. A deployed contract whose
// return shape drifted from the artifact surfaces as an error, not a panic.
// The first mismatch sticks in err.
type callOutputs struct {
	method string
	out    []interface{}
	err    error
}

func (o *callOutputs) bigAt(i int) string {
	if o.err != nil {
		return "0"
	}
	v, ok := o.out[i].(*big.Int)
	if !ok {
		o.err = o.mismatch(i, "*big.Int")
		return "0"
	}
	return normalizeBig(v)
}

func (o *callOutputs) stringAt(i int) string {
	if o.err != nil {
		return ""
	}
	v, ok := o.out[i].(string)
	if !ok {
		o.err = o.mismatch(i, "string")
		return ""
	}
	return v
}

func (o *callOutputs) addressAt(i int) string {
	if o.err != nil {
		return ""
	}
	v, ok := o.out[i].(common.Address)
	if !ok {
		o.err = o.mismatch(i, "common.Address")
		return ""
	}
	return v.Hex()
}

func (o *callOutputs) boolAt(i int) bool {
	if o.err != nil {
		return false
	}
	v, ok := o.out[i].(bool)
	if !ok {
		o.err = o.mismatch(i, "bool")
		return false
	}
	return v
}

func (o *callOutputs) mismatch(i int, want string) error {
	return fmt.Errorf("%s output %d is %T, want %s", o.method, i, o.out[i], want)
}
