package ledger

import (
	"context"
	"math/big"

	"github.com/chaintrack/backend/internal/model"
	"github.com/ethereum/go-ethereum/ethclient"
)

func ClassifyCallError(err error) error {
	return classifyCallError(err)
}

func NormalizeBig(v *big.Int) string {
	return normalizeBig(v)
}

func ParseLedgerID(id string) (*big.Int, error) {
	return parseLedgerID(id)
}

func WindowStart(head, blocksPerDay uint64, windowDays int) uint64 {
	return windowStart(head, blocksPerDay, windowDays)
}

func SortEntriesByTimestampDesc(entries []model.TransactionEntry) {
	sortEntriesByTimestampDesc(entries)
}

// SetDialFn lets tests count and intercept RPC dials.
func (c *Client) SetDialFn(fn func(ctx context.Context, url string) (*ethclient.Client, error)) {
	c.dialFn = fn
}

type CallOutputs = callOutputs

func NewCallOutputs(method string, out []interface{}) *CallOutputs {
	return &callOutputs{method: method, out: out}
}

func (o *callOutputs) BigAt(i int) string     { return o.bigAt(i) }
func (o *callOutputs) StringAt(i int) string  { return o.stringAt(i) }
func (o *callOutputs) AddressAt(i int) string { return o.addressAt(i) }
func (o *callOutputs) BoolAt(i int) bool      { return o.boolAt(i) }
func (o *callOutputs) Err() error             { return o.err }
