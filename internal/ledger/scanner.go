package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"github.com/chaintrack/backend/internal/model"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Scanner queries historical ProductCreated events over a block-range window.
// The window is derived from a blocks-per-day estimate, not from actual block
// timing, so timeframe filters are only approximately correct. The whole
// matched range is fetched eagerly per call.
type Scanner struct {
	client       *Client
	blocksPerDay uint64
}

// NewScanner creates a Scanner over a connected ledger client.
func NewScanner(client *Client, blocksPerDay int) *Scanner {
	if blocksPerDay <= 0 {
		blocksPerDay = 6500
	}
	return &Scanner{
		client:       client,
		blocksPerDay: uint64(blocksPerDay),
	}
}

// Scan returns creation events from roughly the last windowDays days, each
// decorated with block timestamp, transaction sender and receipt fee, sorted
// descending by timestamp.
func (s *Scanner) Scan(ctx context.Context, windowDays int) ([]model.TransactionEntry, error) {
	c := s.client
	if err := c.ensureConnected(); err != nil {
		return nil, err
	}

	head, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch head block: %s", ErrUnavailable, err.Error())
	}

	fromBlock := windowStart(head, s.blocksPerDay, windowDays)

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{c.registryAddr},
		Topics:    [][]common.Hash{{c.registryABI.Events[productCreatedEvent].ID}},
	}

	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to filter logs: %s", ErrUnavailable, err.Error())
	}

	entries := make([]model.TransactionEntry, 0, len(logs))
	for _, lg := range logs {
		entry, err := s.decorate(ctx, lg)
		if err != nil {
			slog.Error("skipping history entry", slog.String("tx_hash", lg.TxHash.Hex()), slog.Any("err", err))
			continue
		}
		entries = append(entries, *entry)
	}

	sortEntriesByTimestampDesc(entries)
	return entries, nil
}

// decorate resolves block, transaction and receipt data for one event. The
// product-state enrichment at the end is best-effort: its failure does not fail
// the entry.
func (s *Scanner) decorate(ctx context.Context, lg types.Log) (*model.TransactionEntry, error) {
	c := s.client

	var event productCreated
	if err := c.registry.UnpackLog(&event, productCreatedEvent, lg); err != nil {
		return nil, fmt.Errorf("failed to decode event: %w", err)
	}

	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch block %d: %w", lg.BlockNumber, err)
	}

	tx, _, err := c.eth.TransactionByHash(ctx, lg.TxHash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction %s: %w", lg.TxHash.Hex(), err)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover sender of %s: %w", lg.TxHash.Hex(), err)
	}

	receipt, err := c.eth.TransactionReceipt(ctx, lg.TxHash)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch receipt %s: %w", lg.TxHash.Hex(), err)
	}
	fee := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), receipt.EffectiveGasPrice)

	entry := &model.TransactionEntry{
		TxHash:      lg.TxHash.Hex(),
		LedgerID:    normalizeBig(event.Id),
		Owner:       event.Owner.Hex(),
		Sender:      sender.Hex(),
		BlockNumber: lg.BlockNumber,
		Timestamp:   time.Unix(int64(header.Time), 0).UTC(),
		FeeWei:      normalizeBig(fee),
	}

	record, err := c.GetProduct(ctx, entry.LedgerID)
	if err != nil {
		slog.Debug("history enrichment failed", slog.String("ledger_id", entry.LedgerID), slog.Any("err", err))
		return entry, nil
	}
	entry.ProductName = record.Name
	entry.Status = record.Status

	return entry, nil
}

// windowStart computes the approximate first block of the window, clamped at
// genesis.
func windowStart(head, blocksPerDay uint64, windowDays int) uint64 {
	if windowDays <= 0 {
		return 0
	}
	span := blocksPerDay * uint64(windowDays)
	if span >= head {
		return 0
	}
	return head - span
}

func sortEntriesByTimestampDesc(entries []model.TransactionEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
