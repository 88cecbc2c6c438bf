package model

import "time"

// TransactionEntry is one historical product-creation event, decorated with
// block, transaction and receipt data. FeeWei is a decimal string because fees
// do not fit in an int64 on chains with high gas prices.
type TransactionEntry struct {
	TxHash      string
	LedgerID    string
	Owner       string
	Sender      string
	BlockNumber uint64
	Timestamp   time.Time
	FeeWei      string
	ProductName string
	Status      string
}
