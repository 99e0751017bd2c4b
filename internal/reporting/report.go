package reporting

import (
	"time"

	"mev-inspector/internal/storage"
)

// Report summarises the sandwiches matching a filter.
type Report struct {
	GeneratedAt time.Time
	Filter      storage.SandwichFilter

	Summary Summary

	// Per profit token, sorted by token address.
	ByToken []TokenProfitRow

	// One row per sandwich, sorted by (block_number, id).
	Sandwiches []SandwichRow
}

// Summary contains totals across all reported sandwiches.
type Summary struct {
	Sandwiches int
	Victims    int
	Enriched   int
	FirstBlock uint64
	LastBlock  uint64
	// TotalProfitUSD sums enriched sandwiches only.
	TotalProfitUSD string
}

// TokenProfitRow aggregates profit for one profit token.
type TokenProfitRow struct {
	TokenAddress  string
	Sandwiches    int
	Enriched      int
	ProfitDecimal string
	ProfitUSD     string
}

// SandwichRow is one exported sandwich.
type SandwichRow struct {
	ID                  string `csv:"id"`
	BlockNumber         uint64 `csv:"block_number"`
	SandwicherAddress   string `csv:"sandwicher_address"`
	PoolAddress         string `csv:"pool_address"`
	FrontrunTx          string `csv:"frontrun_transaction_hash"`
	BackrunTx           string `csv:"backrun_transaction_hash"`
	Victims             int    `csv:"victims"`
	VictimTxs           string `csv:"victim_transaction_hashes"`
	ProfitTokenAddress  string `csv:"profit_token_address"`
	ProfitAmount        string `csv:"profit_amount"`
	ProfitAmountDecimal string `csv:"profit_amount_decimal"`
	ProfitAmountUSD     string `csv:"profit_amount_usd"`
}
