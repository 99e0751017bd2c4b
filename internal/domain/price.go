package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Price is one fiat quote for a token at a point in time.
type Price struct {
	TokenAddress common.Address
	Timestamp    time.Time
	USDPrice     decimal.Decimal
}

// Block carries a block's timestamp and its decoded call traces.
type Block struct {
	Number    uint64
	Timestamp time.Time
	Traces    []*DecodedCallTrace
}
