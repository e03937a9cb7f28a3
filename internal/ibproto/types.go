package ibproto

// Contract is the shared sub-record carried by every request that
// names an instrument (spec.md §3's Subscription descriptor and §4.3
// design note on sharing a common Contract/Order struct).
type Contract struct {
	ConID            int64
	Symbol           string
	SecType          string // STK, OPT, FUT, CASH, BOND
	Expiry           string
	Strike           float64
	Right            string // C, P, ""
	Multiplier       int64
	Exchange         string
	PrimaryExchange  string
	Currency         string
	LocalSymbol      string
	TradingClass     string
}

// Order is the shared order sub-record.
type Order struct {
	Action         string
	TotalQuantity  float64
	OrderType      string
	LimitPrice     float64
	AuxPrice       float64
	TIF            string
	OCAGroup       string
	Account        string
	OpenClose      string
	Origin         int64
	OrderRef       string
	Transmit       bool
	ParentID       int64
}

// Ticks is a partial market-data update; only the fields that are
// present are emitted, per spec.md §4.4's broadcast sink contract.
type Ticks struct {
	Bid      *float64
	Ask      *float64
	Last     *float64
	BidSize  *int64
	AskSize  *int64
	LastSize *int64
	Volume   *int64
}

// F64 and I64 box a value for use in a Ticks literal.
func F64(f float64) *float64 { return &f }
func I64(i int64) *int64     { return &i }
