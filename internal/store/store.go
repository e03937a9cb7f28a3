// Package store defines the thin contract the session engine consumes
// from the external tabular persistence layer (spec.md §4.6). The
// core treats it purely as a synchronous query/mutation interface;
// schema, SQL, and migration are out of scope per spec.md §1 — this
// package and its two implementations are the "external collaborator"
// the spec leaves to be supplied.
package store

// AccountSummary mirrors get_account_summary's return shape.
type AccountSummary struct {
	AccountID      string
	NetLiquidation float64
	CashBalance    float64
	UnrealizedPnL  float64
	RealizedPnL    float64
	BaseCurrency   string
}

// Position mirrors one row from get_positions.
type Position struct {
	ConID         int64
	Symbol        string
	SecurityType  string
	Currency      string
	Position      float64
	AvgCost       float64
	MarketPrice   float64
	MarketValue   float64
	UnrealizedPnL float64
	RealizedPnL   float64
}

// Order mirrors one row from get_open_orders.
type Order struct {
	OrderID       int64
	AccountID     string
	ClientID      int64
	PermID        int64
	ParentID      int64
	ConID         int64
	Symbol        string
	SecurityType  string
	Exchange      string
	Action        string
	OrderType     string
	TotalQuantity float64
	FilledQty     float64
	LimitPrice    float64
	AuxPrice      float64
	Status        string
	TIF           string
}

// Contract mirrors one row from get_contract_by_symbol.
type Contract struct {
	ConID        int64
	Symbol       string
	SecurityType string
	Exchange     string
	Currency     string
	LocalSymbol  string
	TradingClass string
	Multiplier   int64
}

// Execution mirrors a fill record, accepted by the RecordExecution
// extension point. No handler in the dispatched subset calls
// RecordExecution.
type Execution struct {
	ExecID        string
	OrderID       int64
	AccountID     string
	ConID         int64
	Symbol        string
	Side          string // BOT, SLD
	Shares        float64
	Price         float64
	Commission    float64
	RealizedPnL   float64
	ExecTime      string
}

// Store is the interface the core consumes from the persistence
// layer. All methods are synchronous and must be safe for concurrent
// use by multiple sessions (spec.md §4.6's concurrency expectation).
type Store interface {
	GetAccountSummary(accountID string) (AccountSummary, bool, error)
	GetPositions(accountID string) ([]Position, error)
	GetOpenOrders(accountID string) ([]Order, error)
	GetContractBySymbol(symbol, secType string) (Contract, bool, error)

	// Present for extension per spec.md §4.6; not invoked by the
	// dispatched message subset except where SPEC_FULL.md's order
	// lifecycle extension wires them in.
	CreateOrder(o Order) error
	UpdateOrderStatus(orderID int64, status string, filled, remaining, avgFillPrice float64) error
	RecordExecution(e Execution) error
	UpdateMarketData(conID int64, bid, ask, last float64) error
	UpdatePosition(accountID string, p Position) error

	Close() error
}
