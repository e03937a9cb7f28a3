package ibproto

import "github.com/ibsim/gateway/internal/wire"

// Builders below reproduce, field for field, the positional orders
// given in spec.md §6 and completed from the original Python encoder
// (_examples/original_source/ib_simulator/protocol/encoder.py) where
// spec.md called its list "representative, not exhaustive".

func TickPrice(reqID int64, tickType int, price float64, canAutoExecute, pastLimit bool) []byte {
	return wire.Frame(OutTickPrice, []wire.Field{
		wire.Int(reqID), wire.IntV(tickType), wire.Float(price),
		wire.Bool(canAutoExecute), wire.Bool(pastLimit),
	})
}

func TickSize(reqID int64, tickType int, size int64) []byte {
	return wire.Frame(OutTickSize, []wire.Field{
		wire.Int(reqID), wire.IntV(tickType), wire.Int(size),
	})
}

func TickString(reqID int64, tickType int, value string) []byte {
	return wire.Frame(OutTickString, []wire.Field{
		wire.Int(reqID), wire.IntV(tickType), wire.Str(value),
	})
}

func TickGeneric(reqID int64, tickType int, value float64) []byte {
	return wire.Frame(OutTickGeneric, []wire.Field{
		wire.Int(reqID), wire.IntV(tickType), wire.Float(value),
	})
}

func MarketDataType(reqID int64, mdType int64) []byte {
	return wire.Frame(OutMarketDataType, []wire.Field{wire.Int(reqID), wire.Int(mdType)})
}

func NextValidID(orderID int64) []byte {
	return wire.Frame(OutNextValidId, []wire.Field{wire.Int(orderID)})
}

func ManagedAccounts(accounts string) []byte {
	return wire.Frame(OutManagedAccts, []wire.Field{wire.Str(accounts)})
}

func ErrMsg(reqID int64, code int, msg string) []byte {
	return wire.Frame(OutErrMsg, []wire.Field{wire.Int(reqID), wire.IntV(code), wire.Str(msg)})
}

func AcctValue(key, value, currency, account string) []byte {
	return wire.Frame(OutAcctValue, []wire.Field{
		wire.Str(key), wire.Str(value), wire.Str(currency), wire.Str(account),
	})
}

type PortfolioValueView struct {
	Contract      Contract
	PrimaryExch   string
	Position      float64
	MarketPrice   float64
	MarketValue   float64
	AvgCost       float64
	UnrealizedPnL float64
	RealizedPnL   float64
	Account       string
}

func PortfolioValue(v PortfolioValueView) []byte {
	c := v.Contract
	return wire.Frame(OutPortfolioValue, []wire.Field{
		wire.Int(c.ConID), wire.Str(c.Symbol), wire.Str(c.SecType), wire.Str(c.Expiry),
		wire.Float(c.Strike), wire.Str(c.Right), wire.Int(c.Multiplier),
		wire.Str(v.PrimaryExch), wire.Str(c.Currency), wire.Str(c.LocalSymbol), wire.Str(c.TradingClass),
		wire.Float(v.Position), wire.Float(v.MarketPrice), wire.Float(v.MarketValue), wire.Float(v.AvgCost),
		wire.Float(v.UnrealizedPnL), wire.Float(v.RealizedPnL), wire.Str(v.Account),
	})
}

func AcctUpdateTime(ts string) []byte {
	return wire.Frame(OutAcctUpdateTime, []wire.Field{wire.Str(ts)})
}

func AcctDownloadEnd(account string) []byte {
	return wire.Frame(OutAcctDownloadEnd, []wire.Field{wire.Str(account)})
}

type PositionDataView struct {
	Account  string
	Contract Contract
	Exchange string
	Position float64
	AvgCost  float64
}

func PositionData(v PositionDataView) []byte {
	c := v.Contract
	return wire.Frame(OutPositionData, []wire.Field{
		wire.Str(v.Account), wire.Int(c.ConID), wire.Str(c.Symbol), wire.Str(c.SecType),
		wire.Str(c.Expiry), wire.Float(c.Strike), wire.Str(c.Right), wire.Int(c.Multiplier),
		wire.Str(v.Exchange), wire.Str(c.Currency), wire.Str(c.LocalSymbol), wire.Str(c.TradingClass),
		wire.Float(v.Position), wire.Float(v.AvgCost),
	})
}

func PositionEnd() []byte {
	return wire.Frame(OutPositionEnd, nil)
}

func PositionMulti(account, modelCode string, v PositionDataView) []byte {
	c := v.Contract
	return wire.Frame(OutPositionMulti, []wire.Field{
		wire.Str(account), wire.Int(c.ConID), wire.Str(c.Symbol), wire.Str(c.SecType),
		wire.Str(c.Expiry), wire.Float(c.Strike), wire.Str(c.Right), wire.Int(c.Multiplier),
		wire.Str(v.Exchange), wire.Str(c.Currency), wire.Str(c.LocalSymbol), wire.Str(c.TradingClass),
		wire.Float(v.Position), wire.Float(v.AvgCost), wire.Str(modelCode),
	})
}

func PositionMultiEnd(reqID int64) []byte {
	return wire.Frame(OutPositionMultiEnd, []wire.Field{wire.Int(reqID)})
}

func OrderStatus(orderID int64, status string, filled, remaining, avgFillPrice float64,
	permID, parentID int64, lastFillPrice float64, clientID int64, whyHeld string, mktCapPrice float64) []byte {
	return wire.Frame(OutOrderStatus, []wire.Field{
		wire.Int(orderID), wire.Str(status), wire.Float(filled), wire.Float(remaining),
		wire.Float(avgFillPrice), wire.Int(permID), wire.Int(parentID), wire.Float(lastFillPrice),
		wire.Int(clientID), wire.Str(whyHeld), wire.Float(mktCapPrice),
	})
}

func OpenOrderEnd() []byte {
	return wire.Frame(OutOpenOrderEnd, nil)
}

// OpenOrderView carries the subset of the vendor's (enormous) OPEN_ORDER
// payload the simulator actually varies per order; the remainder is
// sent as the same defaults the original Python encoder used, since a
// faithful emulator is not a production-grade matcher (spec.md §1).
type OpenOrderView struct {
	OrderID  int64
	Contract Contract
	Order    Order
	ClientID int64
	PermID   int64
}

func OpenOrder(v OpenOrderView) []byte {
	c, o := v.Contract, v.Order
	fields := []wire.Field{
		wire.Int(v.OrderID), wire.Int(c.ConID), wire.Str(c.Symbol), wire.Str(c.SecType),
		wire.Str(c.Expiry), wire.Float(c.Strike), wire.Str(c.Right), wire.Int(c.Multiplier),
		wire.Str(c.Exchange), wire.Str(c.Currency), wire.Str(c.LocalSymbol), wire.Str(c.TradingClass),
		wire.Str(o.Action), wire.Float(o.TotalQuantity), wire.Str(o.OrderType),
		wire.Float(o.LimitPrice), wire.Float(o.AuxPrice), wire.Str(o.TIF), wire.Str(o.OCAGroup),
		wire.Str(o.Account), wire.Str(o.OpenClose), wire.Int(o.Origin), wire.Str(o.OrderRef),
		wire.Int(v.ClientID), wire.Int(v.PermID),
		// remainder: defaults, matching the original simulator's stub
		wire.Bool(false), wire.Bool(false), wire.Float(0), wire.Str(""),
		wire.Str(""), wire.Str(""), wire.Str(""), wire.Str(""), wire.Str(""),
		wire.Str(""), wire.Str(""), wire.Float(0), wire.Str(""),
		wire.IntV(0), wire.Str(""), wire.IntV(0),
	}
	return wire.Frame(OutOpenOrder, fields)
}

type ExecutionView struct {
	ReqID             int64
	OrderID           int64
	Contract          Contract
	ExecID            string
	Time              string
	Account           string
	ExecutionExchange string
	Side              string
	Shares            float64
	Price             float64
	PermID            int64
	ClientID          int64
	Liquidation       int64
	CumulativeQty     float64
	AvgPrice          float64
	OrderRef          string
	EvRule            string
	EvMultiplier      float64
	ModelCode         string
	LastLiquidity     int64
}

func ExecutionData(v ExecutionView) []byte {
	c := v.Contract
	return wire.Frame(OutExecutionData, []wire.Field{
		wire.Int(v.ReqID), wire.Int(v.OrderID), wire.Int(c.ConID), wire.Str(c.Symbol), wire.Str(c.SecType),
		wire.Str(c.Expiry), wire.Float(c.Strike), wire.Str(c.Right), wire.Int(c.Multiplier),
		wire.Str(c.Exchange), wire.Str(c.Currency), wire.Str(c.LocalSymbol), wire.Str(c.TradingClass),
		wire.Str(v.ExecID), wire.Str(v.Time), wire.Str(v.Account), wire.Str(v.ExecutionExchange),
		wire.Str(v.Side), wire.Float(v.Shares), wire.Float(v.Price), wire.Int(v.PermID), wire.Int(v.ClientID),
		wire.Int(v.Liquidation), wire.Float(v.CumulativeQty), wire.Float(v.AvgPrice), wire.Str(v.OrderRef),
		wire.Str(v.EvRule), wire.Float(v.EvMultiplier), wire.Str(v.ModelCode), wire.Int(v.LastLiquidity),
	})
}

func ExecutionDataEnd(reqID int64) []byte {
	return wire.Frame(OutExecutionDataEnd, []wire.Field{wire.Int(reqID)})
}

// ContractDataView carries the fields of one CONTRACT_DATA response.
type ContractDataView struct {
	ReqID             int64
	Contract          Contract
	MinTick           float64
	MdSizeMultiplier  int64
	OrderTypes        string
	ValidExchanges    string
	PriceMagnifier    int64
	UnderConID        int64
	LongName          string
	PrimaryExchange   string
	ContractMonth     string
	Industry          string
	Category          string
	Subcategory       string
	TimeZone          string
	TradingHours      string
	LiquidHours       string
	EvRule            string
	EvMultiplier      float64
	SecIDListCount    int64
}

func ContractData(v ContractDataView) []byte {
	c := v.Contract
	return wire.Frame(OutContractData, []wire.Field{
		wire.Int(v.ReqID), wire.Str(c.Symbol), wire.Str(c.SecType), wire.Str(c.Expiry),
		wire.Float(c.Strike), wire.Str(c.Right), wire.Str(c.Exchange), wire.Str(c.Currency),
		wire.Str(c.LocalSymbol), wire.Str(c.TradingClass), wire.Int(c.ConID),
		wire.Float(v.MinTick), wire.Int(v.MdSizeMultiplier), wire.Int(c.Multiplier),
		wire.Str(v.OrderTypes), wire.Str(v.ValidExchanges), wire.Int(v.PriceMagnifier),
		wire.Int(v.UnderConID), wire.Str(v.LongName), wire.Str(v.PrimaryExchange),
		wire.Str(v.ContractMonth), wire.Str(v.Industry), wire.Str(v.Category), wire.Str(v.Subcategory),
		wire.Str(v.TimeZone), wire.Str(v.TradingHours), wire.Str(v.LiquidHours),
		wire.Str(v.EvRule), wire.Float(v.EvMultiplier), wire.Int(v.SecIDListCount),
	})
}

func ContractDataEnd(reqID int64) []byte {
	return wire.Frame(OutContractDataEnd, []wire.Field{wire.Int(reqID)})
}

func SecurityDefinitionOptionParameter(reqID int64, exchange string, underlyingConID int64,
	tradingClass string, multiplier int64, expirations []string, strikes []float64) []byte {
	fields := []wire.Field{
		wire.Int(reqID), wire.Str(exchange), wire.Int(underlyingConID), wire.Str(tradingClass),
		wire.Int(multiplier), wire.IntV(len(expirations)),
	}
	for _, e := range expirations {
		fields = append(fields, wire.Str(e))
	}
	fields = append(fields, wire.IntV(len(strikes)))
	for _, s := range strikes {
		fields = append(fields, wire.Float(s))
	}
	return wire.Frame(OutSecurityDefinitionOptionParameter, fields)
}

func SecurityDefinitionOptionParameterEnd(reqID int64) []byte {
	return wire.Frame(OutSecurityDefinitionOptionParameterEnd, []wire.Field{wire.Int(reqID)})
}

type Bar struct {
	Date     string
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	WAP      float64
	BarCount int64
}

func HistoricalData(reqID int64, startDate, endDate string, bars []Bar) []byte {
	fields := []wire.Field{wire.Int(reqID), wire.Str(startDate), wire.Str(endDate), wire.IntV(len(bars))}
	for _, b := range bars {
		fields = append(fields,
			wire.Str(b.Date), wire.Float(b.Open), wire.Float(b.High), wire.Float(b.Low),
			wire.Float(b.Close), wire.Int(b.Volume), wire.Float(b.WAP), wire.Int(b.BarCount),
		)
	}
	return wire.Frame(OutHistoricalData, fields)
}

func CurrentTime(t int64) []byte {
	return wire.Frame(OutCurrentTime, []wire.Field{wire.Int(t)})
}

func CommissionReport(execID string, commission float64, currency string, realizedPnL, yieldVal float64, yieldRedemptionDate string) []byte {
	return wire.Frame(OutCommissionReport, []wire.Field{
		wire.Str(execID), wire.Float(commission), wire.Str(currency),
		wire.Float(realizedPnL), wire.Float(yieldVal), wire.Str(yieldRedemptionDate),
	})
}

func AccountSummary(reqID int64, account, tag, value, currency string) []byte {
	return wire.Frame(OutAccountSummary, []wire.Field{
		wire.Int(reqID), wire.Str(account), wire.Str(tag), wire.Str(value), wire.Str(currency),
	})
}

func AccountSummaryEnd(reqID int64) []byte {
	return wire.Frame(OutAccountSummaryEnd, []wire.Field{wire.Int(reqID)})
}
