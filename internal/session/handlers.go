package session

import (
	"fmt"
	"time"

	"github.com/ibsim/gateway/internal/gateway"
	"github.com/ibsim/gateway/internal/ibproto"
	"github.com/ibsim/gateway/internal/logging"
	"github.com/ibsim/gateway/internal/store"
)

// dispatch implements spec.md §4.4's dispatch table: one case per
// handled inbound kind, falling through to UNKNOWN_ID for anything
// else (spec.md's "closed set ... any other kind: emit an error
// frame").
func (s *Session) dispatch(kind ibproto.Kind, fields []string) {
	switch kind {
	case ibproto.KindStartApi:
		s.handleStartApi(fields)
	case ibproto.KindReqIds:
		s.writeFrame(ibproto.NextValidID(s.reg.NextOrderID()))
	case ibproto.KindReqManagedAccts:
		s.writeFrame(ibproto.ManagedAccounts(s.cfg.DefaultAccount))
	case ibproto.KindReqAcctData:
		s.handleReqAcctData(fields)
	case ibproto.KindReqPositions:
		s.handleReqPositions()
	case ibproto.KindReqMktData:
		s.handleReqMktData(fields)
	case ibproto.KindCancelMktData:
		s.handleCancelMktData(fields)
	case ibproto.KindPlaceOrder:
		s.handlePlaceOrder(fields)
	case ibproto.KindCancelOrder:
		s.handleCancelOrder(fields)
	case ibproto.KindReqOpenOrders, ibproto.KindReqAllOpenOrders:
		s.handleReqOpenOrders()
	case ibproto.KindReqContractData:
		s.handleReqContractData(fields)
	case ibproto.KindReqSecDefOptParams:
		s.handleReqSecDefOptParams(fields)
	case ibproto.KindReqCurrentTime:
		s.writeFrame(ibproto.CurrentTime(time.Now().Unix()))
	case ibproto.KindReqExecutions:
		s.handleReqExecutions(fields)
	case ibproto.KindReqHistoricalData:
		s.handleReqHistoricalData(fields)
	case ibproto.KindReqPositionsMulti:
		s.handleReqPositionsMulti(fields)
	case ibproto.KindReqAccountSummary:
		s.handleReqAccountSummary(fields)
	case ibproto.KindCancelAccountSummary:
		s.handleCancelAccountSummary(fields)
	case ibproto.KindReqMarketDataType:
		s.handleReqMarketDataType(fields)
	default:
		s.writeFrame(ibproto.ErrMsg(-1, ibproto.ErrUnknownID, fmt.Sprintf("Unknown message ID: %d", kind)))
	}
}

func (s *Session) handleStartApi(fields []string) {
	req, err := ibproto.ParseStartApi(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	if req.HasClientID {
		s.negotiatedClientID.Store(req.ClientID)
	}
	s.writeFrames(
		ibproto.NextValidID(s.reg.NextOrderID()),
		ibproto.ManagedAccounts(s.cfg.DefaultAccount),
	)
}

func (s *Session) handleReqAcctData(fields []string) {
	req, err := ibproto.ParseReqAcctData(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	account := req.AccountCode
	if account == "" {
		account = s.cfg.DefaultAccount
	}

	s.subMu.Lock()
	if req.Subscribe {
		s.accountSubs[account] = true
	} else {
		delete(s.accountSubs, account)
	}
	s.subMu.Unlock()

	if !req.Subscribe {
		s.writeFrame(ibproto.AcctDownloadEnd(account))
		return
	}

	summary, ok, err := s.store.GetAccountSummary(account)
	if err != nil {
		s.storeError(err)
		return
	}
	frames := [][]byte{}
	if ok {
		frames = append(frames,
			ibproto.AcctValue("NetLiquidation", fmt.Sprintf("%.2f", summary.NetLiquidation), summary.BaseCurrency, account),
			ibproto.AcctValue("TotalCashValue", fmt.Sprintf("%.2f", summary.CashBalance), summary.BaseCurrency, account),
			ibproto.AcctValue("UnrealizedPnL", fmt.Sprintf("%.2f", summary.UnrealizedPnL), summary.BaseCurrency, account),
			ibproto.AcctValue("RealizedPnL", fmt.Sprintf("%.2f", summary.RealizedPnL), summary.BaseCurrency, account),
		)
	}
	frames = append(frames, ibproto.AcctUpdateTime(time.Now().Format("15:04")))

	positions, err := s.store.GetPositions(account)
	if err != nil {
		s.storeError(err)
		return
	}
	for _, p := range positions {
		frames = append(frames, ibproto.PortfolioValue(ibproto.PortfolioValueView{
			Contract: ibproto.Contract{
				ConID: p.ConID, Symbol: p.Symbol, SecType: p.SecurityType, Currency: p.Currency,
			},
			Position: p.Position, MarketPrice: p.MarketPrice, MarketValue: p.MarketValue,
			AvgCost: p.AvgCost, UnrealizedPnL: p.UnrealizedPnL, RealizedPnL: p.RealizedPnL,
			Account: account,
		}))
	}
	frames = append(frames, ibproto.AcctDownloadEnd(account))
	s.writeFrames(frames...)
}

func (s *Session) handleReqPositions() {
	account := s.cfg.DefaultAccount
	positions, err := s.store.GetPositions(account)
	if err != nil {
		s.storeError(err)
		return
	}
	frames := make([][]byte, 0, len(positions)+1)
	for _, p := range positions {
		frames = append(frames, ibproto.PositionData(ibproto.PositionDataView{
			Account: account,
			Contract: ibproto.Contract{
				ConID: p.ConID, Symbol: p.Symbol, SecType: p.SecurityType, Currency: p.Currency,
			},
			Position: p.Position, AvgCost: p.AvgCost,
		}))
	}
	frames = append(frames, ibproto.PositionEnd())
	s.writeFrames(frames...)
}

func (s *Session) handleReqMktData(fields []string) {
	req, err := ibproto.ParseReqMktData(fields)
	if err != nil {
		s.protocolError(err)
		return
	}

	s.subMu.Lock()
	s.marketDataSubs[req.ReqID] = marketDataSub{reqID: req.ReqID, contract: req.Contract}
	s.subMu.Unlock()
	s.reg.SubscribeSymbol(req.Contract.Symbol, s.clientID)

	seed := seedPrice(req.Contract.Symbol)
	s.writeFrames(
		ibproto.TickPrice(req.ReqID, ibproto.TickBidPrice, seed-0.01, true, false),
		ibproto.TickPrice(req.ReqID, ibproto.TickAskPrice, seed+0.01, true, false),
		ibproto.TickPrice(req.ReqID, ibproto.TickLastPrice, seed, true, false),
		ibproto.TickSize(req.ReqID, ibproto.TickBidSize, 100),
		ibproto.TickSize(req.ReqID, ibproto.TickAskSize, 100),
		ibproto.TickSize(req.ReqID, ibproto.TickLastSize, 10),
		ibproto.TickSize(req.ReqID, ibproto.TickVolume, 100000),
	)
}

// seedPrice derives a deterministic opening price from the symbol so
// the initial burst always has a plausible-looking value without
// depending on store state that spec.md never requires REQ_MKT_DATA
// to read.
func seedPrice(symbol string) float64 {
	var h int
	for _, c := range symbol {
		h = h*31 + int(c)
	}
	if h < 0 {
		h = -h
	}
	return 50 + float64(h%500)
}

func (s *Session) handleCancelMktData(fields []string) {
	req, err := ibproto.ParseCancelMktData(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	s.subMu.Lock()
	sub, ok := s.marketDataSubs[req.ReqID]
	delete(s.marketDataSubs, req.ReqID)
	s.subMu.Unlock()
	if ok {
		s.reg.UnsubscribeSymbol(sub.contract.Symbol, s.clientID)
	}
}

func (s *Session) handlePlaceOrder(fields []string) {
	req, err := ibproto.ParsePlaceOrder(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	account := req.Order.Account
	if account == "" {
		account = s.cfg.DefaultAccount
	}
	clientID := s.negotiatedClientID.Load()

	if err := s.store.CreateOrder(store.Order{
		OrderID: req.OrderID, AccountID: account, ClientID: clientID,
		ConID: req.Contract.ConID, Symbol: req.Contract.Symbol, SecurityType: req.Contract.SecType,
		Exchange: req.Contract.Exchange, Action: req.Order.Action, OrderType: req.Order.OrderType,
		TotalQuantity: req.Order.TotalQuantity, LimitPrice: req.Order.LimitPrice,
		AuxPrice: req.Order.AuxPrice, Status: "PendingSubmit", TIF: req.Order.TIF,
	}); err != nil {
		s.storeError(err)
		return
	}

	s.writeFrame(ibproto.OrderStatus(req.OrderID, "PendingSubmit", 0, req.Order.TotalQuantity, 0, req.OrderID, req.Order.ParentID, 0, clientID, "", 0))

	delay := s.cfg.OrderStatusDelay
	time.AfterFunc(delay, func() {
		if s.state.Load() != int32(stateConnected) {
			return
		}
		_ = s.store.UpdateOrderStatus(req.OrderID, "Submitted", 0, req.Order.TotalQuantity, 0)
		s.writeFrame(ibproto.OrderStatus(req.OrderID, "Submitted", 0, req.Order.TotalQuantity, 0, req.OrderID, req.Order.ParentID, 0, clientID, "", 0))
	})
}

func (s *Session) handleCancelOrder(fields []string) {
	req, err := ibproto.ParseCancelOrder(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	clientID := s.negotiatedClientID.Load()

	s.writeFrame(ibproto.OrderStatus(req.OrderID, "PendingCancel", 0, 0, 0, req.OrderID, 0, 0, clientID, "", 0))

	delay := s.cfg.OrderStatusDelay
	time.AfterFunc(delay, func() {
		if s.state.Load() != int32(stateConnected) {
			return
		}
		_ = s.store.UpdateOrderStatus(req.OrderID, "Cancelled", 0, 0, 0)
		s.writeFrame(ibproto.OrderStatus(req.OrderID, "Cancelled", 0, 0, 0, req.OrderID, 0, 0, clientID, "", 0))
	})
}

func (s *Session) handleReqOpenOrders() {
	orders, err := s.store.GetOpenOrders(s.cfg.DefaultAccount)
	if err != nil {
		s.storeError(err)
		return
	}
	frames := make([][]byte, 0, len(orders)+1)
	for _, o := range orders {
		frames = append(frames, ibproto.OpenOrder(ibproto.OpenOrderView{
			OrderID: o.OrderID,
			Contract: ibproto.Contract{
				ConID: o.ConID, Symbol: o.Symbol, SecType: o.SecurityType, Exchange: o.Exchange,
			},
			Order: ibproto.Order{
				Action: o.Action, TotalQuantity: o.TotalQuantity, OrderType: o.OrderType,
				LimitPrice: o.LimitPrice, AuxPrice: o.AuxPrice, TIF: o.TIF, Account: o.AccountID,
			},
			ClientID: o.ClientID, PermID: o.PermID,
		}))
	}
	frames = append(frames, ibproto.OpenOrderEnd())
	s.writeFrames(frames...)
}

func (s *Session) handleReqContractData(fields []string) {
	req, err := ibproto.ParseReqContractData(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	c, found, err := s.store.GetContractBySymbol(req.Contract.Symbol, req.Contract.SecType)
	if err != nil {
		s.storeError(err)
		return
	}
	frames := [][]byte{}
	if found {
		frames = append(frames, ibproto.ContractData(ibproto.ContractDataView{
			ReqID: req.ReqID,
			Contract: ibproto.Contract{
				ConID: c.ConID, Symbol: c.Symbol, SecType: c.SecurityType, Exchange: c.Exchange,
				Currency: c.Currency, LocalSymbol: c.LocalSymbol, TradingClass: c.TradingClass,
				Multiplier: c.Multiplier,
			},
		}))
	}
	frames = append(frames, ibproto.ContractDataEnd(req.ReqID))
	s.writeFrames(frames...)
}

func (s *Session) handleReqSecDefOptParams(fields []string) {
	req, err := ibproto.ParseReqSecDefOptParams(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	s.writeFrame(ibproto.SecurityDefinitionOptionParameterEnd(req.ReqID))
}

func (s *Session) handleReqExecutions(fields []string) {
	req, err := ibproto.ParseReqExecutions(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	s.writeFrame(ibproto.ExecutionDataEnd(req.ReqID))
}

// handleReqHistoricalData implements spec.md §4.4's base contract: an
// empty HISTORICAL_DATA with zero bars. When the declared supplement
// cfg.SyntheticHistoricalData is turned on, it instead serves
// generated bars from the compressed cache (historical.go); that path
// never runs by default, so the base wire contract is unaffected.
func (s *Session) handleReqHistoricalData(fields []string) {
	req, err := ibproto.ParseReqHistoricalData(fields)
	if err != nil {
		s.protocolError(err)
		return
	}

	if !s.cfg.SyntheticHistoricalData {
		s.writeFrame(ibproto.HistoricalData(req.ReqID, "", "", nil))
		return
	}

	bars, ok := s.bars.get(req.Contract.Symbol, req.BarSizeSetting, req.DurationStr)
	if !ok {
		bars = syntheticBars(req.Contract.Symbol, req.BarSizeSetting, req.DurationStr, barsForRequest(req.DurationStr))
		s.bars.put(req.Contract.Symbol, req.BarSizeSetting, req.DurationStr, bars)
	}

	start, end := "", ""
	if len(bars) > 0 {
		start, end = bars[0].Date, bars[len(bars)-1].Date
	}
	s.writeFrame(ibproto.HistoricalData(req.ReqID, start, end, bars))
}

func (s *Session) handleReqPositionsMulti(fields []string) {
	req, err := ibproto.ParseReqPositionsMulti(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	account := req.Account
	if account == "" {
		account = s.cfg.DefaultAccount
	}
	positions, err := s.store.GetPositions(account)
	if err != nil {
		s.storeError(err)
		return
	}
	frames := make([][]byte, 0, len(positions)+1)
	for _, p := range positions {
		frames = append(frames, ibproto.PositionMulti(account, req.ModelCode, ibproto.PositionDataView{
			Account: account,
			Contract: ibproto.Contract{
				ConID: p.ConID, Symbol: p.Symbol, SecType: p.SecurityType, Currency: p.Currency,
			},
			Position: p.Position, AvgCost: p.AvgCost,
		}))
	}
	frames = append(frames, ibproto.PositionMultiEnd(req.ReqID))
	s.writeFrames(frames...)
}

func (s *Session) handleReqAccountSummary(fields []string) {
	req, err := ibproto.ParseReqAccountSummary(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	account := s.cfg.DefaultAccount
	summary, ok, err := s.store.GetAccountSummary(account)
	if err != nil {
		s.storeError(err)
		return
	}
	frames := [][]byte{}
	if ok {
		frames = append(frames,
			ibproto.AccountSummary(req.ReqID, account, "NetLiquidation", fmt.Sprintf("%.2f", summary.NetLiquidation), summary.BaseCurrency),
			ibproto.AccountSummary(req.ReqID, account, "TotalCashValue", fmt.Sprintf("%.2f", summary.CashBalance), summary.BaseCurrency),
		)
	}
	frames = append(frames, ibproto.AccountSummaryEnd(req.ReqID))
	s.writeFrames(frames...)
}

func (s *Session) handleCancelAccountSummary(fields []string) {
	if _, err := ibproto.ParseCancelAccountSummary(fields); err != nil {
		s.protocolError(err)
	}
}

func (s *Session) handleReqMarketDataType(fields []string) {
	req, err := ibproto.ParseReqMarketDataType(fields)
	if err != nil {
		s.protocolError(err)
		return
	}
	s.writeFrame(ibproto.MarketDataType(0, req.MarketDataType))
}

// protocolError surfaces a missing-required-field parse failure to the
// client with SERVER_ERROR, per spec.md §4.3.
func (s *Session) protocolError(err error) {
	s.log.Log(logging.LevelDebug, "protocol error", "client_id", s.clientID, "err", err)
	s.writeFrame(ibproto.ErrMsg(-1, ibproto.ErrServerError, err.Error()))
}

func (s *Session) storeError(err error) {
	s.log.Log(logging.LevelError, "store error", "client_id", s.clientID, "err", err)
	s.writeFrame(ibproto.ErrMsg(-1, ibproto.ErrServerError, "internal error"))
}

// emitTicks is the broadcast sink of spec.md §4.4: only the tick
// fields present in ticks are emitted, in the fixed order price
// (bid/ask/last) then size (bid/ask/volume).
func (s *Session) emitTicks(reqID int64, ticks gateway.BroadcastTicks) {
	var frames [][]byte
	if ticks.Bid != nil {
		frames = append(frames, ibproto.TickPrice(reqID, ibproto.TickBidPrice, *ticks.Bid, true, false))
	}
	if ticks.Ask != nil {
		frames = append(frames, ibproto.TickPrice(reqID, ibproto.TickAskPrice, *ticks.Ask, true, false))
	}
	if ticks.Last != nil {
		frames = append(frames, ibproto.TickPrice(reqID, ibproto.TickLastPrice, *ticks.Last, true, false))
	}
	if ticks.BidSize != nil {
		frames = append(frames, ibproto.TickSize(reqID, ibproto.TickBidSize, *ticks.BidSize))
	}
	if ticks.AskSize != nil {
		frames = append(frames, ibproto.TickSize(reqID, ibproto.TickAskSize, *ticks.AskSize))
	}
	if ticks.Vol != nil {
		frames = append(frames, ibproto.TickSize(reqID, ibproto.TickVolume, *ticks.Vol))
	}
	if len(frames) > 0 {
		s.writeFrames(frames...)
	}
}
