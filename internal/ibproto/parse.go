package ibproto

import (
	"errors"

	"github.com/ibsim/gateway/internal/wire"
)

// ErrMissingField is returned by a parser when a required field is
// absent from the vector, per spec.md §4.3: parsers "must tolerate
// over-long messages ... but must not tolerate missing required
// fields for their kind".
var ErrMissingField = errors.New("ibproto: required field missing")

type ReqMktData struct {
	ReqID             int64
	Contract          Contract
	GenericTickList   string
	Snapshot          bool
	RegulatorySnapshot bool
}

func ParseReqMktData(fields []string) (ReqMktData, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return ReqMktData{}, ErrMissingField
	}
	c, err := parseContract(r)
	if err != nil {
		return ReqMktData{}, err
	}
	generic := r.Str()
	snapshot := r.Bool()
	reg := r.Bool()
	return ReqMktData{ReqID: reqID, Contract: c, GenericTickList: generic, Snapshot: snapshot, RegulatorySnapshot: reg}, nil
}

type CancelMktData struct {
	ReqID int64
}

func ParseCancelMktData(fields []string) (CancelMktData, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return CancelMktData{}, ErrMissingField
	}
	return CancelMktData{ReqID: reqID}, nil
}

type PlaceOrder struct {
	OrderID  int64
	Contract Contract
	Order    Order
}

func ParsePlaceOrder(fields []string) (PlaceOrder, error) {
	r := wire.NewReader(fields)
	orderID, ok := r.Int()
	if !ok {
		return PlaceOrder{}, ErrMissingField
	}
	c, err := parseContractWithSecID(r)
	if err != nil {
		return PlaceOrder{}, err
	}

	action := r.Str()
	qty, _ := r.Float()
	orderType := r.Str()
	limit, _ := r.Float()
	aux, _ := r.Float()
	tif := r.Str()
	ocaGroup := r.Str()
	account := r.Str()
	openClose := r.Str()
	origin, _ := r.Int()
	orderRef := r.Str()
	transmit := r.Bool()
	parentID, _ := r.Int()

	if action == "" {
		return PlaceOrder{}, ErrMissingField
	}

	return PlaceOrder{
		OrderID:  orderID,
		Contract: c,
		Order: Order{
			Action: action, TotalQuantity: qty, OrderType: orderType,
			LimitPrice: limit, AuxPrice: aux, TIF: tif, OCAGroup: ocaGroup,
			Account: account, OpenClose: openClose, Origin: origin,
			OrderRef: orderRef, Transmit: transmit, ParentID: parentID,
		},
	}, nil
}

type CancelOrder struct {
	OrderID int64
}

func ParseCancelOrder(fields []string) (CancelOrder, error) {
	r := wire.NewReader(fields)
	orderID, ok := r.Int()
	if !ok {
		return CancelOrder{}, ErrMissingField
	}
	return CancelOrder{OrderID: orderID}, nil
}

type ReqAcctData struct {
	Subscribe   bool
	AccountCode string
}

func ParseReqAcctData(fields []string) (ReqAcctData, error) {
	r := wire.NewReader(fields)
	sub := r.Bool()
	code := r.Str()
	return ReqAcctData{Subscribe: sub, AccountCode: code}, nil
}

type ReqContractData struct {
	ReqID    int64
	Contract Contract
}

func ParseReqContractData(fields []string) (ReqContractData, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return ReqContractData{}, ErrMissingField
	}
	c, err := parseContract(r)
	if err != nil {
		return ReqContractData{}, err
	}
	return ReqContractData{ReqID: reqID, Contract: c}, nil
}

type ReqSecDefOptParams struct {
	ReqID              int64
	UnderlyingSymbol   string
	FutFopExchange     string
	UnderlyingSecType  string
	UnderlyingConID    int64
}

func ParseReqSecDefOptParams(fields []string) (ReqSecDefOptParams, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return ReqSecDefOptParams{}, ErrMissingField
	}
	sym := r.Str()
	exch := r.Str()
	secType := r.Str()
	conID, _ := r.Int()
	return ReqSecDefOptParams{ReqID: reqID, UnderlyingSymbol: sym, FutFopExchange: exch, UnderlyingSecType: secType, UnderlyingConID: conID}, nil
}

type ReqExecutions struct {
	ReqID int64
}

func ParseReqExecutions(fields []string) (ReqExecutions, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return ReqExecutions{}, ErrMissingField
	}
	return ReqExecutions{ReqID: reqID}, nil
}

type ReqHistoricalData struct {
	ReqID           int64
	Contract        Contract
	EndDateTime     string
	BarSizeSetting  string
	DurationStr     string
	UseRTH          bool
	WhatToShow      string
	FormatDate      int64
}

func ParseReqHistoricalData(fields []string) (ReqHistoricalData, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return ReqHistoricalData{}, ErrMissingField
	}
	c, err := parseContract(r)
	if err != nil {
		return ReqHistoricalData{}, err
	}
	_ = r.Bool() // include_expired
	end := r.Str()
	barSize := r.Str()
	duration := r.Str()
	useRTH := r.Bool()
	whatToShow := r.Str()
	formatDate, _ := r.Int()
	return ReqHistoricalData{
		ReqID: reqID, Contract: c, EndDateTime: end, BarSizeSetting: barSize,
		DurationStr: duration, UseRTH: useRTH, WhatToShow: whatToShow, FormatDate: formatDate,
	}, nil
}

type StartApi struct {
	ClientID             int64
	HasClientID          bool
	OptionalCapabilities string
}

func ParseStartApi(fields []string) (StartApi, error) {
	r := wire.NewReader(fields)
	clientID, ok := r.Int()
	caps := r.Str()
	return StartApi{ClientID: clientID, HasClientID: ok, OptionalCapabilities: caps}, nil
}

type ReqPositionsMulti struct {
	ReqID     int64
	Account   string
	ModelCode string
}

func ParseReqPositionsMulti(fields []string) (ReqPositionsMulti, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return ReqPositionsMulti{}, ErrMissingField
	}
	account := r.Str()
	model := r.Str()
	return ReqPositionsMulti{ReqID: reqID, Account: account, ModelCode: model}, nil
}

type ReqAccountSummary struct {
	ReqID   int64
	Group   string
	Tags    string
}

func ParseReqAccountSummary(fields []string) (ReqAccountSummary, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return ReqAccountSummary{}, ErrMissingField
	}
	group := r.Str()
	tags := r.Str()
	return ReqAccountSummary{ReqID: reqID, Group: group, Tags: tags}, nil
}

type CancelAccountSummary struct {
	ReqID int64
}

func ParseCancelAccountSummary(fields []string) (CancelAccountSummary, error) {
	r := wire.NewReader(fields)
	reqID, ok := r.Int()
	if !ok {
		return CancelAccountSummary{}, ErrMissingField
	}
	return CancelAccountSummary{ReqID: reqID}, nil
}

type ReqMarketDataType struct {
	MarketDataType int64
}

func ParseReqMarketDataType(fields []string) (ReqMarketDataType, error) {
	r := wire.NewReader(fields)
	t, ok := r.Int()
	if !ok {
		return ReqMarketDataType{}, ErrMissingField
	}
	return ReqMarketDataType{MarketDataType: t}, nil
}

func parseContract(r *wire.Reader) (Contract, error) {
	conID, _ := r.Int()
	symbol := r.Str()
	secType := r.Str()
	expiry := r.Str()
	strike, _ := r.Float()
	right := r.Str()
	multiplier, _ := r.Int()
	exchange := r.Str()
	primaryExchange := r.Str()
	currency := r.Str()
	localSymbol := r.Str()
	tradingClass := r.Str()

	if symbol == "" {
		return Contract{}, ErrMissingField
	}

	return Contract{
		ConID: conID, Symbol: symbol, SecType: secType, Expiry: expiry,
		Strike: strike, Right: right, Multiplier: multiplier, Exchange: exchange,
		PrimaryExchange: primaryExchange, Currency: currency,
		LocalSymbol: localSymbol, TradingClass: tradingClass,
	}, nil
}

// parseContractWithSecID reads a Contract plus the two trailing
// sec-id fields PLACE_ORDER carries that the other contract-bearing
// messages don't (original encoder/decoder parity).
func parseContractWithSecID(r *wire.Reader) (Contract, error) {
	c, err := parseContract(r)
	if err != nil {
		return Contract{}, err
	}
	_ = r.Str() // sec_id_type
	_ = r.Str() // sec_id
	return c, nil
}
