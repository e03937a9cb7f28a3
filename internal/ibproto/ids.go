// Package ibproto implements the TWS API message catalogue: the
// numeric kind identifiers, the per-kind request parsers, and the
// per-kind response builders. The numeric values below are the
// vendor's published wire constants, not an implementation choice —
// spec.md §4.2 requires they be fixed to match the vendor's tables.
package ibproto

// Kind is an inbound message kind identifier.
type Kind int

// Inbound kinds. Only a subset (spec.md §6) is dispatched by the
// session engine; the rest are named here so UNKNOWN_ID handling has
// real, documented numbers to report and so the catalogue reads as
// the closed set spec.md §4.2 describes.
const (
	KindReqMktData            Kind = 1
	KindCancelMktData         Kind = 2
	KindPlaceOrder            Kind = 3
	KindCancelOrder           Kind = 4
	KindReqOpenOrders         Kind = 5
	KindReqAcctData           Kind = 6
	KindReqExecutions         Kind = 7
	KindReqIds                Kind = 8
	KindReqContractData       Kind = 9
	KindReqMktDepth           Kind = 10
	KindCancelMktDepth        Kind = 11
	KindReqNewsBulletins      Kind = 12
	KindCancelNewsBulletins   Kind = 13
	KindSetServerLogLevel     Kind = 14
	KindReqAutoOpenOrders     Kind = 15
	KindReqAllOpenOrders      Kind = 16
	KindReqManagedAccts       Kind = 17
	KindReqFA                 Kind = 18
	KindReplaceFA             Kind = 19
	KindReqHistoricalData     Kind = 20
	KindExerciseOptions       Kind = 21
	KindReqScannerSubscr      Kind = 22
	KindCancelScannerSubscr   Kind = 23
	KindReqScannerParameters  Kind = 24
	KindCancelHistoricalData Kind = 25
	KindReqCurrentTime        Kind = 49
	KindReqRealTimeBars       Kind = 50
	KindCancelRealTimeBars    Kind = 51
	KindReqFundamentalData    Kind = 52
	KindCancelFundamentalData Kind = 53
	KindReqGlobalCancel       Kind = 58
	KindReqMarketDataType     Kind = 59
	KindReqPositions          Kind = 61
	KindReqAccountSummary     Kind = 62
	KindCancelAccountSummary  Kind = 63
	KindCancelPositions       Kind = 64
	KindStartApi              Kind = 71
	KindReqPositionsMulti     Kind = 74
	KindCancelPositionsMulti  Kind = 75
	KindReqSecDefOptParams    Kind = 78
)

// Outbound kinds, field orders reproduced in build.go per spec.md §6.
const (
	OutTickPrice                             = 1
	OutTickSize                              = 2
	OutOrderStatus                           = 3
	OutErrMsg                                = 4
	OutOpenOrder                             = 5
	OutAcctValue                             = 6
	OutPortfolioValue                        = 7
	OutAcctUpdateTime                        = 8
	OutNextValidId                           = 9
	OutContractData                          = 10
	OutExecutionData                         = 11
	OutMarketDepth                           = 12
	OutManagedAccts                          = 15
	OutHistoricalData                        = 17
	OutCurrentTime                           = 49
	OutOpenOrderEnd                          = 53
	OutAcctDownloadEnd                       = 54
	OutExecutionDataEnd                      = 55
	OutMarketDataType                        = 58
	OutCommissionReport                      = 59
	OutPositionData                          = 61
	OutPositionEnd                           = 62
	OutAccountSummary                        = 63
	OutAccountSummaryEnd                     = 64
	OutPositionMulti                         = 71
	OutPositionMultiEnd                      = 72
	OutSecurityDefinitionOptionParameter      = 75
	OutSecurityDefinitionOptionParameterEnd   = 76
	OutContractDataEnd                       = 52
	OutTickGeneric                           = 45
	OutTickString                            = 46
)

// Error codes (spec.md §6/§7).
const (
	ErrUnknownID        = 504
	ErrServerError      = 500
	ErrMaxRateExceeded   = 100
)

// Tick-type codes used in the initial market-data burst and broadcast
// (spec.md §6).
const (
	TickBidPrice  = 1
	TickAskPrice  = 2
	TickLastPrice = 4
	TickBidSize   = 0
	TickAskSize   = 3
	TickLastSize  = 5
	TickVolume    = 8
)
