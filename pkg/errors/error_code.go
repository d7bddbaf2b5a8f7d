package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidWeights       ErrorCode = 102
	ErrCodeInvalidTrade         ErrorCode = 103
	ErrCodeInsufficientData     ErrorCode = 104
	ErrCodeInvalidType          ErrorCode = 105
	ErrCodeInvalidPeriod        ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107
	ErrCodeInvalidThreshold     ErrorCode = 108
	ErrCodeInvalidSignal        ErrorCode = 109

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeSeriesGap             ErrorCode = 203
	ErrCodeSeriesUnordered       ErrorCode = 204
	ErrCodeEmptySeries           ErrorCode = 205

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotFound    ErrorCode = 400
	ErrCodeStrategyConfigError ErrorCode = 401
	ErrCodeStrategyCalculation ErrorCode = 402

	// Simulation errors (500-599)
	ErrCodeSimulationFailed   ErrorCode = 500
	ErrCodeDrawdownCapReached ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil     ErrorCode = 600
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestConfigError  ErrorCode = 602
	ErrCodeBacktestNoDatasource ErrorCode = 603
	ErrCodeBacktestNoResultsDir ErrorCode = 604
	ErrCodeBacktestWriteFailed  ErrorCode = 605

	// Optimizer errors (700-799)
	ErrCodeOptimizerEmptyGrid    ErrorCode = 700
	ErrCodeOptimizerUnknownParam ErrorCode = 701
	ErrCodeOptimizerNoResults    ErrorCode = 702

	// Market data errors (800-899)
	ErrCodeMarketDataFetchFailed ErrorCode = 800
	ErrCodeMarketDataWriteFailed ErrorCode = 801
	ErrCodeInvalidTimespan       ErrorCode = 802
	ErrCodeInvalidProvider       ErrorCode = 803
)
