package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidMultiplier    ErrorCode = 103
	ErrCodeInvalidSplit         ErrorCode = 104
	ErrCodeInvalidType          ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 106
	ErrCodeInsufficientData     ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataSourceUnavailable ErrorCode = 200
	ErrCodeDataNotFound          ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeMalformedRow          ErrorCode = 203

	// Backtest errors (300-399)
	ErrCodeBacktestFailed ErrorCode = 300
	ErrCodeInvalidSignal  ErrorCode = 301
	ErrCodeStateViolation ErrorCode = 302

	// Optimizer errors (400-499)
	ErrCodeOptimizationFailed    ErrorCode = 400
	ErrCodeOptimizationCancelled ErrorCode = 401
	ErrCodeEmptyGrid             ErrorCode = 402

	// Store errors (500-599)
	ErrCodeStoreUnavailable ErrorCode = 500
	ErrCodeStoreWriteFailed ErrorCode = 501
	ErrCodeStoreReadFailed  ErrorCode = 502
)
