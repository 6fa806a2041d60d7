package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Chain access error codes
const (
	CodeRPCConnectionFailed Code = "RPC_CONNECTION_FAILED"
	CodeRPCError            Code = "RPC_ERROR"
	CodeSubscribeFailed     Code = "SUBSCRIBE_FAILED"
	CodeLogScanFailed       Code = "LOG_SCAN_FAILED"
	CodeGasEstimationFailed Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed  Code = "CONTRACT_CALL_FAILED"
)

// Discovery and catalog error codes
const (
	CodeTokenUnresolvable   Code = "TOKEN_UNRESOLVABLE"
	CodeLiquidityReadFailed Code = "LIQUIDITY_READ_FAILED"
	CodeSnapshotStale       Code = "SNAPSHOT_STALE"
	CodeSnapshotCorrupt     Code = "SNAPSHOT_CORRUPT"
	CodeSnapshotWriteFailed Code = "SNAPSHOT_WRITE_FAILED"
)

// Quote engine error codes
const (
	CodeQuoteFailed         Code = "QUOTE_FAILED"
	CodePoolNotFound        Code = "POOL_NOT_FOUND"
	CodeAggregatorError     Code = "AGGREGATOR_ERROR"
	CodeAggregatorRateLimit Code = "AGGREGATOR_RATE_LIMIT"
)

// Execution error codes
const (
	CodePreflightRejected  Code = "PREFLIGHT_REJECTED"
	CodeSimulationReverted Code = "SIMULATION_REVERTED"
	CodeSubmissionFailed   Code = "SUBMISSION_FAILED"
	CodeNonceConflict      Code = "NONCE_CONFLICT"
	CodeRelayRejected      Code = "RELAY_REJECTED"
	CodeReceiptTimeout     Code = "RECEIPT_TIMEOUT"
	CodeSignerMisconfig    Code = "SIGNER_MISCONFIGURED"
	CodeBalanceTooLow      Code = "BALANCE_TOO_LOW"
)

// Risk controller error codes
const (
	CodeCircuitOpen      Code = "CIRCUIT_OPEN"
	CodeHourlyLimit      Code = "HOURLY_LIMIT_EXCEEDED"
	CodeDrawdownExceeded Code = "DRAWDOWN_EXCEEDED"
	CodeRiskRejected     Code = "RISK_REJECTED"
)

// Mempool observer error codes
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeDecodeFailed             Code = "DECODE_FAILED"
)
