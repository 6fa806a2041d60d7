package apperror

// messages maps error codes to default human-readable messages.
var messages = map[Code]string{
	CodeRequiredField:   "required field missing",
	CodeInvalidInput:    "invalid input",
	CodeInvalidState:    "invalid state",
	CodeNotFound:        "not found",
	CodeValidationError: "validation failed",

	CodeConfigurationError: "configuration error",

	CodeExternalServiceError: "external service error",
	CodeServiceTimeout:       "service timeout",
	CodeServiceUnavailable:   "service unavailable",
	CodeRateLimitExceeded:    "rate limit exceeded",

	CodeInternalError: "internal error",
	CodeUnknownError:  "unknown error",

	CodeRPCConnectionFailed: "rpc connection failed",
	CodeRPCError:            "rpc error",
	CodeSubscribeFailed:     "subscription failed",
	CodeLogScanFailed:       "event log scan failed",
	CodeGasEstimationFailed: "gas estimation failed",
	CodeContractCallFailed:  "contract call failed",

	CodeTokenUnresolvable:   "token could not be resolved",
	CodeLiquidityReadFailed: "liquidity read failed",
	CodeSnapshotStale:       "pool snapshot too old",
	CodeSnapshotCorrupt:     "pool snapshot failed structural checks",
	CodeSnapshotWriteFailed: "pool snapshot write failed",

	CodeQuoteFailed:         "quote failed",
	CodePoolNotFound:        "pool not found",
	CodeAggregatorError:     "aggregator api error",
	CodeAggregatorRateLimit: "aggregator api rate limited",

	CodePreflightRejected:  "preflight check rejected",
	CodeSimulationReverted: "simulation reverted",
	CodeSubmissionFailed:   "transaction submission failed",
	CodeNonceConflict:      "nonce conflict",
	CodeRelayRejected:      "private relay rejected bundle",
	CodeReceiptTimeout:     "timed out waiting for receipt",
	CodeSignerMisconfig:    "signer misconfigured",
	CodeBalanceTooLow:      "signer balance below floor",

	CodeCircuitOpen:      "circuit breaker tripped",
	CodeHourlyLimit:      "hourly trade limit exceeded",
	CodeDrawdownExceeded: "max drawdown exceeded",
	CodeRiskRejected:     "risk controller rejected trade",

	CodeWebSocketConnectionError: "websocket connection error",
	CodeWebSocketClosed:          "websocket closed",
	CodeDecodeFailed:             "calldata decode failed",
}
