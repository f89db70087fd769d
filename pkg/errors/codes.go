package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string identifier of a failure category. The prefix before
// the first underscore names the module that owns the code.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes
const (
	ErrCodeOK            ErrorCode = "OK"
	ErrCodeUnknown       ErrorCode = "COMMON_000"
	ErrCodeInternal      ErrorCode = "COMMON_001"
	ErrCodeNotFound      ErrorCode = "COMMON_005"
	ErrCodeConflict      ErrorCode = "COMMON_006"
	ErrCodeTimeout       ErrorCode = "COMMON_009"
	ErrCodeValidation    ErrorCode = "COMMON_010"
	ErrCodeSerialization ErrorCode = "COMMON_011"
	ErrCodeDatabaseError ErrorCode = "COMMON_012"
	ErrCodeCacheError    ErrorCode = "COMMON_013"
	ErrCodeStorageError  ErrorCode = "COMMON_017"
	ErrCodeMessaging     ErrorCode = "COMMON_018"
)

// Configuration error codes. All of them are fatal and require user action.
const (
	ErrCodeInvalidCutoff          ErrorCode = "CONFIG_001"
	ErrCodeUnsupportedVersion     ErrorCode = "CONFIG_002"
	ErrCodeUnknownDatabase        ErrorCode = "CONFIG_003"
	ErrCodeUnsupportedMethod      ErrorCode = "CONFIG_004"
	ErrCodeSpatializationRequired ErrorCode = "CONFIG_005"
	ErrCodeInvalidConfig          ErrorCode = "CONFIG_006"
)

// Trade data error codes
const (
	ErrCodeMalformedTradeRecord ErrorCode = "TRADE_001"
	ErrCodeNoTradeData          ErrorCode = "TRADE_002"
)

// Static table error codes
const (
	ErrCodeTableMissing   ErrorCode = "TABLE_001"
	ErrCodeTableMalformed ErrorCode = "TABLE_002"
)

// Regionalization error codes
const (
	ErrCodeUnitMismatch      ErrorCode = "REG_001"
	ErrCodeProviderNotFound  ErrorCode = "REG_002"
	ErrCodeMarketNotFound    ErrorCode = "REG_003"
	ErrCodeHeatMixEmpty      ErrorCode = "REG_004"
	ErrCodeTechShareZero     ErrorCode = "REG_005"
	ErrCodeDanglingReference ErrorCode = "REG_006"
	ErrCodeDuplicateKey      ErrorCode = "REG_007"
	ErrCodeStageOrder        ErrorCode = "REG_008"
	ErrCodeTemplateNotFound  ErrorCode = "REG_009"
)

// ErrorCodeMessage holds the default message per code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:      "internal error",
	ErrCodeNotFound:      "resource not found",
	ErrCodeConflict:      "conflicting state",
	ErrCodeTimeout:       "operation timed out",
	ErrCodeValidation:    "validation failed",
	ErrCodeSerialization: "serialization failed",
	ErrCodeDatabaseError: "database error",
	ErrCodeCacheError:    "cache error",
	ErrCodeStorageError:  "object storage error",
	ErrCodeMessaging:     "messaging error",

	ErrCodeInvalidCutoff:          "cutoff must be between 0 and 0.99",
	ErrCodeUnsupportedVersion:     "unsupported ecoinvent version",
	ErrCodeUnknownDatabase:        "unknown database",
	ErrCodeUnsupportedMethod:      "unsupported impact assessment method",
	ErrCodeSpatializationRequired: "source database must be spatialized first",
	ErrCodeInvalidConfig:          "invalid configuration",

	ErrCodeMalformedTradeRecord: "malformed trade record",
	ErrCodeNoTradeData:          "no trade data for commodity",

	ErrCodeTableMissing:   "static table missing",
	ErrCodeTableMalformed: "static table malformed",

	ErrCodeUnitMismatch:      "matched exchanges use more than one unit",
	ErrCodeProviderNotFound:  "provider process not found",
	ErrCodeMarketNotFound:    "market process not found",
	ErrCodeHeatMixEmpty:      "heat mix has no contributing exchanges",
	ErrCodeTechShareZero:     "technology distribution is zero",
	ErrCodeDanglingReference: "exchange input does not resolve",
	ErrCodeDuplicateKey:      "duplicate process key",
	ErrCodeStageOrder:        "pipeline stage run out of order",
	ErrCodeTemplateNotFound:  "template process not found",
}

// HTTPStatusForCode maps a code to the status used by the ops endpoint.
func HTTPStatusForCode(code ErrorCode) int {
	switch ModuleForCode(code) {
	case "CONFIG", "TRADE":
		return http.StatusBadRequest
	}
	switch code {
	case ErrCodeOK:
		return http.StatusOK
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of code.
func ModuleForCode(code ErrorCode) string {
	parts := strings.SplitN(string(code), "_", 2)
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
