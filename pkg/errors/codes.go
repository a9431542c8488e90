package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeMessageQueue       ErrorCode = "COMMON_015"
	ErrCodeStorage            ErrorCode = "COMMON_016"
)

// Aliases used across layers.
const (
	CodeUnknown      ErrorCode = ""
	CodeOK           ErrorCode = "OK"
	CodeInternal               = ErrCodeInternal
	CodeInvalidParam           = ErrCodeBadRequest
	CodeNotFound               = ErrCodeNotFound
	CodeConflict               = ErrCodeConflict
	CodeRateLimit              = ErrCodeTooManyRequests
	CodeDatabaseError          = ErrCodeDatabaseError
	CodeCacheError             = ErrCodeCacheError
	CodeMessageQueue           = ErrCodeMessageQueue
	CodeStorageError           = ErrCodeStorage
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeInvalidSMILES    ErrorCode = "MOL_001"
	ErrCodeMoleculeParsingFailed    ErrorCode = "MOL_006"
	ErrCodeSubstructureSearchFailed ErrorCode = "MOL_012"
	ErrCodePropertyPredictionFailed ErrorCode = "MOL_013"
	ErrCodeDescriptorFailed         ErrorCode = "MOL_016"
)

// Screening Module Error Codes
const (
	ErrCodeBatchSizeExceeded ErrorCode = "SCR_001"
	ErrCodeBatchEmpty        ErrorCode = "SCR_002"
	ErrCodeBatchItemInvalid  ErrorCode = "SCR_003"
)

// Generation Module Error Codes
const (
	ErrCodeProposalSourceFailed ErrorCode = "GEN_001"
	ErrCodeProposalDecodeFailed ErrorCode = "GEN_002"
	ErrCodeGenerationCountRange ErrorCode = "GEN_003"
	ErrCodeRunNotFound          ErrorCode = "GEN_004"
	ErrCodeProviderNotConfigured ErrorCode = "GEN_005"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeMessageQueue:       http.StatusInternalServerError,
	ErrCodeStorage:            http.StatusInternalServerError,

	ErrCodeMoleculeInvalidSMILES:    http.StatusBadRequest,
	ErrCodeMoleculeParsingFailed:    http.StatusInternalServerError,
	ErrCodeSubstructureSearchFailed: http.StatusInternalServerError,
	ErrCodePropertyPredictionFailed: http.StatusBadGateway,
	ErrCodeDescriptorFailed:         http.StatusInternalServerError,

	ErrCodeBatchSizeExceeded: http.StatusBadRequest,
	ErrCodeBatchEmpty:        http.StatusBadRequest,
	ErrCodeBatchItemInvalid:  http.StatusBadRequest,

	ErrCodeProposalSourceFailed:  http.StatusBadGateway,
	ErrCodeProposalDecodeFailed:  http.StatusBadGateway,
	ErrCodeGenerationCountRange:  http.StatusBadRequest,
	ErrCodeRunNotFound:           http.StatusNotFound,
	ErrCodeProviderNotConfigured: http.StatusServiceUnavailable,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "rate limit exceeded",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeMessageQueue:       "message queue error",
	ErrCodeStorage:            "object storage error",

	ErrCodeMoleculeInvalidSMILES:    "invalid SMILES string",
	ErrCodeMoleculeParsingFailed:    "failed to parse molecule",
	ErrCodeSubstructureSearchFailed: "substructure search failed",
	ErrCodePropertyPredictionFailed: "property prediction failed",
	ErrCodeDescriptorFailed:         "descriptor calculation failed",

	ErrCodeBatchSizeExceeded: "maximum 1000 SMILES per batch",
	ErrCodeBatchEmpty:        "smiles_list must not be empty",
	ErrCodeBatchItemInvalid:  "SMILES must be a string",

	ErrCodeProposalSourceFailed:  "proposal source failed",
	ErrCodeProposalDecodeFailed:  "proposal response could not be decoded",
	ErrCodeGenerationCountRange:  "count out of range",
	ErrCodeRunNotFound:           "generation run not found",
	ErrCodeProviderNotConfigured: "language model provider not configured",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
