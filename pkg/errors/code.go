package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Toolchain discovery errors
// 12000-12999: Execution errors
// 13000-13999: Cache errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10004
	Timeout             ErrorCode = 10005

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Toolchain Discovery Errors (11000-11999) ==========

	// Detection (11000-11099)
	DetectionFailed     ErrorCode = 11000
	NoToolchainFound    ErrorCode = 11001
	ToolchainNotFound   ErrorCode = 11002
	ProbeFailed         ErrorCode = 11003
	UnsupportedPlatform ErrorCode = 11004

	// ========== Execution Errors (12000-12999) ==========

	// Request (12000-12099)
	LanguageNotSupported ErrorCode = 12000
	SourceNotFound       ErrorCode = 12001
	SourceTooLarge       ErrorCode = 12002
	InputTooLarge        ErrorCode = 12003

	// Engine (12100-12199)
	EngineError         ErrorCode = 12100
	EngineNotReady      ErrorCode = 12101
	WorkspaceError      ErrorCode = 12102
	CompilationError    ErrorCode = 12103
	SpawnError          ErrorCode = 12104
	TimeLimitExceeded   ErrorCode = 12105
	MemoryLimitExceeded ErrorCode = 12106
	DiskSpaceExhausted  ErrorCode = 12107

	// ========== Cache Errors (13000-13999) ==========

	CacheError       ErrorCode = 13000
	CacheMiss        ErrorCode = 13001
	CacheWriteFailed ErrorCode = 13002
	CacheStale       ErrorCode = 13003
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Toolchain discovery
	DetectionFailed:     "Toolchain detection failed",
	NoToolchainFound:    "No usable C/C++ toolchain was found",
	ToolchainNotFound:   "Requested toolchain is not in the catalog",
	ProbeFailed:         "Toolchain probe failed",
	UnsupportedPlatform: "Platform is not supported",

	// Execution
	LanguageNotSupported: "Language not supported, expected c or cpp",
	SourceNotFound:       "Source file not found",
	SourceTooLarge:       "Source file is too large",
	InputTooLarge:        "Input payload is too large",
	EngineError:          "Execution engine error",
	EngineNotReady:       "Execution engine is not initialized",
	WorkspaceError:       "Scratch workspace operation failed",
	CompilationError:     "Compilation error",
	SpawnError:           "Compiled program could not be started",
	TimeLimitExceeded:    "Time limit exceeded",
	MemoryLimitExceeded:  "Memory limit exceeded",
	DiskSpaceExhausted:   "Not enough free disk space",

	// Cache
	CacheError:       "Cache operation failed",
	CacheMiss:        "Cache miss",
	CacheWriteFailed: "Failed to persist cache record",
	CacheStale:       "Cache record is stale",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == ToolchainNotFound, c == SourceNotFound:
		return 404
	case c == ServiceUnavailable, c == EngineNotReady:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == LanguageNotSupported:
		return 400
	case c == SourceTooLarge, c == InputTooLarge:
		return 413
	default:
		return 500
	}
}
