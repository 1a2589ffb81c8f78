// Package errors defines error codes and categories for the failurous client
package errors

// Error Categories
const (
	// Notification editing errors (NTF)
	NotificationCategory = "NTF"

	// Configuration Errors (CON)
	ConfigurationCategory = "CON"

	// Network Errors (NET)
	NetworkCategory = "NET"

	// Message encoding Errors (MSG)
	MessageCategory = "MSG"
)

// Notification Error Codes
const (
	ErrInvalidPlacement Code = "NTF001" // Both above and below were given
	ErrUnknownSection   Code = "NTF002" // Section does not exist
	ErrInvalidArgs      Code = "NTF003" // Notify arguments cannot build a notification
)

// Configuration Error Codes
const (
	ErrNotConfigured    Code = "CON001" // No notifier installed in the registry
	ErrInvalidConfig    Code = "CON002" // Invalid configuration provided
	ErrConfigLoadFailed Code = "CON003" // Failed to load configuration
)

// Network Error Codes
const (
	ErrDeliveryFailure  Code = "NET001" // Connection or protocol failure during POST
	ErrDeliveryTimeout  Code = "NET002" // Open or read timeout
	ErrTLSFailure       Code = "NET003" // TLS handshake or certificate failure
	ErrUnexpectedStatus Code = "NET004" // Collector answered with a non-2xx status
)

// Message Error Codes
const (
	ErrEncodingFailed Code = "MSG001" // Notification could not be encoded as JSON
	ErrInvalidPayload Code = "MSG002" // Encoded document violates the wire schema
)

// ErrorInfo contains metadata about error codes
type ErrorInfo struct {
	Code        Code   `json:"code"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	// Absorbed errors are logged by the notifier and never reach the caller.
	Absorbed bool `json:"absorbed"`
}

var errorInfoMap = map[Code]ErrorInfo{
	ErrInvalidPlacement: {ErrInvalidPlacement, NotificationCategory, "ERROR", "Ambiguous field placement", false},
	ErrUnknownSection:   {ErrUnknownSection, NotificationCategory, "ERROR", "Section not found", false},
	ErrInvalidArgs:      {ErrInvalidArgs, NotificationCategory, "ERROR", "Invalid notify arguments", false},

	ErrNotConfigured:    {ErrNotConfigured, ConfigurationCategory, "CRITICAL", "Notifier not configured", false},
	ErrInvalidConfig:    {ErrInvalidConfig, ConfigurationCategory, "ERROR", "Invalid configuration provided", false},
	ErrConfigLoadFailed: {ErrConfigLoadFailed, ConfigurationCategory, "ERROR", "Failed to load configuration", false},

	ErrDeliveryFailure:  {ErrDeliveryFailure, NetworkCategory, "WARN", "Delivery to collector failed", true},
	ErrDeliveryTimeout:  {ErrDeliveryTimeout, NetworkCategory, "WARN", "Delivery to collector timed out", true},
	ErrTLSFailure:       {ErrTLSFailure, NetworkCategory, "WARN", "TLS failure talking to collector", true},
	ErrUnexpectedStatus: {ErrUnexpectedStatus, NetworkCategory, "WARN", "Collector rejected notification", true},

	ErrEncodingFailed: {ErrEncodingFailed, MessageCategory, "WARN", "Notification encoding error", true},
	ErrInvalidPayload: {ErrInvalidPayload, MessageCategory, "WARN", "Notification document is invalid", true},
}

// GetErrorInfo returns metadata for a given error code
func GetErrorInfo(code Code) ErrorInfo {
	if info, exists := errorInfoMap[code]; exists {
		return info
	}

	return ErrorInfo{
		Code:        code,
		Category:    "UNKNOWN",
		Severity:    "ERROR",
		Description: "Unknown error code",
	}
}

// IsAbsorbed reports whether errors with this code are swallowed by the notifier
func IsAbsorbed(code Code) bool {
	return GetErrorInfo(code).Absorbed
}

// GetCategory returns the category for an error code
func GetCategory(code Code) string {
	return GetErrorInfo(code).Category
}

// NewConfigError creates a configuration error
func NewConfigError(code Code, message string) *FailError {
	return New(code, message).WithContext("category", ConfigurationCategory)
}

// NewNetworkError creates a network error for the given endpoint
func NewNetworkError(code Code, endpoint string, cause error) *FailError {
	return Wrap(cause, code, GetErrorInfo(code).Description).
		WithContext("category", NetworkCategory).
		WithContext("endpoint", endpoint)
}
