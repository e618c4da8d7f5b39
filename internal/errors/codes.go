package errors

// ErrorCode represents a standardized error code used throughout the API
type ErrorCode string

// Authentication error codes (AUTH_*)
const (
	AuthInvalidCredentials     ErrorCode = "AUTH_001"
	AuthMissingToken           ErrorCode = "AUTH_002"
	AuthInvalidToken           ErrorCode = "AUTH_003"
	AuthInvalidTokenFormat     ErrorCode = "AUTH_004"
	AuthInsufficientPermission ErrorCode = "AUTH_005"
	AuthAccountLocked          ErrorCode = "AUTH_006"
	AuthInvalidRefreshToken    ErrorCode = "AUTH_007"
)

// Validation error codes (VALIDATION_*)
const (
	ValidationGeneral         ErrorCode = "VALIDATION_001"
	ValidationRequiredField   ErrorCode = "VALIDATION_002"
	ValidationInvalidFormat   ErrorCode = "VALIDATION_003"
	ValidationCredentials     ErrorCode = "VALIDATION_004"
	ValidationInvalidEmail    ErrorCode = "VALIDATION_005"
	ValidationInvalidDate     ErrorCode = "VALIDATION_006"
	ValidationInvalidRange    ErrorCode = "VALIDATION_007"
	ValidationInvalidType     ErrorCode = "VALIDATION_008"
	ValidationInvalidID       ErrorCode = "VALIDATION_009"
	ValidationInvalidCategory ErrorCode = "VALIDATION_010"
)

// User error codes (USER_*)
const (
	UserNotFound      ErrorCode = "USER_001"
	UserAlreadyExists ErrorCode = "USER_002"
	UserListFailed    ErrorCode = "USER_003"
)

// Account error codes (ACCOUNT_*)
const (
	AccountNotFound       ErrorCode = "ACCOUNT_001"
	AccountCreateFailed   ErrorCode = "ACCOUNT_002"
	AccountGetFailed      ErrorCode = "ACCOUNT_003"
	AccountBalanceFailed  ErrorCode = "ACCOUNT_004"
	AccountInvalidBalance ErrorCode = "ACCOUNT_005"
)

// Category error codes (CATEGORY_*)
const (
	CategoryNotFound      ErrorCode = "CATEGORY_001"
	CategoryAlreadyExists ErrorCode = "CATEGORY_002"
	CategoryCreateFailed  ErrorCode = "CATEGORY_003"
	CategoryListFailed    ErrorCode = "CATEGORY_004"
	CategoryGetFailed     ErrorCode = "CATEGORY_005"
	CategoryRankingFailed ErrorCode = "CATEGORY_006"
)

// Transaction error codes (TRANSACTION_*)
const (
	TransactionNotFound      ErrorCode = "TRANSACTION_001"
	TransactionInvalidAmount ErrorCode = "TRANSACTION_002"
	TransactionInvalidType   ErrorCode = "TRANSACTION_003"
	TransactionCreateFailed  ErrorCode = "TRANSACTION_004"
	TransactionUpdateFailed  ErrorCode = "TRANSACTION_005"
	TransactionDeleteFailed  ErrorCode = "TRANSACTION_006"
	TransactionListFailed    ErrorCode = "TRANSACTION_007"
)

// System error codes (SYSTEM_*)
const (
	SystemInternalError      ErrorCode = "SYSTEM_001"
	SystemDatabaseError      ErrorCode = "SYSTEM_002"
	SystemServiceUnavailable ErrorCode = "SYSTEM_003"
	SystemRateLimitExceeded  ErrorCode = "SYSTEM_004"
	SystemRouteNotFound      ErrorCode = "SYSTEM_005"
)

// errorMessages maps error codes to their default human-readable messages
var errorMessages = map[ErrorCode]string{
	AuthInvalidCredentials:     "Invalid credentials",
	AuthMissingToken:           "No token provided",
	AuthInvalidToken:           "Invalid or expired token",
	AuthInvalidTokenFormat:     "Invalid token format",
	AuthInsufficientPermission: "Insufficient permissions to access this resource",
	AuthAccountLocked:          "User is locked due to too many failed login attempts",
	AuthInvalidRefreshToken:    "Invalid or expired refresh token",

	ValidationGeneral:         "Validation failed",
	ValidationRequiredField:   "Required field is missing",
	ValidationInvalidFormat:   "Invalid request body",
	ValidationCredentials:     "Email and password are required",
	ValidationInvalidEmail:    "Invalid email address format",
	ValidationInvalidDate:     "Invalid date format",
	ValidationInvalidRange:    "startDate must be before endDate",
	ValidationInvalidType:     "Invalid type",
	ValidationInvalidID:       "Invalid ID format",
	ValidationInvalidCategory: "Category name is required",

	UserNotFound:      "User not found",
	UserAlreadyExists: "A user with this email already exists",
	UserListFailed:    "Failed to get users",

	AccountNotFound:       "Account not found",
	AccountCreateFailed:   "Failed to create account",
	AccountGetFailed:      "Failed to get account",
	AccountBalanceFailed:  "Failed to get balance",
	AccountInvalidBalance: "Invalid opening balance",

	CategoryNotFound:      "Category not found",
	CategoryAlreadyExists: "A category with this name already exists",
	CategoryCreateFailed:  "Failed to create category",
	CategoryListFailed:    "Failed to get categories",
	CategoryGetFailed:     "Failed to get category",
	CategoryRankingFailed: "Failed to get category spending ranking",

	TransactionNotFound:      "Transaction not found",
	TransactionInvalidAmount: "Invalid transaction amount",
	TransactionInvalidType:   "Invalid transaction type",
	TransactionCreateFailed:  "Failed to create transaction",
	TransactionUpdateFailed:  "Failed to update transaction",
	TransactionDeleteFailed:  "Failed to delete transaction",
	TransactionListFailed:    "Failed to get transactions",

	SystemInternalError:      "An unexpected error occurred. Please contact support with trace ID",
	SystemDatabaseError:      "Database connection error",
	SystemServiceUnavailable: "Service temporarily unavailable",
	SystemRateLimitExceeded:  "Rate limit exceeded. Please try again later",
	SystemRouteNotFound:      "Resource not found",
}

// GetErrorMessage returns the default message for a given error code
// If the error code is not found, it returns a generic error message
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "An error occurred"
}

// IsValidErrorCode checks if the provided error code is a valid registered code
func IsValidErrorCode(code ErrorCode) bool {
	_, ok := errorMessages[code]
	return ok
}
