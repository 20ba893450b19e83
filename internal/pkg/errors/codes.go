package errors

// Code represents an error code and its message
type Code struct {
	Code    int
	Message string
}

// Error codes for the search pipeline
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternal = 1000

	// Input errors (2000-2999)
	ErrInvalidQuery = 2000

	// Search errors (3000-3999)
	ErrFatalSearch    = 3000
	ErrMetadataLookup = 3001
	ErrSourceFailure  = 3002

	// Analytics errors (4000-4999)
	ErrAnalyticsSend  = 4000
	ErrAnalyticsQueue = 4001
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, "Success"},

	ErrInternal: {ErrInternal, "Internal error"},

	ErrInvalidQuery: {ErrInvalidQuery, "Please enter a book title, author, or keyword"},

	ErrFatalSearch:    {ErrFatalSearch, "Search failed"},
	ErrMetadataLookup: {ErrMetadataLookup, "Book metadata lookup failed"},
	ErrSourceFailure:  {ErrSourceFailure, "Source request failed"},

	ErrAnalyticsSend:  {ErrAnalyticsSend, "Analytics delivery failed"},
	ErrAnalyticsQueue: {ErrAnalyticsQueue, "Analytics queue operation failed"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternal]
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsSuccess checks if the code represents success
func IsSuccess(code int) bool {
	return code == Success
}
