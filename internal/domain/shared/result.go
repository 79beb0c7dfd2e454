package shared

import "fmt"

// Result is the tagged outcome every service operation returns.
// OK distinguishes success from failure, Code is a stable machine-readable
// identifier, Message is a human-readable sentence and Data carries
// structured context (identifiers, quantities, available vs required).
//
// Callers dispatch on Code; the engine does no localization.
type Result struct {
	OK      bool
	Code    string
	Message string
	Data    map[string]interface{}
}

// Stable result codes shared across components. Component-specific codes
// live next to the service that produces them.
const (
	CodeOK              = "OK"
	CodeValidation      = "VALIDATION"
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeItemNotFound    = "ITEM_NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Ok builds a successful result with optional payload
func Ok(data map[string]interface{}) Result {
	return Result{OK: true, Code: CodeOK, Data: data}
}

// OkMsg builds a successful result with a message and payload
func OkMsg(message string, data map[string]interface{}) Result {
	return Result{OK: true, Code: CodeOK, Message: message, Data: data}
}

// Fail builds a failed result with a stable code and formatted message
func Fail(code, format string, args ...interface{}) Result {
	return Result{OK: false, Code: code, Message: fmt.Sprintf(format, args...)}
}

// FailData builds a failed result carrying structured context
func FailData(code, message string, data map[string]interface{}) Result {
	return Result{OK: false, Code: code, Message: message, Data: data}
}

// WithData returns a copy of the result with the given key set in Data
func (r Result) WithData(key string, value interface{}) Result {
	if r.Data == nil {
		r.Data = make(map[string]interface{})
	}
	r.Data[key] = value
	return r
}

// Err exposes a failed result as an error for callers that propagate
// through error-returning code paths. Returns nil for successful results.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%s: %s", r.Code, r.Message)
}
