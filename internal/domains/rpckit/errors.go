package rpckit

// Error is a transport-level RPC error that can be mapped by the caller
// to a concrete wire format (e.g. JSON-RPC error object).
type Error struct {
	Code    int
	Message string
	Data    any
	// Category names the layer that failed; it is logged, never sent.
	Category string
}

func (e *Error) Error() string {
	return e.Message
}

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602

	CodeProgramError   = -32000
	CodeUnauthorized   = -32001
	CodeRecordInvalid  = -32009
	CodeRateLimited    = -32029
	CodeInternal       = -32099
	CodeLedgerFirst    = -32010
	CodeRuntimeFirst   = -32020
	CodeServiceMissing = -32098
)

// ProgramErrorData travels in the data member of a CodeProgramError response.
type ProgramErrorData struct {
	Code uint32 `json:"code"`
	Name string `json:"name"`
}

func InvalidParams() *Error {
	return &Error{Code: CodeInvalidParams, Message: "invalid params"}
}

func MethodNotFound() *Error {
	return &Error{Code: CodeMethodNotFound, Message: "method not found"}
}

func ServiceError(code int, err error) *Error {
	return &Error{Code: code, Message: err.Error()}
}
