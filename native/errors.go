package native

import "fmt"

// ErrorCode mirrors Z3_error_code.
type ErrorCode int

const (
	OK               ErrorCode = 0
	SortError        ErrorCode = 1
	IndexOutOfBounds ErrorCode = 2
	InvalidArg       ErrorCode = 3
	ParserError      ErrorCode = 4
	NoParser         ErrorCode = 5
	InvalidPattern   ErrorCode = 6
	MemoutFail       ErrorCode = 7
	FileAccessError  ErrorCode = 8
	InternalFatal    ErrorCode = 9
	InvalidUsage     ErrorCode = 10
	DecRefError      ErrorCode = 11
	Exception        ErrorCode = 12
)

var codeNames = map[ErrorCode]string{
	OK:               "OK",
	SortError:        "SORT_ERROR",
	IndexOutOfBounds: "IOB",
	InvalidArg:       "INVALID_ARG",
	ParserError:      "PARSER_ERROR",
	NoParser:         "NO_PARSER",
	InvalidPattern:   "INVALID_PATTERN",
	MemoutFail:       "MEMOUT_FAIL",
	FileAccessError:  "FILE_ACCESS_ERROR",
	InternalFatal:    "INTERNAL_FATAL",
	InvalidUsage:     "INVALID_USAGE",
	DecRefError:      "DEC_REF_ERROR",
	Exception:        "EXCEPTION",
}

func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ERROR_%d", int(c))
}

// Error is a failure reported by the engine.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "z3: " + e.Code.String()
	}
	return fmt.Sprintf("z3: %s: %s", e.Code, e.Message)
}

// Errorf builds an *Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
