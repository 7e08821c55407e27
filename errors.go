package treedoc

import "fmt"

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeBadInput    = "bad_input"
	CodeMissing     = "required"
	CodeUnknownKey  = "unknown_key"
	CodeEmptyMatch  = "empty_match"
	CodeInvalidType = "invalid_type"
	CodeFailedTest  = "failed_test"
	CodeTestPanic   = "test_panic"
	CodeTransform   = "transform_error"
	CodeInternal    = "internal"
)

// RootPath is the sentinel used in diagnostics for failures at the document
// root, where no dotted path exists.
const RootPath = "*root*"

// ParseError reports a document that failed binding or validation against a
// schema. Filename carries the source identifier when known, Path the dotted
// path of the offending field (RootPath for the document root, empty when the
// failure precedes any path).
type ParseError struct {
	Code     string
	Filename string
	Path     string
	Detail   string
}

// Error renders the message as `<filename>: "<path>" <detail>`, omitting the
// parts that are not set. The root sentinel is not quoted.
func (e *ParseError) Error() string {
	msg := e.Detail
	switch e.Path {
	case "":
	case RootPath:
		msg = RootPath + " " + msg
	default:
		msg = fmt.Sprintf("%q %s", e.Path, msg)
	}
	if e.Filename != "" {
		msg = e.Filename + ": " + msg
	}
	return msg
}

// SchemaError reports a malformed rule while building a Schema. Schema
// construction fails fast: no partially built schema is usable.
type SchemaError struct {
	Path   string // rule path being added
	Detail string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "root rule " + e.Detail
	}
	return fmt.Sprintf("rule path %q %s", e.Path, e.Detail)
}

func schemaErrf(path, format string, args ...any) *SchemaError {
	return &SchemaError{Path: path, Detail: fmt.Sprintf(format, args...)}
}

func parseErrf(code, filename, path, format string, args ...any) *ParseError {
	return &ParseError{Code: code, Filename: filename, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// pathstr substitutes the root sentinel for an empty path in diagnostics.
func pathstr(path string) string {
	if path == "" {
		return RootPath
	}
	return path
}
