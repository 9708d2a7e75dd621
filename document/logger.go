package document

import "github.com/tsawler/pdfobj/internal/base"

// Logger defines an interface for writing log messages.
type Logger = base.Logger

// DefaultLogger logs to the Go stdlib logs.
var DefaultLogger Logger = base.DefaultLogger{}
