package pdfobj

import "github.com/tsawler/pdfobj/document"

// queryOptions holds the configuration used when a Query opens its file.
type queryOptions struct {
	readOnly bool
	logger   document.Logger
	maxDepth int
}

// defaultOptions returns the default query options.
func defaultOptions() queryOptions {
	return queryOptions{
		readOnly: false,
		logger:   nil, // nil means document.DefaultLogger
		maxDepth: 0,
	}
}

// documentOptions converts the options into document options.
func (o queryOptions) documentOptions() []document.Option {
	var opts []document.Option
	if o.readOnly {
		opts = append(opts, document.WithReadOnly())
	}
	if o.logger != nil {
		opts = append(opts, document.WithLogger(o.logger))
	}
	if o.maxDepth > 0 {
		opts = append(opts, document.WithMaxWalkDepth(o.maxDepth))
	}
	return opts
}
