// Package tool implements the pdfobj command line tools.
package tool

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/pdfobj/document"
	"github.com/tsawler/pdfobj/internal/base"
)

// T is the container for all of the introspection tools.
type T struct {
	Commands []*cobra.Command
	object   *objectT
	opts     []document.Option
}

// Option is a tool configuration option.
type Option func(*T)

// Logger sets the logger documents opened by the tools report to.
func Logger(l base.Logger) Option {
	return func(t *T) {
		t.opts = append(t.opts, document.WithLogger(l))
	}
}

// New creates a new introspection tool.
func New(opts ...Option) *T {
	t := &T{}
	for _, opt := range opts {
		opt(t)
	}
	t.object = newObject(t.opts)
	t.Commands = t.object.Commands
	return t
}
