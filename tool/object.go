package tool

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kr/pretty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tsawler/pdfobj/core"
	"github.com/tsawler/pdfobj/document"
)

const summaryWidth = 60

// objectT implements the object-level tools, including both configuration
// state and the commands themselves.
type objectT struct {
	Commands []*cobra.Command
	List     *cobra.Command
	Show     *cobra.Command
	Keys     *cobra.Command
	Set      *cobra.Command
	Walk     *cobra.Command

	opts []document.Option

	// Flags.
	goSyntax bool
	decode   bool
	output   string
	readOnly bool
}

func newObject(opts []document.Option) *objectT {
	o := &objectT{opts: opts}

	o.List = &cobra.Command{
		Use:   "list <file>",
		Short: "list the objects of a document",
		Long: `
Print a table of every in-use object with its type and a summary of its
value.
`,
		Args: cobra.ExactArgs(1),
		RunE: o.runList,
	}
	o.Show = &cobra.Command{
		Use:   "show <file> <object>",
		Short: "print an object",
		Long: `
Print an object as a complete indirect object definition. With --go the
in-memory representation is printed instead; with --decode the filtered
data of a stream is printed.
`,
		Args: cobra.ExactArgs(2),
		RunE: o.runShow,
	}
	o.Keys = &cobra.Command{
		Use:   "keys <file> <object>",
		Short: "print the keys of a dictionary",
		Args:  cobra.ExactArgs(2),
		RunE:  o.runKeys,
	}
	o.Set = &cobra.Command{
		Use:   "set <file> <object> <key> <value>",
		Short: "set a dictionary entry",
		Long: `
Bind key to value in the dictionary of an object and save the document.
The value is given in PDF syntax, e.g. "/Name", "(text)" or "12 0 R".
`,
		Args: cobra.ExactArgs(4),
		RunE: o.runSet,
	}
	o.Walk = &cobra.Command{
		Use:   "walk <file> [object]",
		Short: "list the objects reachable from an object",
		Long: `
Print every indirect object reachable from an object, breadth first. The
walk starts at the document catalog when no object is given.
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: o.runWalk,
	}

	o.Show.Flags().BoolVar(&o.goSyntax, "go", false, "print the Go representation")
	o.Show.Flags().BoolVar(&o.decode, "decode", false, "print decoded stream data")
	o.Set.Flags().StringVarP(&o.output, "output", "o", "", "write to this file instead of in place")
	for _, cmd := range []*cobra.Command{o.List, o.Show, o.Keys, o.Walk} {
		cmd.Flags().BoolVar(&o.readOnly, "read-only", false, "lock every object")
	}

	o.Commands = []*cobra.Command{o.List, o.Show, o.Keys, o.Set, o.Walk}
	return o
}

func (o *objectT) open(path string) (*document.Document, error) {
	opts := o.opts
	if o.readOnly {
		opts = append(opts[:len(opts):len(opts)], document.WithReadOnly())
	}
	return document.Open(path, opts...)
}

func parseObjectNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, errors.Newf("invalid object number %q", arg)
	}
	return n, nil
}

// summarize renders obj on one line, truncated. Stream data is omitted.
func summarize(obj core.Object) string {
	if st, ok := obj.(*core.Stream); ok {
		return fmt.Sprintf("%s (%d bytes)", summarize(st.Dict), st.Len())
	}
	var b strings.Builder
	if err := core.WriteObject(&b, obj); err != nil {
		return err.Error()
	}
	s := strings.Join(strings.Fields(b.String()), " ")
	if len(s) > summaryWidth {
		s = s[:summaryWidth-3] + "..."
	}
	return s
}

func (o *objectT) runList(cmd *cobra.Command, args []string) error {
	doc, err := o.open(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	tbl := tablewriter.NewWriter(cmd.OutOrStdout())
	tbl.SetHeader([]string{"Object", "Gen", "Type", "Value"})
	tbl.SetAutoWrapText(false)
	for _, ref := range doc.Objects() {
		h, err := doc.GetObject(ref)
		if err != nil {
			tbl.Append([]string{
				strconv.Itoa(ref.Number), strconv.Itoa(ref.Generation), "?", err.Error(),
			})
			continue
		}
		obj, err := h.Value()
		if err != nil {
			return err
		}
		tbl.Append([]string{
			strconv.Itoa(ref.Number),
			strconv.Itoa(ref.Generation),
			obj.Type().String(),
			summarize(obj),
		})
	}
	tbl.Render()
	return nil
}

func (o *objectT) runShow(cmd *cobra.Command, args []string) error {
	num, err := parseObjectNumber(args[1])
	if err != nil {
		return err
	}
	doc, err := o.open(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	h, err := doc.ObjectAt(num)
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()
	switch {
	case o.decode:
		data, err := h.StreamData()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	case o.goSyntax:
		obj, err := h.Value()
		if err != nil {
			return err
		}
		_, err = pretty.Fprintf(stdout, "%# v\n", obj)
		return err
	default:
		return writeDefinition(stdout, h)
	}
}

// writeDefinition prints h without committing it, so that show never
// changes the document.
func writeDefinition(w io.Writer, h *document.Handle) error {
	obj, err := h.Value()
	if err != nil {
		return err
	}
	return core.WriteIndirect(w, h.Ref(), obj)
}

func (o *objectT) runKeys(cmd *cobra.Command, args []string) error {
	num, err := parseObjectNumber(args[1])
	if err != nil {
		return err
	}
	doc, err := o.open(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	h, err := doc.ObjectAt(num)
	if err != nil {
		return err
	}
	d, err := h.AsDictionary()
	if err != nil {
		return err
	}
	keys, err := d.Keys()
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()
	for k := range keys {
		raw, err := d.GetRaw(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "/%s\t%s\n", k, summarize(raw))
	}
	return nil
}

func (o *objectT) runSet(cmd *cobra.Command, args []string) error {
	num, err := parseObjectNumber(args[1])
	if err != nil {
		return err
	}
	val, err := core.NewParser(strings.NewReader(args[3])).ParseObject()
	if err != nil {
		return errors.Wrapf(err, "parsing value %q", args[3])
	}

	doc, err := o.open(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	h, err := doc.ObjectAt(num)
	if err != nil {
		return err
	}
	d, err := h.AsDictionary()
	if err != nil {
		return err
	}
	if err := d.Set(strings.TrimPrefix(args[2], "/"), val); err != nil {
		return err
	}

	output := o.output
	if output == "" {
		output = args[0]
	}
	// The document reads lazily from args[0], so the new contents are
	// serialized before the file is replaced.
	if err := doc.SaveFile(output).Wait(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
	return nil
}

func (o *objectT) runWalk(cmd *cobra.Command, args []string) error {
	doc, err := o.open(args[0])
	if err != nil {
		return err
	}
	defer doc.Close()

	var start core.Ref
	if len(args) == 2 {
		num, err := parseObjectNumber(args[1])
		if err != nil {
			return err
		}
		h, err := doc.ObjectAt(num)
		if err != nil {
			return err
		}
		start = h.Ref()
	} else {
		root, err := doc.Root()
		if err != nil {
			return err
		}
		start = root.Ref()
	}

	stdout := cmd.OutOrStdout()
	return doc.Walk(start, func(h *document.Handle) error {
		typ, err := h.Type()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s\t%s\n", h.Ref(), typ)
		return nil
	})
}
