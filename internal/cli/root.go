// Package cli implements the sectionize command line tool.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsection/internal/doctree"
	"github.com/dgallion1/docsection/internal/parser"
	"github.com/dgallion1/docsection/internal/render"
	"github.com/dgallion1/docsection/internal/sectionize"
	"github.com/dgallion1/docsection/internal/version"
	"github.com/spf13/cobra"
)

// flags shared by the root command and its subcommands.
type flags struct {
	maxDepth     int
	orphans      string
	contentTypes string
	markers      string
	fileType     string
	title        string
	pdftotext    bool
	verbose      bool
}

func (f *flags) register(cmd *cobra.Command) {
	defaults := sectionize.DefaultOptions()
	pf := cmd.PersistentFlags()
	pf.IntVar(&f.maxDepth, "max-depth", defaults.MaxHeadingDepth, "Deepest heading level that opens a section")
	pf.StringVar(&f.orphans, "orphans", string(defaults.OrphanPolicy), "Orphan policy (none, wrap-orphans, wrap-intro)")
	pf.StringVar(&f.contentTypes, "content-types", kindList(defaults.ContentNodeTypes), "Node kinds wrap-orphans may start a section at")
	pf.StringVar(&f.markers, "markers", kindList(defaults.MarkerTypes), "Node kinds that always end a section")
	pf.StringVar(&f.fileType, "type", "", "Input type as an extension (md, mdx, html, ...); required for stdin")
	pf.StringVar(&f.title, "title", "", "Override the document title")
	pf.BoolVar(&f.pdftotext, "pdftotext", true, "Fall back to pdftotext for PDFs the native reader cannot handle")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log progress to stderr")
}

func (f *flags) options() (sectionize.Options, error) {
	policy, err := sectionize.ParseOrphanPolicy(f.orphans)
	if err != nil {
		return sectionize.Options{}, err
	}
	opts := sectionize.Options{
		MaxHeadingDepth:  f.maxDepth,
		ContentNodeTypes: sectionize.ParseKinds(f.contentTypes),
		MarkerTypes:      sectionize.ParseKinds(f.markers),
		OrphanPolicy:     policy,
	}
	return opts, opts.Validate()
}

// load reads, parses and sectionizes the input named by args.
func (f *flags) load(cmd *cobra.Command, args []string) (*doctree.DocTree, sectionize.Result, error) {
	log := newLogger(cmd.ErrOrStderr(), f.verbose)

	opts, err := f.options()
	if err != nil {
		return nil, sectionize.Result{}, err
	}

	name := "-"
	if len(args) > 0 {
		name = args[0]
	}
	var data []byte
	if name == "-" {
		if f.fileType == "" {
			return nil, sectionize.Result{}, fmt.Errorf("--type is required when reading stdin")
		}
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, sectionize.Result{}, err
	}

	filename := name
	if f.fileType != "" {
		base := "stdin"
		if name != "-" {
			base = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		}
		filename = base + "." + strings.TrimPrefix(f.fileType, ".")
	}
	p, err := parser.ForFile(filename, parser.Options{PDFFallbackPdftotext: f.pdftotext})
	if err != nil {
		return nil, sectionize.Result{}, err
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, sectionize.Result{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if f.title != "" {
		tree.Title = f.title
	}
	log.Debug("parsed document", "input", name, "bytes", len(data), "nodes", len(tree.Root.Children))

	s, err := sectionize.New(opts)
	if err != nil {
		return nil, sectionize.Result{}, err
	}
	res, err := s.Apply(tree.Root)
	if err != nil {
		return nil, sectionize.Result{}, err
	}
	log.Debug("sectioned document", "input", name, "sections", res.Total(), "orphans", res.Orphans)
	return tree, res, nil
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	var format string
	var summary bool

	root := &cobra.Command{
		Use:   "sectionize [file|-]",
		Short: "Group document headings and their content into sections",
		Long: `sectionize parses a document (Markdown, MDX, HTML, DOCX, PDF, CSV or text)
and nests every heading together with the content that follows it inside a
section node, then prints the result as JSON, HTML or an outline.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rf, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			tree, res, err := f.load(cmd, args)
			if err != nil {
				return err
			}
			if err := render.Render(cmd.OutOrStdout(), tree, rf); err != nil {
				return err
			}
			if summary {
				printSummary(cmd.ErrOrStderr(), tree.Title, res)
			}
			return nil
		},
	}
	root.Version = version.Version
	root.SetVersionTemplate(version.String("sectionize") + "\n")

	f.register(root)
	root.Flags().StringVarP(&format, "format", "f", string(render.FormatOutline), "Output format (json, html, outline)")
	root.Flags().BoolVar(&summary, "summary", false, "Print section counts to stderr")

	root.AddCommand(newChunkCmd(f))
	return root
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func kindList(kinds []doctree.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ",")
}
