package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgallion1/sefreader/internal/chunker"
	"github.com/dgallion1/sefreader/internal/doctree"
	"github.com/dgallion1/sefreader/internal/export"
	"github.com/dgallion1/sefreader/internal/parser"
	"github.com/dgallion1/sefreader/internal/sef"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze a file and list its chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.analyze(cmd, args[0])
			if asJSON {
				if jerr := writeJSON(cmd, sef.NewAnalysisResult(res, err)); jerr != nil {
					return jerr
				}
				return err
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s, %d outline entries, %d documents, %d chapters\n",
				args[0], humanize.Bytes(uint64(res.FileSize)),
				len(res.Hierarchy), len(res.Documents), len(res.Chapters))

			rows := make([][]string, 0, len(res.Chapters))
			for i, ch := range res.Chapters {
				source := strconv.Itoa(ch.SourceIndex)
				if ch.IsPlaceholder() {
					source = "-"
				}
				rows = append(rows, []string{
					strconv.Itoa(i),
					indentTitle(ch.Title, ch.Level),
					humanize.Comma(int64(ch.Size)),
					source,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Chars", "Document"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tagged analysis result as JSON")
	return cmd
}

func newTreeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Show the outline as a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.analyze(cmd, args[0])
			if err != nil {
				return err
			}
			tree := doctree.Build(parser.Title(args[0]), res.Chapters)
			fmt.Fprintln(cmd.OutOrStdout(), tree.Title)
			fmt.Fprintln(cmd.OutOrStdout(), renderOutline(tree))
			return nil
		},
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var chapter int
	var page int
	var pageSize int

	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print one chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.analyze(cmd, args[0])
			if err != nil {
				return err
			}
			if chapter < 0 || chapter >= len(res.Chapters) {
				return fmt.Errorf("chapter %d out of range (0-%d)", chapter, len(res.Chapters)-1)
			}
			ch := res.Chapters[chapter]
			out := cmd.OutOrStdout()

			if page < 0 {
				fmt.Fprintf(out, "%s\n\n%s\n", ch.Title, ch.Content)
				return nil
			}
			pages := chunker.SplitText(ch.Content, chunker.Config{PageSize: pageSize})
			if page >= len(pages) {
				return fmt.Errorf("page %d out of range (chapter has %d)", page, len(pages))
			}
			fmt.Fprintf(out, "%s [%d/%d]\n\n%s\n", ch.Title, page+1, len(pages), pages[page])
			return nil
		},
	}
	cmd.Flags().IntVarP(&chapter, "chapter", "n", 0, "Chapter index")
	cmd.Flags().IntVarP(&page, "page", "p", -1, "Page within the chapter (default: whole chapter)")
	cmd.Flags().IntVar(&pageSize, "page-size", chunker.DefaultConfig().PageSize, "Page size in characters")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export all chapters as txt, md, html or docx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := export.ForFormat(format)
			if err != nil {
				return err
			}
			res, err := ctx.analyze(cmd, args[0])
			if err != nil {
				return err
			}
			doc := export.NewDocument(parser.Title(args[0]), res.Chapters)

			if output == "" || output == "-" {
				return exp.Export(cmd.OutOrStdout(), doc)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := exp.Export(f, doc); err != nil {
				f.Close()
				return fmt.Errorf("export %s: %w", output, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d chapters to %s\n", len(res.Chapters), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "txt", "Output format: txt, md, html, docx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show container header and payload statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ctx.analyze(cmd, args[0])
			if err != nil {
				return err
			}
			h := res.Header
			rows := [][]string{
				{"magic", fmt.Sprintf("0x%04x", h.Magic)},
				{"field1", strconv.FormatUint(uint64(h.Field1), 10)},
				{"field2", strconv.FormatUint(uint64(h.Field2), 10)},
				{"field3", strconv.FormatUint(uint64(h.Field3), 10)},
				{"field4", strconv.FormatUint(uint64(h.Field4), 10)},
				{"file size", humanize.Comma(int64(res.FileSize))},
				{"payload offset", strconv.Itoa(res.PayloadOffset)},
				{"compressed", humanize.Comma(int64(res.CompressedSize))},
				{"decompressed", humanize.Comma(int64(res.DecompressedSize))},
				{"text chars", humanize.Comma(int64(res.TextLength))},
				{"outline chars", humanize.Comma(int64(res.PlainLength))},
				{"rtf chars", humanize.Comma(int64(res.RTFLength))},
				{"printable", fmt.Sprintf("%.1f%%", res.Quality.PrintableRatio*100)},
				{"control runes", strconv.Itoa(res.Quality.ControlRunes)},
				{"private use", strconv.Itoa(res.Quality.PrivateUse)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
