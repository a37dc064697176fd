// Package sef decodes Story Editor Format containers into an outline and a
// chapter list.
//
// A container is a fixed little-endian header followed by one zlib stream.
// The inflated payload is Shift-JIS text: an indented outline, then one RTF
// document per chapter. Analysis is a pure function of the input bytes; it is
// safe to run many analyses in parallel.
//
// Only header, payload and decompression problems are errors. Everything
// after that degrades instead: undecodable bytes are dropped, unterminated
// documents run to the end, and missing documents become placeholders.
package sef

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/dgallion1/sefreader/internal/rtftext"
	"github.com/dgallion1/sefreader/internal/textcodec"
)

// TextDecoder turns inflated payload bytes into text. Implementations must
// not fail; bytes they cannot decode are dropped.
type TextDecoder interface {
	Decode(data []byte) string
}

// Options control an analysis. The zero value is usable.
type Options struct {
	Decoder             TextDecoder
	Converter           *rtftext.Converter
	Pairing             Pairing
	LogicalOrder        bool
	MaxDecompressedSize int64
	Logger              *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithDecoder substitutes the payload text decoder.
func WithDecoder(d TextDecoder) Option {
	return func(o *Options) { o.Decoder = d }
}

// WithConverter substitutes the RTF-to-text converter.
func WithConverter(c *rtftext.Converter) Option {
	return func(o *Options) { o.Converter = c }
}

// WithPairing selects the outline/document pairing strategy.
func WithPairing(p Pairing) Option {
	return func(o *Options) { o.Pairing = p }
}

// WithLogicalOrder re-sorts chapters by title rank after assembly.
func WithLogicalOrder() Option {
	return func(o *Options) { o.LogicalOrder = true }
}

// WithMaxDecompressedSize rejects payloads that inflate beyond n bytes.
func WithMaxDecompressedSize(n int64) Option {
	return func(o *Options) { o.MaxDecompressedSize = n }
}

// WithLogger enables debug tracing of each analysis stage.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.Decoder == nil {
		o.Decoder = textcodec.NewLeadByteDecoder(textcodec.Default())
	}
	if o.Converter == nil {
		o.Converter = rtftext.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Result is a successful analysis.
type Result struct {
	FileSize         int             `json:"file_size"`
	Header           Header          `json:"header"`
	PayloadOffset    int             `json:"payload_offset"`
	CompressedSize   int             `json:"compressed_size"`
	DecompressedSize int             `json:"decompressed_size"`
	TextLength       int             `json:"text_length"`
	PlainLength      int             `json:"plain_length"`
	RTFLength        int             `json:"rtf_length"`
	Quality          Quality         `json:"quality"`
	Hierarchy        []HierarchyNode `json:"hierarchy"`
	Documents        []RtfDocument   `json:"documents"`
	Chapters         []Chapter       `json:"chapters"`
}

// Analyze decodes a whole container held in memory.
func Analyze(data []byte, opts ...Option) (*Result, error) {
	o := buildOptions(opts)
	log := o.Logger

	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	log.Debug("header parsed",
		"file_size", len(data),
		"magic", fmt.Sprintf("0x%04x", header.Magic),
		"field1", header.Field1,
		"field2", header.Field2,
		"field3", header.Field3,
		"field4", header.Field4,
	)

	offset, err := LocatePayload(data)
	if err != nil {
		return nil, err
	}

	raw, err := Inflate(data, offset, o.MaxDecompressedSize)
	if err != nil {
		return nil, err
	}
	log.Debug("payload inflated", "offset", offset, "compressed", len(data)-offset, "decompressed", len(raw))

	res := analyzeText(o.Decoder.Decode(raw), o)
	res.FileSize = len(data)
	res.Header = header
	res.PayloadOffset = offset
	res.CompressedSize = len(data) - offset
	res.DecompressedSize = len(raw)
	return res, nil
}

// AnalyzeFile reads path and analyzes its contents.
func AnalyzeFile(path string, opts ...Option) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Analyze(data, opts...)
}

// AnalyzeText runs the stages after decoding on text that is already
// decoded, such as a standalone RTF file. The container fields of the
// result are zero.
func AnalyzeText(text string, opts ...Option) *Result {
	return analyzeText(text, buildOptions(opts))
}

func analyzeText(text string, o Options) *Result {
	log := o.Logger

	sections := SplitSections(text)
	hierarchy := ParseHierarchy(sections.Plain)
	docs := ExtractDocuments(sections.RTF, o.Converter)
	log.Debug("text split",
		"text_length", utf8.RuneCountInString(text),
		"plain_length", utf8.RuneCountInString(sections.Plain),
		"rtf_length", utf8.RuneCountInString(sections.RTF),
		"hierarchy", len(hierarchy),
		"documents", len(docs),
	)
	if len(hierarchy) > len(docs) {
		log.Debug("outline has more entries than documents", "missing", len(hierarchy)-len(docs), "pairing", o.Pairing.String())
	}

	chapters := AssembleChapters(sections.RTF, hierarchy, docs, o.Converter, o.Pairing)
	if o.LogicalOrder {
		chapters = OrderLogically(chapters)
	}
	log.Debug("chapters assembled", "chapters", len(chapters))

	return &Result{
		TextLength:  utf8.RuneCountInString(text),
		PlainLength: utf8.RuneCountInString(sections.Plain),
		RTFLength:   utf8.RuneCountInString(sections.RTF),
		Quality:     measureQuality(text),
		Hierarchy:   hierarchy,
		Documents:   docs,
		Chapters:    chapters,
	}
}

// AnalysisResult is the tagged form of an analysis handed to callers that
// report failures as data rather than Go errors.
type AnalysisResult struct {
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	Hierarchy []HierarchyNode `json:"hierarchy,omitempty"`
	Chapters  []Chapter       `json:"chapters,omitempty"`
	FileSize  int             `json:"file_size,omitempty"`
}

// NewAnalysisResult converts the outcome of Analyze into its tagged form.
func NewAnalysisResult(res *Result, err error) AnalysisResult {
	if err != nil {
		return AnalysisResult{Error: err.Error()}
	}
	if res == nil {
		return AnalysisResult{Error: "no result"}
	}
	return AnalysisResult{
		Success:   true,
		Hierarchy: res.Hierarchy,
		Chapters:  res.Chapters,
		FileSize:  res.FileSize,
	}
}

// AnalyzeBytes is Analyze in tagged form. It never returns a Go error.
func AnalyzeBytes(data []byte, opts ...Option) AnalysisResult {
	return NewAnalysisResult(Analyze(data, opts...))
}

// AnalyzeAsync runs Analyze on its own goroutine and delivers exactly one
// AnalysisResult on the returned channel, then closes it. If ctx ends first,
// the delivered result carries the context error; an analysis already running
// is not interrupted.
func AnalyzeAsync(ctx context.Context, data []byte, opts ...Option) <-chan AnalysisResult {
	out := make(chan AnalysisResult, 1)
	if err := ctx.Err(); err != nil {
		out <- AnalysisResult{Error: err.Error()}
		close(out)
		return out
	}
	done := make(chan AnalysisResult, 1)
	go func() {
		done <- AnalyzeBytes(data, opts...)
	}()
	go func() {
		defer close(out)
		select {
		case r := <-done:
			out <- r
		case <-ctx.Done():
			out <- AnalysisResult{Error: ctx.Err().Error()}
		}
	}()
	return out
}
