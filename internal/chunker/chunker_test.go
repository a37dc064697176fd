package chunker

import (
	"strings"
	"testing"

	"github.com/dgallion1/sefreader/internal/doctree"
)

func TestChunkTree_SmallChapterFitsOnePage(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Small",
		Children: []*doctree.DocNode{
			{Title: "Section", Text: strings.Repeat("あ", 200)},
		},
	}

	chunks := ChunkTree(tree, Config{PageSize: 500})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[0].Page != 0 {
		t.Errorf("expected index 0 page 0, got %d/%d", chunks[0].Index, chunks[0].Page)
	}
	if CountChars(chunks[0].Text) != 200 {
		t.Errorf("expected 200 characters, got %d", CountChars(chunks[0].Text))
	}
}

func TestChunkTree_LargeChapterRequiresSplitting(t *testing.T) {
	line := strings.Repeat("吾輩は猫である。名前はまだ無い。", 10)
	text := strings.TrimSuffix(strings.Repeat(line+"\n", 20), "\n")

	tree := &doctree.DocTree{
		Title:    "Large",
		Children: []*doctree.DocNode{{Title: "Big Section", Text: text, Chapter: 3}},
	}

	cfg := Config{PageSize: 500}
	chunks := ChunkTree(tree, cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks for large text, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i || c.Page != i {
			t.Errorf("chunk %d: expected index and page %d, got %d/%d", i, i, c.Index, c.Page)
		}
		if c.Chapter != 3 {
			t.Errorf("chunk %d: expected chapter 3, got %d", i, c.Chapter)
		}
		if n := CountChars(c.Text); n > cfg.PageSize {
			t.Errorf("chunk %d: %d characters exceeds page size %d", i, n, cfg.PageSize)
		}
	}
}

func TestChunkTree_BreadcrumbPropagation(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Doc",
		Children: []*doctree.DocNode{
			{
				Title: "第一部",
				Text:  "intro",
				Children: []*doctree.DocNode{
					{Title: "第1章", Text: "body", Chapter: 1},
				},
			},
		},
	}

	chunks := ChunkTree(tree, DefaultConfig())

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	bc := chunks[1].Breadcrumb
	want := []string{"第一部", "第1章"}
	if len(bc) != len(want) {
		t.Fatalf("expected breadcrumb %v, got %v", want, bc)
	}
	for i := range want {
		if bc[i] != want[i] {
			t.Errorf("breadcrumb[%d]: expected %q, got %q", i, want[i], bc[i])
		}
	}
}

func TestChunkTree_BreadcrumbIsolation(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Doc",
		Children: []*doctree.DocNode{
			{Title: "A", Text: "alpha"},
			{Title: "B", Text: "beta", Chapter: 1},
		},
	}

	chunks := ChunkTree(tree, DefaultConfig())

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Breadcrumb) != 1 || chunks[0].Breadcrumb[0] != "A" {
		t.Errorf("chunk 0 breadcrumb: expected [A], got %v", chunks[0].Breadcrumb)
	}
	if len(chunks[1].Breadcrumb) != 1 || chunks[1].Breadcrumb[0] != "B" {
		t.Errorf("chunk 1 breadcrumb: expected [B], got %v", chunks[1].Breadcrumb)
	}
}

func TestChunkTree_SkipsPlaceholders(t *testing.T) {
	tree := &doctree.DocTree{
		Title: "Doc",
		Children: []*doctree.DocNode{
			{Title: "Container", Text: "（対応するコンテンツがありません）", Placeholder: true, Children: []*doctree.DocNode{
				{Title: "Leaf", Text: "leaf content", Chapter: 1},
			}},
		},
	}

	chunks := ChunkTree(tree, DefaultConfig())

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Chapter != 1 {
		t.Errorf("expected chapter 1, got %d", chunks[0].Chapter)
	}
	want := []string{"Container", "Leaf"}
	for i := range want {
		if chunks[0].Breadcrumb[i] != want[i] {
			t.Errorf("breadcrumb[%d]: expected %q, got %q", i, want[i], chunks[0].Breadcrumb[i])
		}
	}
}

func TestChunkTree_EmptyTree(t *testing.T) {
	chunks := ChunkTree(&doctree.DocTree{Title: "Empty"}, DefaultConfig())
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestSplitText_PreservesText(t *testing.T) {
	text := "一行目。\n\n" + strings.Repeat("長い文です。", 50) + "\n最後の行"
	pages := SplitText(text, Config{PageSize: 40})
	if len(pages) < 2 {
		t.Fatalf("expected several pages, got %d", len(pages))
	}
	strip := func(s string) string { return strings.ReplaceAll(s, "\n", "") }
	if got := strip(strings.Join(pages, "")); got != strip(text) {
		t.Errorf("expected pages to cover the text exactly\nwant %q\ngot  %q", strip(text), got)
	}
}

func TestSplitText_CutsOnSentenceEnd(t *testing.T) {
	text := strings.Repeat("あいうえお。", 10)
	pages := SplitText(text, Config{PageSize: 14})
	for i, p := range pages {
		if !strings.HasSuffix(p, "。") {
			t.Errorf("page %d: expected to end on a sentence, got %q", i, p)
		}
	}
}

func TestSplitText_KeepsClosingQuote(t *testing.T) {
	parts := splitSentences("「行くぞ！」と言った。次")
	want := []string{"「行くぞ！」", "と言った。", "次"}
	if len(parts) != len(want) {
		t.Fatalf("expected %v, got %v", want, parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d: expected %q, got %q", i, want[i], parts[i])
		}
	}
}

func TestSplitText_HardCutsLongSentence(t *testing.T) {
	pages := SplitText(strings.Repeat("あ", 25), Config{PageSize: 10})
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if CountChars(pages[2]) != 5 {
		t.Errorf("expected last page of 5 characters, got %d", CountChars(pages[2]))
	}
}

func TestSplitText_Overlap(t *testing.T) {
	pages := SplitText(strings.Repeat("あいうえお。", 4), Config{PageSize: 12, PageOverlap: 3})
	if len(pages) < 2 {
		t.Fatalf("expected several pages, got %d", len(pages))
	}
	if !strings.HasPrefix(pages[1], "えお。") {
		t.Errorf("expected page 1 to repeat the tail of page 0, got %q", pages[1])
	}
}

func TestSplitText_Empty(t *testing.T) {
	if pages := SplitText("\n \n", DefaultConfig()); pages != nil {
		t.Errorf("expected no pages, got %v", pages)
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{PageOverlap: -1}.withDefaults()
	if cfg.PageSize != defaultPageSize || cfg.PageOverlap != 0 {
		t.Errorf("unexpected config %+v", cfg)
	}
	cfg = Config{PageSize: 10, PageOverlap: 10}.withDefaults()
	if cfg.PageOverlap != 0 {
		t.Errorf("expected overlap to be dropped when not smaller than the page, got %d", cfg.PageOverlap)
	}
}
