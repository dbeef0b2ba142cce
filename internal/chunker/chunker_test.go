package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/juridoc/ingest-go/internal/models"
	"github.com/juridoc/ingest-go/internal/tokenizer"
)

func newTestChunker(t *testing.T, cfg Config) *Chunker {
	t.Helper()
	tok, err := tokenizer.Default()
	if err != nil {
		t.Fatalf("tokenizer: %v", err)
	}
	c, err := New(tok, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNewRejectsBadConfig(t *testing.T) {
	tok, err := tokenizer.Default()
	if err != nil {
		t.Fatalf("tokenizer: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "ceiling too small", cfg: Config{MaxChunkTokens: 10, OverlapTokens: 0}},
		{name: "negative overlap", cfg: Config{MaxChunkTokens: 500, OverlapTokens: -1}},
		{name: "overlap at ceiling", cfg: Config{MaxChunkTokens: 500, OverlapTokens: 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tok, tt.cfg); err == nil {
				t.Errorf("New(%+v) expected error", tt.cfg)
			}
		})
	}
}

func TestChunkEmptyText(t *testing.T) {
	c := newTestChunker(t, DefaultConfig())

	for _, text := range []string{"", "   \n\t  "} {
		res, err := c.Chunk(text, models.DocUserDocument)
		if err != nil {
			t.Fatalf("Chunk() error = %v", err)
		}
		if len(res.Chunks) != 0 {
			t.Errorf("Chunk(%q) got %d chunks, want 0", text, len(res.Chunks))
		}
	}
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	c := newTestChunker(t, DefaultConfig())

	text := "The appeal is allowed and the impugned order of the High Court is set aside with no order as to costs."
	res, err := c.Chunk(text, models.DocCaseLaw)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(res.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(res.Chunks))
	}
	ch := res.Chunks[0]
	if ch.Text != text {
		t.Errorf("short text should pass through unchanged")
	}
	if ch.TokenCount <= 0 || ch.CharCount != len(text) {
		t.Errorf("bad counts: tokens=%d chars=%d", ch.TokenCount, ch.CharCount)
	}
	if ch.ChunkID == "" {
		t.Error("missing chunk id")
	}
}

func TestChunkExactlyAtTokenCeiling(t *testing.T) {
	tok, err := tokenizer.Default()
	if err != nil {
		t.Fatalf("tokenizer: %v", err)
	}
	cfg := Config{MaxChunkTokens: 60, OverlapTokens: 10, MinChunkChars: 10}
	c, err := New(tok, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Grow a sentence word by word until it measures exactly the ceiling.
	text := "The court held that"
	for tok.Count(text+".") < cfg.MaxChunkTokens {
		text += " jurisdiction"
	}
	text += "."
	if got := tok.Count(text); got != cfg.MaxChunkTokens {
		t.Skipf("could not construct exact-budget text, got %d tokens", got)
	}

	res, err := c.Chunk(text, models.DocCaseLaw)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(res.Chunks) != 1 {
		t.Fatalf("text at exactly the ceiling should stay one chunk, got %d", len(res.Chunks))
	}
	if res.Chunks[0].TokenCount != cfg.MaxChunkTokens {
		t.Errorf("TokenCount = %d, want %d", res.Chunks[0].TokenCount, cfg.MaxChunkTokens)
	}
	if res.OversizedCorrected != 0 {
		t.Errorf("OversizedCorrected = %d, want 0", res.OversizedCorrected)
	}
}

func TestChunkCeilingInvariant(t *testing.T) {
	cfg := Config{MaxChunkTokens: 200, OverlapTokens: 20, MinChunkChars: 50}
	c := newTestChunker(t, cfg)
	tok, _ := tokenizer.Default()

	// A long statute: many numbered sections of plain prose.
	var b strings.Builder
	for i := 1; i <= 120; i++ {
		fmt.Fprintf(&b, "%d. Every person who contravenes the provisions of this section shall be liable to a penalty determined by the adjudicating authority after affording a reasonable opportunity of being heard.\n", i)
	}

	res, err := c.Chunk(b.String(), models.DocStatute)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(res.Chunks) < 10 {
		t.Fatalf("expected many chunks for a long statute, got %d", len(res.Chunks))
	}
	for i, ch := range res.Chunks {
		if got := tok.Count(ch.Text); got > cfg.MaxChunkTokens {
			t.Errorf("chunk[%d] has %d tokens, ceiling %d", i, got, cfg.MaxChunkTokens)
		}
		if ch.ChunkIndex != i {
			t.Errorf("chunk[%d].ChunkIndex = %d", i, ch.ChunkIndex)
		}
		if ch.ChunkType != models.ChunkStatuteSection {
			t.Errorf("chunk[%d].ChunkType = %q, want statute-section", i, ch.ChunkType)
		}
	}
}

func TestChunkNoContentLoss(t *testing.T) {
	cfg := Config{MaxChunkTokens: 150, OverlapTokens: 0, MinChunkChars: 10}
	c := newTestChunker(t, cfg)

	var b strings.Builder
	for i := 1; i <= 30; i++ {
		fmt.Fprintf(&b, "%d. Clause number %d deals with the procedural requirements for service of notice on the respondent in appellate proceedings.\n", i, i)
	}

	res, err := c.Chunk(b.String(), models.DocRegulation)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}

	all := make([]string, 0, len(res.Chunks))
	for _, ch := range res.Chunks {
		all = append(all, ch.Text)
	}
	joined := strings.Join(all, "\n")
	for i := 1; i <= 30; i++ {
		marker := fmt.Sprintf("Clause number %d ", i)
		if !strings.Contains(joined, marker) {
			t.Errorf("clause %d missing from output", i)
		}
	}
}

func TestChunkOverlapSeedsNextChunk(t *testing.T) {
	cfg := Config{MaxChunkTokens: 120, OverlapTokens: 30, MinChunkChars: 20}
	c := newTestChunker(t, cfg)
	tok, _ := tokenizer.Default()

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The tribunal examined the documentary evidence placed on record by both parties before recording findings. ")
	}

	res, err := c.Chunk(b.String(), models.DocUserDocument)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(res.Chunks) < 3 {
		t.Fatalf("expected multiple chunks, got %d", len(res.Chunks))
	}
	if res.OversizedCorrected != 0 {
		t.Fatalf("no chunk should need correction, got %d", res.OversizedCorrected)
	}

	for i := 0; i+1 < len(res.Chunks); i++ {
		tail := tok.Tail(res.Chunks[i].Text, cfg.OverlapTokens)
		if tail == "" {
			t.Fatalf("empty overlap tail for chunk %d", i)
		}
		if !strings.HasPrefix(res.Chunks[i+1].Text, tail) {
			t.Errorf("chunk[%d] does not begin with the overlap tail of chunk[%d]", i+1, i)
		}
	}
}

func TestChunkForceResplitOversized(t *testing.T) {
	cfg := Config{MaxChunkTokens: 100, OverlapTokens: 0, MinChunkChars: 10}
	c := newTestChunker(t, cfg)
	tok, _ := tokenizer.Default()

	// One enormous span with no sentence boundaries at all.
	text := strings.Repeat("whereas ", 800)

	res, err := c.Chunk(text, models.DocUserDocument)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if res.OversizedCorrected == 0 {
		t.Error("expected at least one oversized correction")
	}
	if len(res.Chunks) < 2 {
		t.Fatalf("expected forced re-split into several chunks, got %d", len(res.Chunks))
	}
	for i, ch := range res.Chunks {
		if got := tok.Count(ch.Text); got > cfg.MaxChunkTokens {
			t.Errorf("chunk[%d] has %d tokens after forced re-split, ceiling %d", i, got, cfg.MaxChunkTokens)
		}
	}
}

func TestChunkKeepsConsecutiveLargeClauses(t *testing.T) {
	c := newTestChunker(t, Config{MaxChunkTokens: 100, OverlapTokens: 20, MinChunkChars: 10})

	// Every clause is large relative to the budget, so each flush leaves an
	// overlap seed that the next clause must join without evicting it.
	var sb strings.Builder
	for i := 1; i <= 6; i++ {
		sb.WriteString(fmt.Sprintf("%d. The appellate clausemark%d authority ", i, i))
		for w := 0; w < 55; w++ {
			sb.WriteString("record ")
		}
		sb.WriteString("stands affirmed.\n")
	}

	res, err := c.Chunk(sb.String(), models.DocCaseLaw)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if res.OversizedCorrected != 0 {
		t.Errorf("OversizedCorrected = %d, want 0 for in-budget clauses", res.OversizedCorrected)
	}

	var joined strings.Builder
	for _, ch := range res.Chunks {
		joined.WriteString(ch.Text)
		joined.WriteString("\n")
	}
	for i := 1; i <= 6; i++ {
		marker := fmt.Sprintf("clausemark%d", i)
		if !strings.Contains(joined.String(), marker) {
			t.Errorf("clause %d missing from every chunk", i)
		}
	}
}

func TestChunkUnbrokenOversizedText(t *testing.T) {
	tok, err := tokenizer.Default()
	if err != nil {
		t.Fatalf("tokenizer: %v", err)
	}
	c := newTestChunker(t, Config{MaxChunkTokens: 100, OverlapTokens: 10, MinChunkChars: 10})

	// No whitespace and no sentence boundaries anywhere.
	text := strings.Repeat("Zk9qW3", 900)

	res, err := c.Chunk(text, models.DocUserDocument)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(res.Chunks) < 2 {
		t.Fatalf("got %d chunks, unbroken oversized text must be cut", len(res.Chunks))
	}
	if res.OversizedCorrected == 0 {
		t.Error("OversizedCorrected = 0, want the forced re-split counted")
	}
	for i, ch := range res.Chunks {
		if got := tok.Count(ch.Text); got > 100 {
			t.Errorf("chunk[%d] has %d tokens, ceiling 100", i, got)
		}
	}
}

func TestChunkLargeStatuteScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("large corpus")
	}
	tok, err := tokenizer.Default()
	if err != nil {
		t.Fatalf("tokenizer: %v", err)
	}
	cfg := Config{MaxChunkTokens: 500, OverlapTokens: 50, MinChunkChars: 50}
	c := newTestChunker(t, cfg)

	// Heterogeneous clause sizes so buffers overflow at varying points.
	var sb strings.Builder
	sb.WriteString("The Finance and Revenue Consolidation Act.\n")
	for i := 1; i <= 600; i++ {
		sb.WriteString(fmt.Sprintf("%d. Clause provision%d applies to every assessment. ", i, i))
		width := 20 + (i*13)%90
		for w := 0; w < width; w++ {
			sb.WriteString("liability ")
		}
		sb.WriteString("shall be computed accordingly.\n")
	}
	text := sb.String()
	if got := tok.Count(text); got < 40000 {
		t.Fatalf("corpus measures %d tokens, want a large statute", got)
	}

	res, err := c.Chunk(text, models.DocStatute)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(res.Chunks) < 100 {
		t.Fatalf("got %d chunks, want 100+ at a 500-token ceiling", len(res.Chunks))
	}
	if res.OversizedCorrected != 0 {
		t.Errorf("OversizedCorrected = %d, want 0 for in-budget clauses", res.OversizedCorrected)
	}

	var joined strings.Builder
	for i, ch := range res.Chunks {
		if ch.ChunkIndex != i {
			t.Fatalf("chunk[%d].ChunkIndex = %d, indices must be sequential", i, ch.ChunkIndex)
		}
		if got := tok.Count(ch.Text); got > cfg.MaxChunkTokens {
			t.Errorf("chunk[%d] has %d tokens, ceiling %d", i, got, cfg.MaxChunkTokens)
		}
		if i > 0 {
			tail := tok.Tail(res.Chunks[i-1].Text, cfg.OverlapTokens)
			if tail != "" && !strings.HasPrefix(ch.Text, tail) {
				t.Errorf("chunk[%d] does not begin with its predecessor's tail", i)
			}
		}
		joined.WriteString(ch.Text)
		joined.WriteString("\n")
	}
	all := joined.String()
	for i := 1; i <= 600; i++ {
		marker := fmt.Sprintf("provision%d applies", i)
		if !strings.Contains(all, marker) {
			t.Errorf("clause %d missing from every chunk", i)
		}
	}
}

func TestChunkDropsTinyFragments(t *testing.T) {
	cfg := Config{MaxChunkTokens: 500, OverlapTokens: 0, MinChunkChars: 50}
	c := newTestChunker(t, cfg)

	res, err := c.Chunk("Too short.", models.DocUserDocument)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(res.Chunks) != 0 {
		t.Errorf("fragment below MinChunkChars should be dropped, got %d chunks", len(res.Chunks))
	}
}

func TestChunkSectionMetadata(t *testing.T) {
	c := newTestChunker(t, DefaultConfig())

	text := `JUDGMENT

12. The appellant relied on (2019) 4 SCC 123 in support of the first contention raised before this Court.

HELD:

13. The contention is accepted and the conviction under Section 302 of the Indian Penal Code, 1860 is set aside.
`
	res, err := c.Chunk(text, models.DocCaseLaw)
	if err != nil {
		t.Fatalf("Chunk() error = %v", err)
	}
	if len(res.Chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(res.Chunks))
	}

	first := res.Chunks[0]
	if first.SectionTitle != "JUDGMENT" || first.ChunkType != models.ChunkJudgmentBody {
		t.Errorf("chunk[0] section = %q/%q", first.SectionTitle, first.ChunkType)
	}
	if len(first.ParagraphNumbers) != 1 || first.ParagraphNumbers[0] != 12 {
		t.Errorf("chunk[0].ParagraphNumbers = %v, want [12]", first.ParagraphNumbers)
	}
	if len(first.LegalCitations) == 0 {
		t.Error("chunk[0] should carry the reporter citation")
	}

	second := res.Chunks[1]
	if second.SectionTitle != "HELD" || second.ChunkType != models.ChunkHeld {
		t.Errorf("chunk[1] section = %q/%q", second.SectionTitle, second.ChunkType)
	}
	if len(second.LegalCitations) == 0 {
		t.Error("chunk[1] should carry the statute reference")
	}
}
