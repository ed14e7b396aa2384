package vecindex

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/poiesic/corpuskit/ai"
	"github.com/poiesic/corpuskit/core"
	badgerstore "github.com/poiesic/corpuskit/storage/badger"
)

// Search defaults.
const (
	DefaultSearchLimit  = 5
	DefaultChunkSize    = 50000
	DefaultSnippetChars = 240
	DefaultOversample   = 20
)

// SearchParams configures one vector search.
type SearchParams struct {
	// Limit bounds the number of returned hits. <= 0 means
	// DefaultSearchLimit.
	Limit int

	// ChunkSize is the number of matrix rows scored per read. <= 0 means
	// DefaultChunkSize.
	ChunkSize int

	// SnippetChars bounds the returned snippet. 0 means
	// DefaultSnippetChars; negative disables snippets.
	SnippetChars int

	// Sources filters hits by source name. The filter runs after the
	// nearest-neighbor pass; oversampling compensates for rows it drops.
	Sources []string

	// Oversample multiplies the candidate list size when a source filter
	// is active. <= 0 means DefaultOversample.
	Oversample int
}

func (p SearchParams) withDefaults() SearchParams {
	if p.Limit <= 0 {
		p.Limit = DefaultSearchLimit
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = DefaultChunkSize
	}
	switch {
	case p.SnippetChars == 0:
		p.SnippetChars = DefaultSnippetChars
	case p.SnippetChars < 0:
		p.SnippetChars = 0
	}
	if p.Oversample <= 0 {
		p.Oversample = DefaultOversample
	}
	return p
}

// Searcher answers nearest-neighbor queries against a built index.
type Searcher struct {
	indexDir string
	embedder ai.Embedder
	model    string
	logger   *slog.Logger
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithSearcherLogger sets a custom logger.
// Default is slog.Default().
func WithSearcherLogger(logger *slog.Logger) SearcherOption {
	return func(s *Searcher) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSearcher creates a Searcher over an index directory. model is the
// identifier of the embedding model behind embedder; it must match the
// model recorded in the index descriptor or Search fails with
// core.ErrModelMismatch.
func NewSearcher(indexDir string, embedder ai.Embedder, model string, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		indexDir: indexDir,
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "vecindex_searcher"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// candidate is one scored matrix row.
type candidate struct {
	score float64
	row   uint64
}

// Search embeds the query, scores it against every matrix row in chunks,
// and returns the top hits by descending similarity. Metadata is fetched
// only for the finally selected rows.
func (s *Searcher) Search(ctx context.Context, query string, p SearchParams) ([]core.ScoredHit, error) {
	p = p.withDefaults()

	desc, err := ReadDescriptor(s.indexDir)
	if err != nil {
		return nil, err
	}
	if desc.Model != s.model {
		return nil, fmt.Errorf("index built with %q, searcher configured with %q: %w",
			desc.Model, s.model, core.ErrModelMismatch)
	}

	qvec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	if len(qvec) != desc.VectorDim {
		return nil, fmt.Errorf("query embedding dim %d, index dim %d: %w",
			len(qvec), desc.VectorDim, core.ErrModelMismatch)
	}
	qvec = NormalizeVector(qvec)

	matrix, err := OpenMatrix(filepath.Join(s.indexDir, MatrixName), desc.TotalRecords, desc.VectorDim)
	if err != nil {
		return nil, err
	}
	defer matrix.Close()

	sourceSet := sourceFilter(p.Sources)
	candidateLimit := p.Limit
	if len(sourceSet) > 0 {
		candidateLimit = min(matrix.Rows(), max(p.Limit, p.Limit*p.Oversample))
	}

	candidates, err := s.scanMatrix(matrix, qvec, candidateLimit, p.ChunkSize)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	hits, err := s.resolveHits(ctx, candidates, sourceSet, p.Limit, p.SnippetChars)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("vector search done",
		"rows", matrix.Rows(), "candidates", len(candidates), "hits", len(hits))
	return hits, nil
}

// scanMatrix scores the whole matrix chunk by chunk, keeping the best
// candidateLimit rows sorted by descending similarity.
func (s *Searcher) scanMatrix(matrix *Matrix, qvec []float32, candidateLimit, chunkSize int) ([]candidate, error) {
	var top []candidate
	var buf []float32

	dim := matrix.Dim()
	for start := 0; start < matrix.Rows(); start += chunkSize {
		count := min(chunkSize, matrix.Rows()-start)
		chunk, err := matrix.ReadRows(start, count, buf)
		if err != nil {
			return nil, err
		}
		buf = chunk

		for i := 0; i < count; i++ {
			score := float64(dotProduct(chunk[i*dim:(i+1)*dim], qvec))
			if len(top) >= candidateLimit && score <= top[len(top)-1].score {
				continue
			}
			top = append(top, candidate{score: score, row: uint64(start + i)})
			sort.Slice(top, func(a, b int) bool { return top[a].score > top[b].score })
			if len(top) > candidateLimit {
				top = top[:candidateLimit]
			}
		}
	}
	return top, nil
}

// resolveHits fetches metadata for the candidate rows, applies the source
// filter, and truncates to limit.
func (s *Searcher) resolveHits(ctx context.Context, candidates []candidate, sourceSet map[string]bool, limit, snippetChars int) ([]core.ScoredHit, error) {
	backend, err := badgerstore.OpenBackend(filepath.Join(s.indexDir, MetaDirName), false)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", MetaDirName, core.ErrIndexIncomplete)
	}
	rowStore, err := badgerstore.NewRowStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	defer rowStore.Close()

	ids := make([]uint64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.row
	}
	rows, err := rowStore.GetRows(ctx, ids...)
	if err != nil {
		return nil, err
	}

	var hits []core.ScoredHit
	for _, c := range candidates {
		row, ok := rows[c.row]
		if !ok {
			continue
		}
		if len(sourceSet) > 0 && !sourceSet[strings.ToLower(row.Source)] {
			continue
		}
		hits = append(hits, row.Hit(c.score, snippetChars))
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

func sourceFilter(sources []string) map[string]bool {
	set := make(map[string]bool, len(sources))
	for _, s := range sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = true
		}
	}
	return set
}
