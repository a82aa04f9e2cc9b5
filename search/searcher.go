package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/brightpath/coursemem/ai"
	"github.com/brightpath/coursemem/core"
	"github.com/brightpath/coursemem/storage"
)

// DefaultMinSimilarity is the similarity threshold below which matches are
// discarded.
const DefaultMinSimilarity = 0.60

// Searcher provides semantic search over a course's embedding records.
// Results never cross course boundaries.
type Searcher struct {
	repository    storage.EmbeddingRepository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the similarity threshold for matches.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = min
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	repository storage.EmbeddingRepository,
	provider ai.EmbeddingProvider,
	opts ...Option,
) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}

	s := &Searcher{
		repository:    repository,
		embedder:      provider.Embedder(),
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default().With("component", "searcher"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches a course for records similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, course core.CourseID, query string, maxHits int) ([]*core.ScoredRecord, error) {
	return s.findSimilar(ctx, course, "", query, maxHits)
}

// FindSimilarInLesson searches like FindSimilar but keeps only matches from
// the given lesson.
func (s *Searcher) FindSimilarInLesson(ctx context.Context, course core.CourseID, lesson, query string, maxHits int) ([]*core.ScoredRecord, error) {
	return s.findSimilar(ctx, course, lesson, query, maxHits)
}

func (s *Searcher) findSimilar(ctx context.Context, course core.CourseID, lesson, query string, maxHits int) ([]*core.ScoredRecord, error) {
	if course == 0 {
		return nil, ErrCourseRequired
	}
	if query == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	// Records are stored normalized; normalize the query so dot product
	// equals cosine similarity.
	embedding = core.NormalizeVector(embedding)

	// The lesson predicate runs in the repository so the limit is applied
	// within the lesson; filtering here after a course-wide top-K would let
	// other lessons' records crowd out the lesson's own matches.
	var matches []*core.ScoredRecord
	if lesson != "" {
		matches, err = s.repository.FindSimilarInLesson(ctx, course, lesson, embedding, s.minSimilarity, maxHits)
	} else {
		matches, err = s.repository.FindSimilar(ctx, course, embedding, s.minSimilarity, maxHits)
	}
	if err != nil {
		s.logger.Error("error querying for similar records", "course", course, "err", err)
		return nil, err
	}

	results := make([]*core.ScoredRecord, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		if containsVerbatim(match.Record.Content, query) {
			score += verbatimBoost
		}

		results = append(results, &core.ScoredRecord{
			Record: match.Record,
			Score:  score,
		})
	}

	// The boost can reorder what the repository returned
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}
