package tasks

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/mixr/internal/models"
	"github.com/desertthunder/mixr/internal/shared"
)

// DefaultConcurrency is the number of searches allowed in flight at once.
const DefaultConcurrency = 10

// LetterSearcher lists external recipes whose names start with a symbol.
// Failures are reported as an empty list.
type LetterSearcher interface {
	SearchByLetter(ctx context.Context, letter string) []models.CatalogEntry
}

// FetchOpts configures [CatalogEngine.FetchCatalog].
type FetchOpts struct {
	Symbols     []string // Symbols to search (default: [Symbols])
	Concurrency int      // Maximum in-flight searches (default: [DefaultConcurrency])
	RateLimit   float64  // Searches started per second, 0 for unlimited
}

// CatalogEngine builds the full external catalog from per-symbol searches.
type CatalogEngine struct {
	source LetterSearcher
	logger *log.Logger
}

// NewCatalogEngine creates a [CatalogEngine] over source.
func NewCatalogEngine(source LetterSearcher, logger *log.Logger) *CatalogEngine {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &CatalogEngine{source: source, logger: shared.WithLogger(logger, "task", "catalog")}
}

// Symbols returns the search symbols: the digits 0-9 followed by the letters a-z.
func Symbols() []string {
	symbols := make([]string, 0, 36)
	for c := '0'; c <= '9'; c++ {
		symbols = append(symbols, string(c))
	}
	for c := 'a'; c <= 'z'; c++ {
		symbols = append(symbols, string(c))
	}
	return symbols
}

// SendProgress sends a progress update through the channel without blocking.
// A nil channel is ignored and a full channel drops the update.
func SendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// FetchCatalog searches every symbol and returns the merged catalog.
//
// It never returns nil and never fails; see the package documentation for the partial-success
// and ordering rules.
func (e *CatalogEngine) FetchCatalog(ctx context.Context, progress chan<- ProgressUpdate, opts FetchOpts) []models.CatalogEntry {
	symbols := opts.Symbols
	if symbols == nil {
		symbols = Symbols()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	total := len(symbols)
	SendProgress(progress, fetchStartedUpdate(total, concurrency))

	results := make([][]models.CatalogEntry, total)
	var completed atomic.Int32

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, symbol := range symbols {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					e.logger.Warn("skipping search", "letter", symbol, "error", err)
					SendProgress(progress, letterFetchedUpdate(int(completed.Add(1)), total, symbol, 0))
					return nil
				}
			}

			entries := e.source.SearchByLetter(ctx, symbol)
			results[i] = entries

			SendProgress(progress, letterFetchedUpdate(int(completed.Add(1)), total, symbol, len(entries)))
			return nil
		})
	}

	_ = g.Wait()

	catalog := MergeEntries(results...)
	e.logger.Debug("catalog fetched", "symbols", total, "entries", len(catalog))
	SendProgress(progress, catalogMergedUpdate(len(catalog), catalog))

	return catalog
}

// MergeEntries flattens lists, drops repeated (external id, name) pairs and sorts the result by
// name, then external id. The returned slice is never nil.
func MergeEntries(lists ...[]models.CatalogEntry) []models.CatalogEntry {
	seen := make(map[models.CatalogEntry]struct{})
	merged := make([]models.CatalogEntry, 0)

	for _, list := range lists {
		for _, entry := range list {
			if _, dup := seen[entry]; dup {
				continue
			}
			seen[entry] = struct{}{}
			merged = append(merged, entry)
		}
	}

	slices.SortStableFunc(merged, func(a, b models.CatalogEntry) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ExternalID, b.ExternalID))
	})

	return merged
}
