package spango

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/spango/blobstore"
	"github.com/hupe1980/spango/index"
	"github.com/hupe1980/spango/span"
)

// CurrentName is the blob holding the name of the latest snapshot manifest.
const CurrentName = "CURRENT"

// Index is an embedded positional full-text index. Documents accumulate in
// an active segment builder; once the builder reaches the configured segment
// size it is sealed into an immutable segment. Searches observe all documents
// added before the call.
//
// Safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	sealed []*index.Segment
	bases  []uint32 // global doc ID base per sealed segment
	active *index.Builder
	opts   options
}

// New creates an empty index.
func New(optFns ...Option) *Index {
	return &Index{
		active: index.NewBuilder(),
		opts:   applyOptions(optFns),
	}
}

// NumDocs returns the total number of indexed documents.
func (idx *Index) NumDocs() uint32 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.nextBase() + idx.active.NumDocs()
}

// AddDocument tokenizes and indexes a document, returning its global ID.
func (idx *Index) AddDocument(text string) (uint32, error) {
	start := time.Now()

	idx.mu.Lock()
	doc := idx.nextBase() + idx.active.AddDocument(text)
	idx.sealIfFull()
	idx.mu.Unlock()

	idx.opts.metricsCollector.RecordIndex(time.Since(start), nil)
	idx.opts.logger.LogIndex(context.Background(), doc, len(index.Tokenize(text)), nil)
	return doc, nil
}

// AddDocumentWithMarkers indexes a document together with its marker spans
// in one step, so the markers cannot land after the segment seals.
func (idx *Index) AddDocumentWithMarkers(text string, markers map[string][]span.Span) (uint32, error) {
	start := time.Now()

	idx.mu.Lock()
	local := idx.active.AddDocument(text)
	doc := idx.nextBase() + local
	for name, spans := range markers {
		if err := idx.active.AddMarkerSpans(local, name, spans); err != nil {
			idx.mu.Unlock()
			idx.opts.metricsCollector.RecordIndex(time.Since(start), err)
			return 0, err
		}
	}
	idx.sealIfFull()
	idx.mu.Unlock()

	idx.opts.metricsCollector.RecordIndex(time.Since(start), nil)
	idx.opts.logger.LogIndex(context.Background(), doc, len(index.Tokenize(text)), nil)
	return doc, nil
}

// AddMarkerSpans records named spans (for example sentence boundaries) on a
// previously added document. Markers can only be added while the document's
// segment is still open, so callers should attach them right after
// AddDocument.
func (idx *Index) AddMarkerSpans(doc uint32, name string, spans []span.Span) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	base := idx.nextBase()
	if doc < base {
		return fmt.Errorf("document %d is in a sealed segment", doc)
	}
	return idx.active.AddMarkerSpans(doc-base, name, spans)
}

// nextBase returns the global doc ID of the next document added to the
// active builder. Callers must hold mu.
func (idx *Index) nextBase() uint32 {
	if len(idx.sealed) == 0 {
		return 0
	}
	return idx.bases[len(idx.bases)-1] + idx.sealed[len(idx.sealed)-1].NumDocs()
}

// sealIfFull seals the active builder once it reaches the segment size.
// Callers must hold mu.
func (idx *Index) sealIfFull() {
	if idx.active.NumDocs() >= idx.opts.segmentSize {
		idx.seal()
	}
}

// seal converts the active builder into an immutable segment and starts a
// fresh builder. Callers must hold mu.
func (idx *Index) seal() {
	if idx.active.NumDocs() == 0 {
		return
	}
	idx.bases = append(idx.bases, idx.nextBase())
	idx.sealed = append(idx.sealed, idx.active.Seal())
	idx.active = index.NewBuilder()
}

// view returns the sealed segments and their bases, sealing the active
// builder first so pending documents become searchable.
func (idx *Index) view() ([]*index.Segment, []uint32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.seal()
	return idx.sealed, idx.bases
}

// Save encodes all segments and writes them to the store, then commits a
// manifest and points CURRENT at it. Segment blobs are immutable; each save
// writes a fresh snapshot directory keyed by commit time.
func (idx *Index) Save(ctx context.Context, store blobstore.Store) error {
	start := time.Now()
	err := idx.save(ctx, store)
	idx.opts.metricsCollector.RecordSave(time.Since(start), err)
	return err
}

func (idx *Index) save(ctx context.Context, store blobstore.Store) error {
	segments, _ := idx.view()

	snapshotID := strconv.FormatInt(time.Now().UnixNano(), 10)
	names := make([]string, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.opts.searchConcurrency)

	for i, seg := range segments {
		names[i] = path.Join("snapshots", snapshotID, fmt.Sprintf("segment-%05d.bin", i))

		g.Go(func() error {
			data, err := seg.Encode(idx.opts.compression)
			if err != nil {
				return err
			}
			return store.Put(gctx, names[i], data)
		})
	}
	if err := g.Wait(); err != nil {
		idx.opts.logger.LogSave(ctx, len(segments), err)
		return err
	}

	manifestName := path.Join("snapshots", snapshotID, "MANIFEST")
	manifest := strings.Join(names, "\n")
	if err := store.Put(ctx, manifestName, []byte(manifest)); err != nil {
		idx.opts.logger.LogSave(ctx, len(segments), err)
		return err
	}

	err := store.Put(ctx, CurrentName, []byte(manifestName))
	idx.opts.logger.LogSave(ctx, len(segments), err)
	return err
}

// Load reads the snapshot CURRENT points at and returns the restored index.
func Load(ctx context.Context, store blobstore.Store, optFns ...Option) (*Index, error) {
	idx := New(optFns...)

	start := time.Now()
	err := idx.load(ctx, store)
	idx.opts.metricsCollector.RecordLoad(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) load(ctx context.Context, store blobstore.Store) error {
	current, err := store.Get(ctx, CurrentName)
	if err != nil {
		err = translateError(err)
		idx.opts.logger.LogLoad(ctx, 0, 0, err)
		return err
	}

	manifest, err := store.Get(ctx, string(current))
	if err != nil {
		err = translateError(err)
		idx.opts.logger.LogLoad(ctx, 0, 0, err)
		return err
	}

	var names []string
	for _, line := range strings.Split(string(manifest), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}

	segments := make([]*index.Segment, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.opts.searchConcurrency)

	for i, name := range names {
		g.Go(func() error {
			data, err := store.Get(gctx, name)
			if err != nil {
				return translateError(err)
			}
			seg, err := index.DecodeSegment(data)
			if err != nil {
				return &ErrSegmentDecode{Name: name, cause: err}
			}
			segments[i] = seg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		idx.opts.logger.LogLoad(ctx, 0, 0, err)
		return err
	}

	var base uint32
	for _, seg := range segments {
		if seg.NumDocs() == 0 {
			continue
		}
		idx.bases = append(idx.bases, base)
		idx.sealed = append(idx.sealed, seg)
		base += seg.NumDocs()
	}

	idx.opts.logger.LogLoad(ctx, len(idx.sealed), base, nil)
	return nil
}
