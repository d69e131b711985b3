package knowledge

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/futig/vitos-assistant/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

const (
	// IndexDirName is the directory under the knowledge base where the index is persisted.
	IndexDirName     = "chromem_index"
	collectionPrefix = "kb-"

	metaSource = "source"
	metaIndex  = "chunk_index"
)

// IndexOptions are the inputs that invalidate a persisted index when they change.
type IndexOptions struct {
	ChunkSize      int
	ChunkOverlap   int
	EmbeddingModel string
}

// Store is the vector index over knowledge base chunks.
type Store struct {
	db         *chromem.DB
	embed      chromem.EmbeddingFunc
	collection *chromem.Collection
	logger     *zap.Logger
}

// NewStore opens (or creates) the persistent index under kbDir.
func NewStore(kbDir string, embed chromem.EmbeddingFunc, logger *zap.Logger) (*Store, error) {
	db, err := chromem.NewPersistentDB(filepath.Join(kbDir, IndexDirName), false)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	return &Store{
		db:     db,
		embed:  embed,
		logger: logger,
	}, nil
}

// NewMemoryStore keeps the index in process memory only.
func NewMemoryStore(embed chromem.EmbeddingFunc, logger *zap.Logger) *Store {
	return &Store{
		db:     chromem.NewDB(),
		embed:  embed,
		logger: logger,
	}
}

// Fingerprint identifies a knowledge base build: sources, chunking and embedding model.
func Fingerprint(sources []entity.SourceFile, opts IndexOptions) string {
	h := sha256.New()
	writeField := func(b []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}

	for _, src := range sources {
		writeField([]byte(src.Name))
		writeField(src.Content)
	}
	writeField([]byte(strconv.Itoa(opts.ChunkSize)))
	writeField([]byte(strconv.Itoa(opts.ChunkOverlap)))
	writeField([]byte(opts.EmbeddingModel))

	return hex.EncodeToString(h.Sum(nil))
}

// CollectionName is the index collection for a fingerprint.
func CollectionName(fingerprint string) string {
	if len(fingerprint) > 16 {
		fingerprint = fingerprint[:16]
	}
	return collectionPrefix + fingerprint
}

// Ensure makes the store ready to search the given sources. A persisted collection
// built from identical inputs is reused only when it holds every chunk; a partial
// build left by an interrupted run is discarded. Otherwise the sources are embedded
// into a fresh collection and every older knowledge base collection is dropped.
func (s *Store) Ensure(ctx context.Context, sources []entity.SourceFile, opts IndexOptions) error {
	name := CollectionName(Fingerprint(sources, opts))

	chunks, err := NewChunker(opts.ChunkSize, opts.ChunkOverlap).SplitAll(sources)
	if err != nil {
		return fmt.Errorf("chunk knowledge base: %w", err)
	}

	if col := s.db.GetCollection(name, s.embed); col != nil {
		if col.Count() == len(chunks) && len(chunks) > 0 {
			s.collection = col
			ctxzap.Info(ctx, "reusing knowledge base index",
				zap.String("collection", name),
				zap.Int("chunks", col.Count()),
			)
			return nil
		}
		ctxzap.Warn(ctx, "discarding incomplete knowledge base index",
			zap.String("collection", name),
			zap.Int("indexed", col.Count()),
			zap.Int("expected", len(chunks)),
		)
	}

	for existing := range s.db.ListCollections() {
		if !strings.HasPrefix(existing, collectionPrefix) {
			continue
		}
		if err := s.db.DeleteCollection(existing); err != nil {
			return fmt.Errorf("drop stale collection %s: %w", existing, err)
		}
		ctxzap.Info(ctx, "dropped stale knowledge base index", zap.String("collection", existing))
	}

	col, err := s.db.CreateCollection(name, map[string]string{"embedding_model": opts.EmbeddingModel}, s.embed)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	s.collection = col

	if err := s.Index(ctx, chunks); err != nil {
		s.collection = nil
		if dropErr := s.db.DeleteCollection(name); dropErr != nil {
			ctxzap.Warn(ctx, "could not drop partial knowledge base index",
				zap.String("collection", name),
				zap.Error(dropErr),
			)
		}
		return err
	}

	ctxzap.Info(ctx, "knowledge base indexed",
		zap.String("collection", name),
		zap.Int("sources", len(sources)),
		zap.Int("chunks", len(chunks)),
	)

	return nil
}

// Index embeds and adds chunks to the current collection.
func (s *Store) Index(ctx context.Context, chunks []entity.Chunk) error {
	if s.collection == nil {
		col, err := s.db.GetOrCreateCollection(collectionPrefix+"adhoc", nil, s.embed)
		if err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		s.collection = col
	}
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		meta := map[string]string{
			metaSource: c.Source,
			metaIndex:  strconv.Itoa(c.Index),
		}
		for k, v := range c.Headers {
			meta[k] = v
		}
		docs = append(docs, chromem.Document{
			ID:       c.ID,
			Content:  c.Content,
			Metadata: meta,
		})
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}

	return nil
}

// Count is the number of indexed chunks.
func (s *Store) Count() int {
	if s.collection == nil {
		return 0
	}
	return s.collection.Count()
}

// Search returns up to k chunks most similar to query, best first.
// An empty store or non-positive k yields no results and no error.
func (s *Store) Search(ctx context.Context, query string, k int) ([]entity.RetrievalResult, error) {
	count := s.Count()
	if k <= 0 || count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	res, err := s.collection.Query(ctx, chromem.InputTypeCohereSearchQueryPrefix+query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	out := make([]entity.RetrievalResult, 0, len(res))
	for _, r := range res {
		out = append(out, entity.RetrievalResult{
			Chunk:      chunkFromResult(r),
			Similarity: r.Similarity,
		})
	}

	return out, nil
}

func chunkFromResult(r chromem.Result) entity.Chunk {
	c := entity.Chunk{
		ID:      r.ID,
		Content: r.Content,
		Headers: map[string]string{},
	}
	for k, v := range r.Metadata {
		switch {
		case k == metaSource:
			c.Source = v
		case k == metaIndex:
			c.Index, _ = strconv.Atoi(v)
		case strings.HasPrefix(k, "Header "):
			c.Headers[k] = v
		}
	}
	return c
}
