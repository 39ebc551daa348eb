// Package vectorindex stores campaign embeddings in SQLite and answers
// "campaigns like this one" queries by cosine similarity.
package vectorindex

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"creative-automation/internal/campaign"
	"creative-automation/internal/sqlitedb"
	"creative-automation/internal/vectorindex/migrations"
)

type Entry struct {
	CampaignID string            `json:"campaign_id"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata"`
}

type Match struct {
	Entry
	Score float64 `json:"score"`
}

// EntryFromCampaign builds the document indexed for c: the brief message plus
// the fields a marketer searches by.
func EntryFromCampaign(c *campaign.Campaign) Entry {
	products, _ := json.Marshal(c.Brief.Products)
	return Entry{
		CampaignID: c.ID,
		Text:       c.Brief.Message,
		Metadata: map[string]string{
			"products":          string(products),
			"region":            c.Brief.Region,
			"audience":          c.Brief.Audience,
			"language":          c.Language,
			"localized_message": c.LocalizedMessage,
		},
	}
}

type Options struct {
	Logger *slog.Logger
}

type Index struct {
	db       *sql.DB
	embedder Embedder
	logger   *slog.Logger
}

func Open(path string, embedder Embedder, opts Options) (*Index, error) {
	if embedder == nil {
		return nil, errors.New("vectorindex: embedder is required")
	}
	db, err := sqlitedb.Open(path, migrations.FS)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Index{db: db, embedder: embedder, logger: logger}, nil
}

func (x *Index) Close() error {
	if x == nil || x.db == nil {
		return nil
	}
	return x.db.Close()
}

// Index embeds e.Text and stores it, replacing any earlier vector for the
// same campaign.
func (x *Index) Index(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.CampaignID) == "" {
		return errors.New("campaign id is required")
	}
	if strings.TrimSpace(e.Text) == "" {
		return errors.New("text is required")
	}
	vec, err := x.embedder.Embed(ctx, e.Text, TaskDocument)
	if err != nil {
		return err
	}
	meta := e.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	_, err = x.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (campaign_id, document, metadata, model, dims, vector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.CampaignID, e.Text, string(metaJSON), x.embedder.Name(), len(vec), encodeVector(vec),
		sqlitedb.ToMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}

// Search returns the k entries most similar to query, best first. Vectors of
// a different dimensionality than the query are skipped.
func (x *Index) Search(ctx context.Context, query string, k int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}
	if k <= 0 {
		k = 3
	}
	q, err := x.embedder.Embed(ctx, query, TaskQuery)
	if err != nil {
		return nil, err
	}

	rows, err := x.db.QueryContext(ctx, `SELECT campaign_id, document, metadata, vector FROM embeddings WHERE dims = ?`, len(q))
	if err != nil {
		return nil, fmt.Errorf("scan embeddings: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m    Match
			meta string
			blob []byte
		)
		if err := rows.Scan(&m.CampaignID, &m.Text, &meta, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			x.logger.Warn("skipping corrupt embedding", "campaign_id", m.CampaignID, "err", err)
			continue
		}
		if err := json.Unmarshal([]byte(meta), &m.Metadata); err != nil {
			m.Metadata = map[string]string{}
		}
		m.Score = cosine(q, vec)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan embeddings: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].CampaignID < matches[j].CampaignID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (x *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
