package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creative-automation/internal/campaign"
)

// keywordEmbedder maps text onto fixed axes so similarity is predictable.
type keywordEmbedder struct {
	err error
}

var axes = []string{"safety", "boots", "coffee", "summer"}

func (keywordEmbedder) Name() string { return "keywords" }

func (k keywordEmbedder) Embed(_ context.Context, text string, _ Task) ([]float32, error) {
	if k.err != nil {
		return nil, k.err
	}
	text = strings.ToLower(text)
	v := make([]float32, len(axes))
	for i, a := range axes {
		v[i] = float32(strings.Count(text, a))
	}
	return v, nil
}

func openIndex(t *testing.T, e Embedder) *Index {
	t.Helper()
	x, err := Open(filepath.Join(t.TempDir(), "vectors.db"), e, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = x.Close() })
	return x
}

func TestIndexAndSearch(t *testing.T) {
	x := openIndex(t, keywordEmbedder{})
	ctx := context.Background()

	require.NoError(t, x.Index(ctx, Entry{CampaignID: "a", Text: "Safety first: helmets and safety boots", Metadata: map[string]string{"region": "Germany"}}))
	require.NoError(t, x.Index(ctx, Entry{CampaignID: "b", Text: "Summer coffee break"}))
	require.NoError(t, x.Index(ctx, Entry{CampaignID: "c", Text: "Boots for summer hikes"}))

	got, err := x.Search(ctx, "safety gear", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].CampaignID)
	assert.Equal(t, "Germany", got[0].Metadata["region"])
	assert.InDelta(t, 0.894, got[0].Score, 0.01)

	got, err = x.Search(ctx, "iced coffee", 5)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].CampaignID)

	n, err := x.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIndexReplacesExisting(t *testing.T) {
	x := openIndex(t, keywordEmbedder{})
	ctx := context.Background()

	require.NoError(t, x.Index(ctx, Entry{CampaignID: "a", Text: "coffee"}))
	require.NoError(t, x.Index(ctx, Entry{CampaignID: "a", Text: "safety"}))

	n, err := x.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := x.Search(ctx, "safety", 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestIndexErrors(t *testing.T) {
	ctx := context.Background()
	x := openIndex(t, keywordEmbedder{})
	assert.Error(t, x.Index(ctx, Entry{Text: "no id"}))
	assert.Error(t, x.Index(ctx, Entry{CampaignID: "a"}))
	_, err := x.Search(ctx, " ", 3)
	assert.Error(t, err)

	broken := openIndex(t, keywordEmbedder{err: errors.New("quota")})
	assert.Error(t, broken.Index(ctx, Entry{CampaignID: "a", Text: "hi"}))

	_, err = Open(filepath.Join(t.TempDir(), "v.db"), nil, Options{})
	assert.Error(t, err)
}

func TestEntryFromCampaign(t *testing.T) {
	e := EntryFromCampaign(&campaign.Campaign{
		ID:               "c1",
		Brief:            campaign.Brief{Products: []string{"helmet"}, Region: "Germany", Audience: "builders", Message: "Safety first"},
		Language:         "de",
		LocalizedMessage: "Sicherheit zuerst",
		CreatedAt:        time.Now(),
	})
	assert.Equal(t, "c1", e.CampaignID)
	assert.Equal(t, "Safety first", e.Text)
	assert.Equal(t, `["helmet"]`, e.Metadata["products"])
	assert.Equal(t, "Germany", e.Metadata["region"])
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0.25, -1.5, 3}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)

	assert.Zero(t, cosine([]float32{1, 0}, []float32{0, 0}))
	assert.Zero(t, cosine([]float32{1}, []float32{1, 2}))
}

func TestGenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, r.URL.Path, "gemini-embedding-001")
		assert.Contains(t, string(body), "Safety first")
		w.Header().Set("content-type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": []any{map[string]any{"values": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	e, err := NewGenAIEmbedder(context.Background(), GenAIOptions{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)
	assert.Equal(t, "genai:gemini-embedding-001", e.Name())

	got, err := e.Embed(context.Background(), "Safety first", TaskDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got)

	_, err = NewGenAIEmbedder(context.Background(), GenAIOptions{})
	assert.Error(t, err)
}
