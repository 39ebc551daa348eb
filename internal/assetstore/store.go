// Package assetstore names and persists generated creatives under a single
// root directory, one folder per campaign.
package assetstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"creative-automation/internal/variant"
)

var ErrStorage = errors.New("asset storage failed")

const (
	ManifestName       = "manifest.json"
	MasterManifestName = "master_manifest.json"
	timestampLayout    = "20060102_150405"
	campaignDirPrefix  = "campaign_"
)

type Key struct {
	CampaignID string
	CreatedAt  time.Time
	Product    string // product token, see ProductToken
	Variant    variant.Variant
}

type Options struct {
	Root   string
	Logger *slog.Logger
}

type Store struct {
	root   string
	logger *slog.Logger
}

func New(opts Options) (*Store, error) {
	root := strings.TrimSpace(opts.Root)
	if root == "" {
		root = filepath.Join("assets", "generated")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("assets root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create assets root: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{root: abs, logger: logger}, nil
}

func (s *Store) Root() string { return s.root }

// ProductToken turns a product name into a path segment: lowercase, runs of
// anything outside [a-z0-9] collapsed to "_", trimmed.
func ProductToken(product string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(product) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "product"
	}
	return b.String()
}

// UniqueTokens returns one token per product in order, suffixing repeats with
// _2, _3... so no two products share a directory.
func UniqueTokens(products []string) []string {
	seen := make(map[string]bool, len(products))
	out := make([]string, len(products))
	for i, p := range products {
		base := ProductToken(p)
		tok := base
		for n := 2; seen[tok]; n++ {
			tok = fmt.Sprintf("%s_%d", base, n)
		}
		seen[tok] = true
		out[i] = tok
	}
	return out
}

// CampaignDir is the campaign's folder relative to the root.
func CampaignDir(campaignID string, createdAt time.Time) string {
	return fmt.Sprintf("%s%s_%s", campaignDirPrefix, createdAt.UTC().Format(timestampLayout), campaignID)
}

// Path returns the slash-separated location of key relative to the root.
func Path(key Key) string {
	dir := key.Variant.Dir()
	return path.Join(CampaignDir(key.CampaignID, key.CreatedAt), key.Product, dir, "image_"+dir+".png")
}

// Store writes data for key and returns its relative path once the file is
// durably in place. Writing the same key again replaces the file.
func (s *Store) Store(ctx context.Context, key Key, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty data", ErrStorage)
	}
	if strings.TrimSpace(key.CampaignID) == "" || strings.TrimSpace(key.Product) == "" || !key.Variant.Valid() {
		return "", fmt.Errorf("%w: incomplete key", ErrStorage)
	}

	rel := Path(key)
	abs, err := s.Abs(rel)
	if err != nil {
		return "", err
	}
	if err := writeAtomic(abs, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.logger.Debug("asset stored", "path", rel, "bytes", len(data))
	return rel, nil
}

// Exists reports whether rel is a non-empty file under the root.
func (s *Store) Exists(rel string) bool {
	abs, err := s.Abs(rel)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Abs resolves rel under the root, rejecting paths that escape it.
func (s *Store) Abs(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSpace(rel)))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: invalid asset path %q", ErrStorage, rel)
	}
	return filepath.Join(s.root, clean), nil
}

// WriteManifest stores v as JSON in the campaign's folder.
func (s *Store) WriteManifest(campaignID string, createdAt time.Time, v any) (string, error) {
	return s.WriteJSON(path.Join(CampaignDir(campaignID, createdAt), ManifestName), v)
}

// Manifests lists the relative paths of every campaign manifest under the
// root, newest campaign first.
func (s *Store) Manifests() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: list campaigns: %w", ErrStorage, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), campaignDirPrefix) {
			continue
		}
		rel := path.Join(e.Name(), ManifestName)
		if s.Exists(rel) {
			out = append(out, rel)
		}
	}
	// directory names start with the UTC timestamp
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

// WriteJSON stores v as indented JSON at rel.
func (s *Store) WriteJSON(rel string, v any) (string, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %w", ErrStorage, rel, err)
	}
	abs, err := s.Abs(rel)
	if err != nil {
		return "", err
	}
	if err := writeAtomic(abs, raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return rel, nil
}

func writeAtomic(dst string, data []byte) (err error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
