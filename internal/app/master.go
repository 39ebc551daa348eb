package app

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"time"

	"creative-automation/internal/assetstore"
	"creative-automation/internal/campaign"
)

// MasterManifest gathers every campaign manifest under the assets root.
type MasterManifest struct {
	GeneratedAt     time.Time             `json:"generated_at"`
	TotalCampaigns  int                   `json:"total_campaigns"`
	TotalProducts   int                   `json:"total_products"`
	TotalAssets     int                   `json:"total_assets"`
	ProducedAssets  int                   `json:"produced_assets"`
	UniqueRegions   []string              `json:"unique_regions"`
	UniqueAudiences []string              `json:"unique_audiences"`
	Campaigns       []MasterManifestEntry `json:"campaigns"`
}

// MasterManifestEntry is one campaign folder. Unreadable manifests are kept
// with Error set so the listing still accounts for the folder.
type MasterManifestEntry struct {
	Path     string    `json:"path"`
	Error    string    `json:"error,omitempty"`
	Manifest *Manifest `json:"manifest,omitempty"`
}

func (a *App) BuildMasterManifest(ctx context.Context) (MasterManifest, error) {
	paths, err := a.Assets.Manifests()
	if err != nil {
		return MasterManifest{}, err
	}

	m := MasterManifest{
		GeneratedAt:     time.Now().UTC(),
		UniqueRegions:   []string{},
		UniqueAudiences: []string{},
		Campaigns:       make([]MasterManifestEntry, 0, len(paths)),
	}
	regions := map[string]bool{}
	audiences := map[string]bool{}

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return MasterManifest{}, err
		}
		entry := MasterManifestEntry{Path: rel}
		mf, err := a.readManifest(rel)
		if err != nil {
			a.Logger.Warn("skip unreadable manifest", "path", rel, "err", err)
			entry.Error = err.Error()
			m.Campaigns = append(m.Campaigns, entry)
			continue
		}
		entry.Manifest = mf
		m.Campaigns = append(m.Campaigns, entry)

		m.TotalProducts += len(mf.Brief.Products)
		m.TotalAssets += len(mf.Assets)
		for _, asset := range mf.Assets {
			if asset.Status == campaign.StatusProduced {
				m.ProducedAssets++
			}
		}
		if mf.Brief.Region != "" && !regions[mf.Brief.Region] {
			regions[mf.Brief.Region] = true
			m.UniqueRegions = append(m.UniqueRegions, mf.Brief.Region)
		}
		if mf.Brief.Audience != "" && !audiences[mf.Brief.Audience] {
			audiences[mf.Brief.Audience] = true
			m.UniqueAudiences = append(m.UniqueAudiences, mf.Brief.Audience)
		}
	}
	m.TotalCampaigns = len(m.Campaigns)
	sort.Strings(m.UniqueRegions)
	sort.Strings(m.UniqueAudiences)
	return m, nil
}

// WriteMasterManifest rebuilds master_manifest.json at the assets root and
// returns its relative path.
func (a *App) WriteMasterManifest(ctx context.Context) (string, MasterManifest, error) {
	m, err := a.BuildMasterManifest(ctx)
	if err != nil {
		return "", MasterManifest{}, err
	}
	rel, err := a.Assets.WriteJSON(assetstore.MasterManifestName, m)
	if err != nil {
		return "", MasterManifest{}, err
	}
	return rel, m, nil
}

func (a *App) readManifest(rel string) (*Manifest, error) {
	abs, err := a.Assets.Abs(rel)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	var mf Manifest
	if err := json.Unmarshal(raw, &mf); err != nil {
		return nil, err
	}
	return &mf, nil
}
