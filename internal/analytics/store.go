// Package analytics keeps a flat, queryable record of every finished campaign.
package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"creative-automation/internal/analytics/migrations"
	"creative-automation/internal/campaign"
	"creative-automation/internal/sqlitedb"
	"creative-automation/internal/variant"
)

var ErrNotFound = errors.New("campaign record not found")

type Record struct {
	CampaignID          string    `json:"campaign_id"`
	CreatedAt           time.Time `json:"created_at"`
	Products            []string  `json:"products"`
	Region              string    `json:"region"`
	Language            string    `json:"language"`
	Audience            string    `json:"audience"`
	Message             string    `json:"message"`
	LocalizedMessage    string    `json:"localized_message"`
	TranslationFallback bool      `json:"translation_fallback"`
	OutputSquare        string    `json:"output_square"`
	OutputLandscape     string    `json:"output_landscape"`
	OutputPortrait      string    `json:"output_portrait"`
	Produced            int       `json:"produced"`
	Failed              int       `json:"failed"`
	ComplianceStatus    string    `json:"compliance_status"`
	ComplianceIssues    []string  `json:"compliance_issues"`
}

// FromCampaign flattens c into one analytics row.
func FromCampaign(c *campaign.Campaign) Record {
	outputs := c.Outputs()
	produced := len(c.Produced())
	issues := c.Compliance.Issues
	if issues == nil {
		issues = []string{}
	}
	return Record{
		CampaignID:          c.ID,
		CreatedAt:           c.CreatedAt,
		Products:            append([]string(nil), c.Brief.Products...),
		Region:              c.Brief.Region,
		Language:            c.Language,
		Audience:            c.Brief.Audience,
		Message:             c.Brief.Message,
		LocalizedMessage:    c.LocalizedMessage,
		TranslationFallback: c.TranslationFallback,
		OutputSquare:        outputs[variant.Square.Ratio()],
		OutputLandscape:     outputs[variant.Landscape.Ratio()],
		OutputPortrait:      outputs[variant.Portrait.Ratio()],
		Produced:            produced,
		Failed:              len(c.Assets) - produced,
		ComplianceStatus:    string(c.Compliance.Status),
		ComplianceIssues:    issues,
	}
}

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sqlitedb.Open(path, migrations.FS)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts r, replacing any earlier row for the same campaign.
func (s *Store) Record(ctx context.Context, r Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(r.CampaignID) == "" {
		return errors.New("campaign id is required")
	}
	products, err := json.Marshal(r.Products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	issues := r.ComplianceIssues
	if issues == nil {
		issues = []string{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("encode issues: %w", err)
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO campaigns (
		   campaign_id, created_at, products, region, language, audience,
		   message, localized_message, translation_fallback,
		   output_square, output_landscape, output_portrait,
		   produced, failed, compliance_status, compliance_issues
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CampaignID,
		sqlitedb.ToMillis(createdAt),
		string(products),
		r.Region,
		r.Language,
		r.Audience,
		r.Message,
		r.LocalizedMessage,
		r.TranslationFallback,
		r.OutputSquare,
		r.OutputLandscape,
		r.OutputPortrait,
		r.Produced,
		r.Failed,
		r.ComplianceStatus,
		string(issuesJSON),
	)
	if err != nil {
		return fmt.Errorf("record campaign: %w", err)
	}
	return nil
}

const selectColumns = `campaign_id, created_at, products, region, language, audience,
       message, localized_message, translation_fallback,
       output_square, output_landscape, output_portrait,
       produced, failed, compliance_status, compliance_issues`

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM campaigns ORDER BY created_at DESC, campaign_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := make([]Record, 0, limit)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, campaignID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM campaigns WHERE campaign_id = ?`, strings.TrimSpace(campaignID))
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r         Record
		createdAt int64
		products  string
		issues    string
	)
	err := sc.Scan(
		&r.CampaignID, &createdAt, &products, &r.Region, &r.Language, &r.Audience,
		&r.Message, &r.LocalizedMessage, &r.TranslationFallback,
		&r.OutputSquare, &r.OutputLandscape, &r.OutputPortrait,
		&r.Produced, &r.Failed, &r.ComplianceStatus, &issues,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan campaign: %w", err)
	}
	r.CreatedAt = sqlitedb.FromMillis(createdAt)
	if err := json.Unmarshal([]byte(products), &r.Products); err != nil {
		return Record{}, fmt.Errorf("decode products: %w", err)
	}
	if err := json.Unmarshal([]byte(issues), &r.ComplianceIssues); err != nil {
		return Record{}, fmt.Errorf("decode issues: %w", err)
	}
	return r, nil
}
