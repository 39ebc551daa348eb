package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"creative-automation/internal/app"
	"creative-automation/internal/audience"
	"creative-automation/internal/campaign"
	"creative-automation/internal/compliance"
	"creative-automation/internal/region"
)

//go:embed static/*
var staticFS embed.FS

const maxBriefBytes = 1 << 20

type server struct {
	app *app.App
}

type apiError struct {
	Error string `json:"error"`
}

type generateRequest struct {
	Products []string `json:"products"`
	Region   string   `json:"region"`
	Audience string   `json:"audience"`
	Message  string   `json:"message"`
}

type generateResponse struct {
	CampaignID          string                 `json:"campaign_id"`
	Language            string                 `json:"language"`
	LocalizedMessage    string                 `json:"localized_message"`
	TranslationFallback bool                   `json:"translation_fallback"`
	Summary             string                 `json:"summary"`
	Outputs             map[string]string      `json:"outputs"`
	Assets              []campaign.AssetResult `json:"assets"`
	Compliance          compliance.Result      `json:"compliance"`
}

type countryView struct {
	Name         string   `json:"name"`
	Code         string   `json:"code"`
	Language     string   `json:"language"`
	LanguageName string   `json:"language_name"`
	Languages    []string `json:"languages"`
	Area         string   `json:"area"`
}

func newServer(a *app.App) *server {
	return &server{app: a}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/campaigns/generate", s.handleGenerate)
	mux.HandleFunc("/campaigns/similar", s.handleSimilar)
	mux.HandleFunc("/campaigns", s.handleRecent)
	mux.HandleFunc("/api/countries", s.handleCountries)
	mux.HandleFunc("/api/audiences", s.handleAudiences)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(s.app.Assets.Root()))))

	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticSub)))
	return mux
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBriefBytes)
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}

	c, err := s.app.Generate(r.Context(), campaign.Brief{
		Products: req.Products,
		Region:   req.Region,
		Audience: audience.Describe(req.Audience),
		Message:  req.Message,
	})
	switch {
	case errors.Is(err, campaign.ErrInvalidBrief):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, apiError{Error: "campaign generation timed out"})
		return
	case err != nil:
		s.app.Logger.Error("generate campaign", "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "campaign generation failed"})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		CampaignID:          c.ID,
		Language:            c.Language,
		LocalizedMessage:    c.LocalizedMessage,
		TranslationFallback: c.TranslationFallback,
		Summary:             c.Summary(),
		Outputs:             c.Outputs(),
		Assets:              c.Assets,
		Compliance:          c.Compliance,
	})
}

func (s *server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}
	records, err := s.app.Recent(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		s.app.Logger.Error("list campaigns", "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to list campaigns"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": records})
}

func (s *server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing q"})
		return
	}
	matches, err := s.app.Similar(r.Context(), q, queryInt(r, "k", 5))
	switch {
	case errors.Is(err, app.ErrSearchDisabled):
		writeJSON(w, http.StatusServiceUnavailable, apiError{Error: err.Error()})
		return
	case err != nil:
		s.app.Logger.Error("similar campaigns", "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: "search failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}

func (s *server) handleCountries(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	var countries []region.Country
	if q == "" {
		countries = s.app.Resolver.Countries()
	} else {
		countries = s.app.Resolver.Search(q)
	}

	out := make([]countryView, 0, len(countries))
	for _, c := range countries {
		langs := make([]string, 0, len(c.Languages))
		for _, l := range c.Languages {
			langs = append(langs, l.String())
		}
		out = append(out, countryView{
			Name:         c.Name,
			Code:         c.Code,
			Language:     c.Language.String(),
			LanguageName: region.LanguageName(c.Language),
			Languages:    langs,
			Area:         c.Area,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"countries": out})
}

func (s *server) handleAudiences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"audiences":   audience.All(),
		"by_category": audience.ByCategory(),
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"primary":       s.app.Config.PrimaryProvider,
		"fallback":      s.app.Config.FallbackProvider,
		"translation":   s.app.Config.TranslationProvider,
		"vector_search": s.app.Vectors != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
