// Package server exposes figure extraction over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tsawler/figura"
	"github.com/tsawler/figura/classify"
	"github.com/tsawler/figura/config"
	"github.com/tsawler/figura/model"
	"github.com/tsawler/figura/report"
)

// Server handles extraction requests.
type Server struct {
	cfg        *config.Config
	classifier classify.Classifier
	logger     zerolog.Logger
}

// New creates a server. A nil classifier labels every figure with the
// fallback result.
func New(cfg *config.Config, classifier classify.Classifier, logger zerolog.Logger) *Server {
	if classifier == nil {
		classifier = classify.Static{Result: classify.Fallback()}
	}
	return &Server{cfg: cfg, classifier: classifier, logger: logger}
}

// Router returns the HTTP handler with all routes configured.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "figura"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/labels", s.labels)
		r.Post("/extract", s.extract)
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	sc := s.cfg.Server
	srv := &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", sc.Addr()).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("graceful shutdown failed")
		return srv.Close()
	}
	s.logger.Info().Msg("server stopped")
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// LabelDTO is one classification category.
type LabelDTO struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) labels(w http.ResponseWriter, r *http.Request) {
	labels := classify.Labels()
	out := make([]LabelDTO, len(labels))
	for i, l := range labels {
		out[i] = LabelDTO{Key: l.Key, Title: report.Title(l.Key), Description: l.Description}
	}
	writeJSON(w, http.StatusOK, out)
}

// FigureDTO describes one extracted figure.
type FigureDTO struct {
	ID             int             `json:"id"`
	Filename       string          `json:"filename"`
	Page           int             `json:"page"`
	Box            [4]float64      `json:"box"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	Kinds          []string        `json:"kinds"`
	Fingerprint    string          `json:"fingerprint"`
	Classification classify.Result `json:"classification"`
}

// ExtractionDTO is the JSON response of POST /api/v1/extract.
type ExtractionDTO struct {
	RunID      string         `json:"run_id"`
	Pages      int            `json:"pages"`
	Duplicates int            `json:"duplicates"`
	Summary    report.Summary `json:"summary"`
	Figures    []FigureDTO    `json:"figures"`
	Warnings   []string       `json:"warnings"`
}

// extract handles POST /api/v1/extract. The PDF is sent as the "file"
// field of a multipart form. Query parameters:
//
//	pages       page list, e.g. 1-3,7
//	dpi         output resolution
//	cross_page  true to drop duplicates across pages
//	classify    false to skip classification
//	type        keep only figures with this label
//	sort        page, confidence or type
//	format      json (default), zip, html or markdown
func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	pages, err := figura.ParsePages(q.Get("pages"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pages", err.Error())
		return
	}
	sortBy, err := report.ParseSortBy(q.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sort", err.Error())
		return
	}
	outFormat := q.Get("format")
	switch outFormat {
	case "":
		outFormat = "json"
	case "json", "zip", "html", "markdown":
	default:
		writeError(w, http.StatusBadRequest, "invalid format", outFormat)
		return
	}

	path, name, err := s.saveUpload(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}
	defer os.Remove(path)

	ext := figura.Open(path).WithConfig(s.cfg).WithLogger(s.logger).Pages(pages...)
	if v := q.Get("dpi"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dpi", err.Error())
			return
		}
		ext = ext.DPI(dpi)
	}
	if v, _ := strconv.ParseBool(q.Get("cross_page")); v {
		ext = ext.CrossPageDedup()
	}

	res, err := ext.Figures(r.Context())
	if err != nil {
		status := http.StatusUnprocessableEntity
		if r.Context().Err() != nil {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "extraction failed", err.Error())
		return
	}

	var results []classify.Result
	if classifyOn, err := strconv.ParseBool(q.Get("classify")); err != nil || classifyOn {
		images := make([]image.Image, len(res.Figures))
		for i, f := range res.Figures {
			images[i] = f.Image
		}
		results = classify.ClassifyAll(r.Context(), s.classifier, images, nil)
	}

	entries := report.Filter(report.Entries(res.Figures, results), q.Get("type"))
	report.Sort(entries, sortBy)

	s.logger.Info().
		Str("run_id", res.RunID.String()).
		Str("file", name).
		Int("figures", len(res.Figures)).
		Int("warnings", len(res.Warnings)).
		Msg("extraction complete")

	switch outFormat {
	case "zip":
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="extracted_figures.zip"`)
		if err := report.WriteArchive(w, entries, name); err != nil {
			s.logger.Error().Err(err).Msg("writing archive")
		}
	case "html":
		page, err := report.HTML(entries, report.HTMLOptions{Title: name, Images: report.EmbedImages})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "report failed", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, page)
	case "markdown":
		md, err := report.Markdown(entries, name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "report failed", err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, md)
	default:
		writeJSON(w, http.StatusOK, toDTO(res, entries))
	}
}

// saveUpload copies the "file" form field to a temporary file.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (path, name string, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "figura-upload-*.pdf")
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}
	return tmp.Name(), header.Filename, nil
}

func toDTO(res *figura.Result, entries []report.Entry) ExtractionDTO {
	dto := ExtractionDTO{
		RunID:      res.RunID.String(),
		Pages:      res.Pages,
		Duplicates: res.Duplicates,
		Summary:    report.Summarize(entries),
		Figures:    make([]FigureDTO, 0, len(entries)),
		Warnings:   make([]string, 0, len(res.Warnings)),
	}
	for _, e := range entries {
		w, h := e.Record.PixelSize()
		b := e.Record.Box
		dto.Figures = append(dto.Figures, FigureDTO{
			ID:             e.ID,
			Filename:       e.Filename(),
			Page:           e.Record.Page,
			Box:            [4]float64{b.X0, b.Y0, b.X1, b.Y1},
			Width:          w,
			Height:         h,
			Kinds:          kindNames(e.Record.Kinds),
			Fingerprint:    e.Record.Fingerprint,
			Classification: e.Classification,
		})
	}
	for _, w := range res.Warnings {
		dto.Warnings = append(dto.Warnings, w.String())
	}
	return dto
}

func kindNames(kinds []model.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
