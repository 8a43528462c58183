package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/store/memory"
)

const titleTSV = "tconst\ttitleType\tprimaryTitle\toriginalTitle\tisAdult\tstartYear\tendYear\truntimeMinutes\tgenres\n" +
	"tt0000001\tshort\tCarmencita\tCarmencita\t0\t1894\t\\N\t1\tDocumentary,Short\n" +
	"tt0000002\tshort\tLe clown et ses chiens\tLe clown et ses chiens\t0\t1892\t\\N\t5\tAnimation,Short\n"

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database: config.DatabaseConfig{Driver: "memory"},
		Import: config.ImportConfig{
			MaxFileSize: 1 << 20,
			SpoolDir:    t.TempDir(),
		},
	}
}

type fixture struct {
	store   *memory.Store
	service *core.Service
	server  *Server
	cfg     *config.Config
}

func newFixture(t *testing.T, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutate {
		m(cfg)
	}
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := core.NewService(store, logger, core.ServiceConfig{MaxWait: 50 * time.Millisecond})
	return &fixture{
		store:   store,
		service: svc,
		server:  NewServer(svc, fakePinger{}, cfg),
		cfg:     cfg,
	}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

// uploadRequest builds POST /api/imports with the given parts.
func uploadRequest(t *testing.T, format, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	if format != "" {
		require.NoError(t, mw.WriteField("format", format))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func spoolEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestStartImport(t *testing.T) {
	f := newFixture(t)

	rec := f.do(uploadRequest(t, "", "title.basics.tsv", titleTSV))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	got := decode[runView](t, rec)
	require.NotEmpty(t, got.RunID)
	assert.Equal(t, core.FormatTitleBasics, got.Format)
	assert.Equal(t, "title.basics.tsv", got.FileName)
	assert.Equal(t, "/api/imports/"+got.RunID, rec.Header().Get("Location"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, err := f.service.Wait(ctx, got.RunID)
	require.NoError(t, err)
	assert.Equal(t, core.PhaseComplete, st.Phase)
	assert.Equal(t, 2, st.Stats.Created)
	assert.Equal(t, 2, f.store.Counts()["titles"])

	assert.Empty(t, spoolEntries(t, f.cfg.Import.SpoolDir), "spool file should be removed after the run")

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/imports/"+got.RunID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[runView](t, rec)
	assert.Equal(t, core.PhaseComplete, view.Phase)
	assert.Equal(t, 100, view.Percent)
}

func TestStartImport_FormatFieldWins(t *testing.T) {
	f := newFixture(t)

	rec := f.do(uploadRequest(t, "title.basics", "upload.tsv", titleTSV))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, core.FormatTitleBasics, decode[runView](t, rec).Format)
}

func TestStartImport_FormatQueryParam(t *testing.T) {
	f := newFixture(t)

	req := uploadRequest(t, "", "upload.tsv", titleTSV)
	req.URL.RawQuery = "format=title.basics"
	rec := f.do(req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestStartImport_UnrecognizedFormat(t *testing.T) {
	f := newFixture(t)

	rec := f.do(uploadRequest(t, "", "ratings.tsv", titleTSV))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[ErrorResponse](t, rec)
	assert.Equal(t, "FMT001", body.Code)
	assert.Empty(t, spoolEntries(t, f.cfg.Import.SpoolDir))
	assert.Empty(t, f.service.List())
}

func TestStartImport_NoFile(t *testing.T) {
	f := newFixture(t)

	rec := f.do(uploadRequest(t, "title.basics", "", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE004", decode[ErrorResponse](t, rec).Code)
}

func TestStartImport_NotMultipart(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/imports", bytes.NewBufferString(titleTSV))
	req.Header.Set("Content-Type", "text/tab-separated-values")
	rec := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartImport_TooLarge(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.Import.MaxFileSize = 64 })

	rec := f.do(uploadRequest(t, "", "title.basics.tsv", titleTSV))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decode[ErrorResponse](t, rec).Code)
	assert.Empty(t, spoolEntries(t, f.cfg.Import.SpoolDir))
}

func TestListImports(t *testing.T) {
	f := newFixture(t)

	rec := f.do(uploadRequest(t, "", "title.basics.tsv", titleTSV))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[struct {
		Runs    []runView          `json:"runs"`
		Limiter core.LimiterStatus `json:"limiter"`
	}](t, rec)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, 1, body.Limiter.MaxConcurrent)
}

func TestGetImport_Unknown(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/imports/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "IMP002", decode[ErrorResponse](t, rec).Code)
}

func TestListFormats(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	formats := decode[[]core.FormatInfo](t, rec)
	require.Len(t, formats, 4)
	assert.Equal(t, core.FormatTitleBasics, formats[0].Format)
	assert.Equal(t, core.FormatTitlePrincipals, formats[3].Format)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	f.server = NewServer(f.service, fakePinger{err: errors.New("dial tcp: connection refused")}, f.cfg)
	rec = f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DB004", decode[ErrorResponse](t, rec).Code)
}

func TestAPIKeyRequired(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"k1"}
	})

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/formats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/formats", nil)
	req.Header.Set("X-API-Key", "k1")
	assert.Equal(t, http.StatusOK, f.do(req).Code)

	// Health checks stay open for probes.
	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestImportRateLimit(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportsPerMinute: 1}
	})

	first := f.do(uploadRequest(t, "", "title.basics.tsv", titleTSV))
	require.Equal(t, http.StatusAccepted, first.Code, first.Body.String())

	second := f.do(uploadRequest(t, "", "title.basics.tsv", titleTSV))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// Status reads are not counted against the import allowance.
	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/api/imports", nil)).Code)
}
