package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidindex/internal/catalog"
	"github.com/mantonx/vidindex/internal/config"
	"github.com/mantonx/vidindex/internal/database"
	"github.com/mantonx/vidindex/internal/indexer"
	"github.com/mantonx/vidindex/internal/logger"
	"github.com/mantonx/vidindex/internal/server/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stubSyncer records the options it was run with.
type stubSyncer struct {
	opts   indexer.Options
	report *indexer.Report
	err    error
}

func (s *stubSyncer) RunWith(ctx context.Context, opts indexer.Options) (*indexer.Report, error) {
	s.opts = opts
	return s.report, s.err
}

func setupTestServer(t *testing.T, syncer handlers.Syncer) (*Server, *catalog.Store) {
	t.Helper()
	return setupTestServerWithRoot(t, syncer, t.TempDir())
}

func setupTestServerWithRoot(t *testing.T, syncer handlers.Syncer, mediaRoot string) (*Server, *catalog.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbName := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	store := catalog.NewStore(db, 0)
	require.NoError(t, store.InsertMany(context.Background(), []database.Video{
		{Title: "Alien", Path: "Movies/Alien.mkv", ContainerFolder: "Movies", Tags: "scifi"},
		{Title: "Brazil", Path: "Movies/Brazil.mp4", ContainerFolder: "Movies"},
		{Title: "Pilot", Path: "Shows/Pilot.mp4", ContainerFolder: "Shows"},
		{Title: "root", Path: "root.mp4", ContainerFolder: ""},
	}))

	h := handlers.NewHandler(store, syncer, mediaRoot, indexer.Options{})
	return New(config.DefaultConfig().Server, h), store
}

func doRequest(t *testing.T, s *Server, method, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func errorCode(resp map[string]interface{}) interface{} {
	details, _ := resp["error"].(map[string]interface{})
	return details["code"]
}

func TestHealth(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	w, resp := doRequest(t, s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(4), resp["videos"])
}

func TestListRoutes(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	w, resp := doRequest(t, s, http.MethodGet, "/api", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	routes, ok := resp["routes"].([]interface{})
	require.True(t, ok)
	assert.Len(t, routes, len(s.Routes()))
	assert.Len(t, s.Routes(), 8)
}

func TestListFolders(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	w, resp := doRequest(t, s, http.MethodGet, "/api/folders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), resp["count"])

	folders := resp["folders"].([]interface{})
	first := folders[0].(map[string]interface{})
	assert.Equal(t, "Movies", first["container_folder"])
	assert.Equal(t, float64(2), first["video_count"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/folders?q=SCIFI", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["count"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/folders?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["count"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/folders?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
}

func TestListVideos(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	w, resp := doRequest(t, s, http.MethodGet, "/api/videos?folder=Movies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp["count"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/videos?folder=Movies&q=ali", nil)
	require.Equal(t, http.StatusOK, w.Code)
	videos := resp["videos"].([]interface{})
	require.Len(t, videos, 1)
	assert.Equal(t, "Alien", videos[0].(map[string]interface{})["title"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/videos?folder=", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["count"])

	w, resp = doRequest(t, s, http.MethodGet, "/api/videos", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
}

func TestVideoLifecycle(t *testing.T) {
	s, store := setupTestServer(t, nil)

	videos, err := store.VideosInFolder(context.Background(), "Shows", "")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	target := "/api/videos/" + jsonNumber(videos[0].ID)

	w, resp := doRequest(t, s, http.MethodGet, target, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shows/Pilot.mp4", resp["path"])

	w, resp = doRequest(t, s, http.MethodPatch, target, map[string]string{"tags": "drama"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pilot", resp["title"])
	assert.Equal(t, "drama", resp["tags"])

	w, resp = doRequest(t, s, http.MethodPatch, target, map[string]string{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))

	w, _ = doRequest(t, s, http.MethodDelete, target, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doRequest(t, s, http.MethodGet, target, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(resp))

	w, resp = doRequest(t, s, http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(resp))
}

func TestInvalidVideoID(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	for _, id := range []string{"abc", "0", "-1", "99999999999"} {
		w, resp := doRequest(t, s, http.MethodGet, "/api/videos/"+id, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(resp), id)
	}
}

func TestTriggerSync(t *testing.T) {
	syncer := &stubSyncer{report: &indexer.Report{RunID: "run-1", Added: 2, Total: 6}}
	s, _ := setupTestServer(t, syncer)

	w, resp := doRequest(t, s, http.MethodPost, "/api/sync?dry_run=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, syncer.opts.DryRun)
	assert.Equal(t, "run-1", resp["run_id"])
	assert.Equal(t, float64(2), resp["added"])

	w, _ = doRequest(t, s, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, syncer.opts.DryRun)

	w, resp = doRequest(t, s, http.MethodPost, "/api/sync?dry_run=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(resp))
}

func TestTriggerSyncErrors(t *testing.T) {
	syncer := &stubSyncer{err: indexer.ErrSyncInProgress}
	s, _ := setupTestServer(t, syncer)

	w, resp := doRequest(t, s, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(resp))
}

func TestTriggerSyncWriteFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger.Configure(logger.Options{Level: "info", Output: &buf})
	t.Cleanup(func() { logger.Configure(logger.Options{}) })

	syncer := &stubSyncer{err: &catalog.CatalogWriteError{Op: "delete", Count: 2, Err: errors.New("database is locked")}}
	s, _ := setupTestServer(t, syncer)

	w, resp := doRequest(t, s, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "CATALOG_WRITE_ERROR", errorCode(resp))

	out := buf.String()
	assert.Contains(t, out, "Request error")
	assert.Contains(t, out, "database is locked")
	assert.Contains(t, out, "code=CATALOG_WRITE_ERROR")
}

func TestClientErrorsAreNotLoggedAsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger.Configure(logger.Options{Level: "info", Output: &buf})
	t.Cleanup(func() { logger.Configure(logger.Options{}) })

	s, _ := setupTestServer(t, nil)

	w, _ := doRequest(t, s, http.MethodGet, "/api/videos/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, buf.String(), "Request error")
}

func TestServeVideoFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Movies"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Movies", "Alien.mkv"), []byte("alien video data"), 0644))

	s, store := setupTestServerWithRoot(t, nil, root)
	ctx := context.Background()

	videos, err := store.VideosInFolder(ctx, "Movies", "")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	alien, brazil := videos[0], videos[1]

	req := httptest.NewRequest(http.MethodGet, "/api/videos/"+jsonNumber(alien.ID)+"/file", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alien video data", w.Body.String())

	// Brazil is catalogued but was never written to disk.
	w, resp := doRequest(t, s, http.MethodGet, "/api/videos/"+jsonNumber(brazil.ID)+"/file", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MEDIA_FILE_MISSING", errorCode(resp))

	w, resp = doRequest(t, s, http.MethodGet, "/api/videos/999/file", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(resp))
}

func TestServeVideoFileStaysBelowRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "media")
	require.NoError(t, os.MkdirAll(root, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "outside.mp4"), []byte("outside"), 0644))

	s, store := setupTestServerWithRoot(t, nil, root)
	ctx := context.Background()
	require.NoError(t, store.InsertMany(ctx, []database.Video{
		{Title: "outside", Path: "../outside.mp4", ContainerFolder: ".."},
	}))

	videos, err := store.VideosInFolder(ctx, "..", "")
	require.NoError(t, err)
	require.Len(t, videos, 1)

	w, resp := doRequest(t, s, http.MethodGet, "/api/videos/"+jsonNumber(videos[0].ID)+"/file", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MEDIA_FILE_MISSING", errorCode(resp))
}

func TestTriggerSyncUnavailable(t *testing.T) {
	s, _ := setupTestServer(t, nil)

	w, resp := doRequest(t, s, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_IMPLEMENTED", errorCode(resp))
}

func jsonNumber(id uint32) string {
	data, _ := json.Marshal(id)
	return string(data)
}
