package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"modforge/core/history"
	"modforge/core/manager"
	"modforge/core/notify"
	"modforge/core/source"
	"modforge/core/validate"
	"modforge/feature/catalog"
	"modforge/feature/content"
)

func fixtureManager(t *testing.T) *manager.Manager {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		validate.ManifestName: `{"namespace":"base","name":"Base","version":"1.0"}`,
		"items/sword.json":    `{"name":"sword","damage":7}`,
		"textures/sword.png":  "png-bytes",
	}
	for rel, data := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(data), 0o644))
	}

	cfg := manager.Config{
		Validator: validate.NewManifestValidator(),
		Sources:   func() []source.Source { return []source.Source{source.NewDirSource("mod", root)} },
		Provider:  content.NewProvider(zap.NewNop()),
		Overwrite: regexp.MustCompile(`\.json$`),
	}
	return manager.New(cfg, zap.NewNop(), notify.NewBus())
}

func catalogApp(t *testing.T, mgr *manager.Manager, journal *history.Recorder) *fiber.App {
	t.Helper()
	app := fiber.New()
	feature := catalog.NewFeature(mgr, journal, zap.NewNop())
	require.NoError(t, feature.Load(app))
	return app
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHandler_ListItems(t *testing.T) {
	mgr := fixtureManager(t)
	require.NoError(t, mgr.Load(context.Background()))
	app := catalogApp(t, mgr, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/catalog/items", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var items []catalog.ItemSummary
	decodeBody(t, resp, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "base:items/sword", items[0].ID)
	assert.Equal(t, "document", items[0].Kind)
	assert.Equal(t, "base:textures/sword.png", items[1].ID)
	assert.Equal(t, "blob", items[1].Kind)
	assert.Equal(t, "mod", items[0].Source)
}

func TestHandler_GetItem(t *testing.T) {
	mgr := fixtureManager(t)
	require.NoError(t, mgr.Load(context.Background()))
	app := catalogApp(t, mgr, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/catalog/items/base:items/sword", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail catalog.ItemDetail
	decodeBody(t, resp, &detail)
	assert.Equal(t, "base:items/sword", detail.ID)
	assert.Equal(t, "items/sword.json", detail.Path)
	assert.Equal(t, "sword", detail.Fields["name"])
}

func TestHandler_GetBlobItem(t *testing.T) {
	mgr := fixtureManager(t)
	require.NoError(t, mgr.Load(context.Background()))
	app := catalogApp(t, mgr, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/catalog/items/base:textures/sword.png", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var detail catalog.ItemDetail
	decodeBody(t, resp, &detail)
	assert.Equal(t, "blob", detail.Kind)
	assert.Equal(t, len("png-bytes"), detail.Size)
}

func TestHandler_GetItemUnknown(t *testing.T) {
	mgr := fixtureManager(t)
	require.NoError(t, mgr.Load(context.Background()))
	app := catalogApp(t, mgr, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/catalog/items/base:missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_CyclesWithoutJournal(t *testing.T) {
	mgr := fixtureManager(t)
	app := catalogApp(t, mgr, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/catalog/cycles", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandler_CyclesWithJournal(t *testing.T) {
	mgr := fixtureManager(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	journal := history.NewRecorder(db, zap.NewNop())
	require.NoError(t, journal.Migrate())
	journal.Attach(mgr.Bus())

	require.NoError(t, mgr.Load(context.Background()))
	app := catalogApp(t, mgr, journal)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/catalog/cycles", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var cycles []history.CycleRecord
	decodeBody(t, resp, &cycles)
	require.Len(t, cycles, 1)
	assert.Equal(t, 2, cycles[0].Items)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/catalog/cycles/"+cycles[0].ID+"/errors", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var errs []history.CycleErrorRecord
	decodeBody(t, resp, &errs)
	assert.Empty(t, errs)
}
