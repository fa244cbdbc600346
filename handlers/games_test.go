package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamecollection/config"
	"gamecollection/database"
	"gamecollection/middleware"
	"gamecollection/models"
)

func newTestApp(t *testing.T) (*fiber.App, *sql.DB) {
	t.Helper()
	db, err := database.InitDB(&config.Config{Server: config.ServerConfig{
		DBPath: filepath.Join(t.TempDir(), "games.db"),
	}})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := database.NewGameStore(db)
	app := fiber.New()
	api := app.Group("/api")
	api.Get("/", ListGames(store))
	api.Post("/", CreateGame(store))
	api.Put("/", ReplaceGames(store))
	api.Delete("/", DeleteGames(store))
	api.Get("/:id", GetGame(store))
	api.Put("/:id", UpdateGame(store))
	api.Delete("/:id", DeleteGame(store))
	app.Get("/metrics", GetMetrics(store, middleware.NewLatencyStats(10)))
	return app, db
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, string) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func createGame(t *testing.T, app *fiber.App, body any) int64 {
	t.Helper()
	code, raw := do(t, app, fiber.MethodPost, "/api", body)
	require.Equal(t, fiber.StatusCreated, code, raw)

	var res models.CreateResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &res))
	return res.ID
}

func listGames(t *testing.T, app *fiber.App) []models.Game {
	t.Helper()
	code, raw := do(t, app, fiber.MethodGet, "/api", nil)
	require.Equal(t, fiber.StatusOK, code, raw)

	var games []models.Game
	require.NoError(t, json.Unmarshal([]byte(raw), &games))
	return games
}

func TestGameLifecycleScenario(t *testing.T) {
	app, _ := newTestApp(t)

	code, raw := do(t, app, fiber.MethodPost, "/api", map[string]any{"title": "Hades", "platform": "PC"})
	assert.Equal(t, fiber.StatusCreated, code)
	assert.JSONEq(t, `{"status":"CREATE ENTRY SUCCESFUL","id":1}`, raw)

	code, raw = do(t, app, fiber.MethodGet, "/api/1", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"id":1,"title":"Hades","platform":"PC","genre":null,"hours_played":null,"completed":null}`, raw)

	code, raw = do(t, app, fiber.MethodDelete, "/api/1", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"status":"DELETE GAME ENTRY SUCCESFUL"}`, raw)

	code, raw = do(t, app, fiber.MethodGet, "/api/1", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"Game not found"}`, raw)
}

func TestListGames(t *testing.T) {
	app, _ := newTestApp(t)

	code, raw := do(t, app, fiber.MethodGet, "/api", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `[]`, raw)

	for _, title := range []string{"Hades", "Celeste", "Outer Wilds"} {
		createGame(t, app, map[string]any{"title": title})
	}
	games := listGames(t, app)
	require.Len(t, games, 3)
	assert.Equal(t, "Outer Wilds", games[2].Title)
}

func TestCreateGameAllFields(t *testing.T) {
	app, _ := newTestApp(t)

	id := createGame(t, app, map[string]any{
		"title":        "Celeste",
		"platform":     "Switch",
		"genre":        "Platformer",
		"hours_played": 12,
		"completed":    true,
		"status":       "Completed",
	})

	code, raw := do(t, app, fiber.MethodGet, "/api/"+itoa(id), nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"id":1,"title":"Celeste","platform":"Switch","genre":"Platformer","hours_played":12,"completed":true,"status":"Completed"}`, raw)
}

func TestCreateGameValidation(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"title":`},
		{"missing title", map[string]any{"platform": "PC"}},
		{"blank title", map[string]any{"title": "   "}},
		{"negative hours", map[string]any{"title": "Hades", "hours_played": -3}},
		{"unknown status", map[string]any{"title": "Hades", "status": "Abandoned"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, raw := do(t, app, fiber.MethodPost, "/api", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, code)
			assert.Contains(t, raw, `"error"`)
		})
	}

	assert.Empty(t, listGames(t, app))
}

func TestGetGameUnknownOrInvalidID(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/api/99", "/api/abc", "/api/-1"} {
		code, raw := do(t, app, fiber.MethodGet, path, nil)
		assert.Equal(t, fiber.StatusNotFound, code, path)
		assert.JSONEq(t, `{"error":"Game not found"}`, raw)
	}
}

func TestUpdateGame(t *testing.T) {
	app, _ := newTestApp(t)
	id := createGame(t, app, map[string]any{"title": "Hades", "platform": "PC"})

	code, raw := do(t, app, fiber.MethodPut, "/api/"+itoa(id), map[string]any{
		"title":        "Hades",
		"platform":     "Switch",
		"hours_played": 40,
		"completed":    true,
	})
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"status":"UPDATE GAME ENTRY SUCCESFUL"}`, raw)

	code, raw = do(t, app, fiber.MethodGet, "/api/"+itoa(id), nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"id":1,"title":"Hades","platform":"Switch","genre":null,"hours_played":40,"completed":true}`, raw)
}

func TestUpdateGameUnknownID(t *testing.T) {
	app, _ := newTestApp(t)
	createGame(t, app, map[string]any{"title": "Hades"})

	code, raw := do(t, app, fiber.MethodPut, "/api/2", map[string]any{"title": "Ghost"})
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"Game not found"}`, raw)

	games := listGames(t, app)
	require.Len(t, games, 1)
	assert.Equal(t, "Hades", games[0].Title)
}

func TestUpdateGameValidation(t *testing.T) {
	app, _ := newTestApp(t)
	id := createGame(t, app, map[string]any{"title": "Hades"})

	code, _ := do(t, app, fiber.MethodPut, "/api/"+itoa(id), map[string]any{"title": ""})
	assert.Equal(t, fiber.StatusBadRequest, code)

	games := listGames(t, app)
	require.Len(t, games, 1)
	assert.Equal(t, "Hades", games[0].Title)
}

func TestDeleteGameUnknownID(t *testing.T) {
	app, _ := newTestApp(t)
	createGame(t, app, map[string]any{"title": "Hades"})

	code, raw := do(t, app, fiber.MethodDelete, "/api/7", nil)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"Game not found"}`, raw)
	assert.Len(t, listGames(t, app), 1)
}

func TestReplaceGames(t *testing.T) {
	app, _ := newTestApp(t)
	oldIDs := map[int64]bool{}
	for _, title := range []string{"Old 1", "Old 2"} {
		oldIDs[createGame(t, app, map[string]any{"title": title})] = true
	}

	code, raw := do(t, app, fiber.MethodPut, "/api", []map[string]any{
		{"title": "Hades", "platform": "PC"},
		{"title": "Celeste", "completed": true},
	})
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"status":"REPLACE COLLECTION SUCCESFUL"}`, raw)

	games := listGames(t, app)
	require.Len(t, games, 2)
	titles := []string{games[0].Title, games[1].Title}
	assert.ElementsMatch(t, []string{"Hades", "Celeste"}, titles)
	for _, g := range games {
		assert.False(t, oldIDs[g.ID], "id %d reused", g.ID)
	}
}

func TestReplaceGamesRejectsInvalidElement(t *testing.T) {
	app, _ := newTestApp(t)
	createGame(t, app, map[string]any{"title": "Hades"})

	code, raw := do(t, app, fiber.MethodPut, "/api", []map[string]any{{"title": "Celeste"}, {"title": ""}})
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, raw, "games[1]")

	code, _ = do(t, app, fiber.MethodPut, "/api", map[string]any{"title": "not an array"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	// null で全件消えてはいけない
	code, raw = do(t, app, fiber.MethodPut, "/api", "null")
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.JSONEq(t, `{"error":"Invalid JSON"}`, raw)

	games := listGames(t, app)
	require.Len(t, games, 1)
	assert.Equal(t, "Hades", games[0].Title)
}

func TestDeleteGames(t *testing.T) {
	app, _ := newTestApp(t)
	createGame(t, app, map[string]any{"title": "Hades"})
	createGame(t, app, map[string]any{"title": "Celeste"})

	code, raw := do(t, app, fiber.MethodDelete, "/api", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"status":"DELETE COLLECTION SUCCESFUL"}`, raw)
	assert.Empty(t, listGames(t, app))

	// 空でももう一度成功する
	code, _ = do(t, app, fiber.MethodDelete, "/api", nil)
	assert.Equal(t, fiber.StatusOK, code)
}

func TestStorageFailureIsInternalError(t *testing.T) {
	app, db := newTestApp(t)
	require.NoError(t, db.Close())

	code, raw := do(t, app, fiber.MethodGet, "/api", nil)
	assert.Equal(t, http.StatusInternalServerError, code)

	var res models.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &res))
	assert.Contains(t, res.Error, "database is closed")

	// 存在しない id でもストレージ障害は 404 にしない
	code, _ = do(t, app, fiber.MethodGet, "/api/1", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestReplaceGamesWithEmptyArray(t *testing.T) {
	app, _ := newTestApp(t)
	createGame(t, app, map[string]any{"title": "Hades"})

	code, raw := do(t, app, fiber.MethodPut, "/api", "[]")
	assert.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `{"status":"REPLACE COLLECTION SUCCESFUL"}`, raw)
	assert.Empty(t, listGames(t, app))
}
