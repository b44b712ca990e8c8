package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/config"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/service"
	"github.com/alexedwards/scs/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "sqlite3", driver)
	require.NoError(t, err)

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()
	return newTestClientWith(t, func(cfg *config.Config) { cfg.GuestLogin = true })
}

func newTestClientWith(t *testing.T, configure func(cfg *config.Config)) *testClient {
	t.Helper()

	database := setupTestDB(t)
	t.Cleanup(func() { database.Close() })

	cfg := &config.Config{
		CORSOrigins:        []string{"http://localhost:3000"},
		SessionLifetime:    time.Hour,
		ScoreRatePerSecond: 100,
		ScoreBurst:         100,
	}
	configure(cfg)
	app := newApplication(cfg, database, scs.New())

	return &testClient{t: t, handler: app.routes()}
}

func (c *testClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		c.cookies = cookies
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestAPI_RequiresLogin(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/api/tournaments", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAPI_MatchFlow(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/auth/guest", nil)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = c.do(http.MethodPost, "/api/tournaments", service.TournamentInput{
		Name:   "Hat Tournament",
		Format: bracket.FormatSingleElimination,
		Teams:  []string{"Sky Pilots", "Zone Defense"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]string](t, rec)
	tournamentPath := "/api/tournaments/" + created["id"]

	rec = c.do(http.MethodPost, tournamentPath+"/schedule", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	matches := decode[[]bracket.Match](t, rec)
	require.Len(t, matches, 1)
	final := matches[0]
	require.NotNil(t, final.TeamAID)
	matchPath := "/api/matches/" + final.ID.String()

	rec = c.do(http.MethodPost, matchPath+"/score", map[string]any{"team_id": final.TeamAID, "points": 1})
	assert.Equal(t, http.StatusConflict, rec.Code, "scoring before the match starts")

	rec = c.do(http.MethodPost, matchPath+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, matchPath+"/score", map[string]any{"team_id": final.TeamAID, "points": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[bracket.Match](t, rec).ScoreA)

	rec = c.do(http.MethodPut, matchPath+"/score", map[string]int{"score_a": 15, "score_b": 12})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodPost, matchPath+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[service.CompletionResult](t, rec)
	require.NotNil(t, result.Match.WinnerTeamID)
	assert.Equal(t, *final.TeamAID, *result.Match.WinnerTeamID)

	rec = c.do(http.MethodPost, matchPath+"/score", map[string]any{"team_id": final.TeamAID, "points": 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "already completed")

	// Corrections are for administrators, the guest only runs matches
	rec = c.do(http.MethodPost, matchPath+"/reopen", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodGet, tournamentPath+"/standings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	standings := decode[[]map[string]any](t, rec)
	require.Len(t, standings, 2)
	assert.EqualValues(t, 2, standings[0]["points"])
	assert.EqualValues(t, 3, standings[0]["differential"])

	rec = c.do(http.MethodGet, "/tournaments/"+created["id"], nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hat Tournament")
}

func TestAPI_BadInput(t *testing.T) {
	c := newTestClient(t)
	c.do(http.MethodPost, "/auth/guest", nil)

	testCases := []struct {
		name     string
		method   string
		path     string
		body     any
		expected int
	}{
		{"malformed id", http.MethodGet, "/api/matches/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown match", http.MethodGet, "/api/matches/00000000-0000-0000-0000-0000000000ff", nil, http.StatusNotFound},
		{"unknown field", http.MethodPost, "/api/tournaments", map[string]string{"colour": "red"}, http.StatusBadRequest},
		{"unsupported format", http.MethodPost, "/api/tournaments", map[string]any{"name": "X", "format": "ladder"}, http.StatusBadRequest},
		{"role change by guest", http.MethodPut, "/api/users/00000000-0000-0000-0000-000000000001/role", map[string]string{"role": "admin"}, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := c.do(tc.method, tc.path, tc.body)
			assert.Equal(t, tc.expected, rec.Code, rec.Body.String())
		})
	}
}

func TestAPI_GuestLoginDisabled(t *testing.T) {
	c := newTestClientWith(t, func(cfg *config.Config) {})

	rec := c.do(http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/auth/guest")

	rec = c.do(http.MethodPost, "/auth/guest", nil)
	assert.NotEqual(t, http.StatusFound, rec.Code)

	rec = c.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaticStylesheet(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodGet, "/static/app.css", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
	assert.Contains(t, rec.Body.String(), ".match")
}
