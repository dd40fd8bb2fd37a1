package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/lib"
	"github.com/theleywin/SyncRivo-Registry/src/middleware"
	"github.com/theleywin/SyncRivo-Registry/src/models"
	"github.com/theleywin/SyncRivo-Registry/src/registry"
	"github.com/theleywin/SyncRivo-Registry/src/store"
)

type envelope struct {
	Success bool               `json:"success"`
	Data    *models.Connection `json:"data"`
	Message string             `json:"message"`
	Error   string             `json:"error"`
}

func newTestApp(t *testing.T, opts registry.Options, secret string) (*fiber.App, *middleware.Metrics) {
	t.Helper()
	s, err := store.OpenSQLite(":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	metrics := middleware.NewMetrics()
	opts.Observer = metrics
	app := NewApp(AppConfig{
		Registry:  registry.New(s, opts),
		Logger:    zap.NewNop(),
		Metrics:   metrics,
		JWTSecret: secret,
	})
	return app, metrics
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeEnvelope(t *testing.T, data []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env), string(data))
	return env
}

func createConnection(t *testing.T, app *fiber.App, body string) models.Connection {
	t.Helper()
	resp, data := doJSON(t, app, http.MethodPost, "/api/connections", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	env := decodeEnvelope(t, data)
	require.True(t, env.Success)
	require.NotNil(t, env.Data)
	return *env.Data
}

const slackToTeamsBody = `{"provider":"slack","channel_id":"C1","team_id":"W1","routes":{"provider":"teams","to":"T1","graph_channel_id":"G1"}}`

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "")

	resp, data := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "OK", body["status"])

	resp, _ = doJSON(t, app, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateConnection_Scenario(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "")

	resp, data := doJSON(t, app, http.MethodPost, "/api/connections",
		`{"provider":"slack","channel_id":"C1","team_id":"W1","routes":{"provider":"teams","to":"T1"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	env := decodeEnvelope(t, data)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "routes.graph_channel_id")

	c := createConnection(t, app, slackToTeamsBody)
	assert.NotEmpty(t, c.Id)
	assert.True(t, c.CreatedAt.Equal(c.UpdatedAt))
	assert.Equal(t, "G1", c.Routes.GraphChannelId)
}

func TestCreateConnection_Rejections(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "")

	for name, body := range map[string]string{
		"missing provider":       `{"channel_id":"C1","routes":{"provider":"teams","to":"T1","graph_channel_id":"G"}}`,
		"missing channel_id":     `{"provider":"discord","routes":{"provider":"teams","to":"T1","graph_channel_id":"G"}}`,
		"missing routes":         `{"provider":"discord","channel_id":"C1"}`,
		"missing routes.to":      `{"provider":"discord","channel_id":"C1","routes":{"provider":"discord"}}`,
		"google without space":   `{"provider":"google","channel_id":"C1","routes":{"provider":"discord","to":"D"}}`,
		"slack without team":     `{"provider":"slack","channel_id":"C1","routes":{"provider":"discord","to":"D"}}`,
		"teams without graph id": `{"provider":"teams","channel_id":"C1","routes":{"provider":"discord","to":"D"}}`,
		"route slack no channel": `{"provider":"discord","channel_id":"C1","routes":{"provider":"slack","to":"S"}}`,
		"route google no space":  `{"provider":"discord","channel_id":"C1","routes":{"provider":"google","to":"S"}}`,
		"malformed json":         `{"provider":`,
		"non-string channel id":  `{"provider":"discord","channel_id":7,"routes":{"provider":"discord","to":"D"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, data := doJSON(t, app, http.MethodPost, "/api/connections", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(data))
			env := decodeEnvelope(t, data)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}

	resp, data := doJSON(t, app, http.MethodGet, "/api/connections", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(data), "no document may be written")
}

func TestListConnections_Filters(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "")

	createConnection(t, app, slackToTeamsBody)
	createConnection(t, app, `{"provider":"teams","channel_id":"T-chan","graph_channel_id":"G2","routes":{"provider":"slack","to":"S1","channel_id":"needle-in-route"}}`)
	createConnection(t, app, `{"provider":"google","channel_id":"G-chan","outgoing_space":"spaces/A","routes":{"provider":"google","to":"spaces/B","outgoing_space":"spaces/B"}}`)

	list := func(query string) []models.Connection {
		resp, data := doJSON(t, app, http.MethodGet, "/api/connections"+query, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []models.Connection
		require.NoError(t, json.Unmarshal(data, &out))
		return out
	}

	assert.Len(t, list(""), 3)

	got := list("?sourceProvider=slack")
	require.Len(t, got, 1)
	assert.Equal(t, models.ProviderSlack, got[0].Provider)

	got = list("?targetProvider=google")
	require.Len(t, got, 1)
	assert.Equal(t, "G-chan", got[0].ChannelId)

	got = list("?search=NEEDLE")
	require.Len(t, got, 1)
	assert.Equal(t, "T-chan", got[0].ChannelId)

	assert.Empty(t, list("?sourceProvider=slack&search=needle"))
}

func TestUpdateConnection(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "")
	created := createConnection(t, app, slackToTeamsBody)

	t.Run("partial update with forged id", func(t *testing.T) {
		resp, data := doJSON(t, app, http.MethodPut, "/api/connections/"+created.Id,
			`{"id":"forged","_id":"forged","channel_id":"C2"}`)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
		env := decodeEnvelope(t, data)
		require.True(t, env.Success)
		assert.Equal(t, created.Id, env.Data.Id)
		assert.Equal(t, "C2", env.Data.ChannelId)
		assert.Equal(t, created.TeamId, env.Data.TeamId)
		assert.Equal(t, created.Routes, env.Data.Routes)
		assert.True(t, created.CreatedAt.Equal(env.Data.CreatedAt))
		assert.True(t, env.Data.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		resp, data := doJSON(t, app, http.MethodPut, "/api/connections/does-not-exist", `{"channel_id":"C3"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.False(t, decodeEnvelope(t, data).Success)
	})

	t.Run("empty body bumps updated_at", func(t *testing.T) {
		resp, data := doJSON(t, app, http.MethodGet, "/api/connections", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var all []models.Connection
		require.NoError(t, json.Unmarshal(data, &all))
		require.Len(t, all, 1)
		before := all[0]

		resp, data = doJSON(t, app, http.MethodPut, "/api/connections/"+created.Id, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
		env := decodeEnvelope(t, data)
		require.True(t, env.Success)
		assert.Equal(t, before.ChannelId, env.Data.ChannelId)
		assert.Equal(t, before.Routes, env.Data.Routes)
		assert.True(t, env.Data.UpdatedAt.After(before.UpdatedAt))
	})

	t.Run("empty body on unknown id", func(t *testing.T) {
		resp, data := doJSON(t, app, http.MethodPut, "/api/connections/missing", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(data))
		assert.False(t, decodeEnvelope(t, data).Success)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPut, "/api/connections/"+created.Id, `{"channel_id":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdateConnection_StrictPolicy(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{UpdatePolicy: registry.UpdateStrict}, "")
	created := createConnection(t, app, slackToTeamsBody)

	resp, data := doJSON(t, app, http.MethodPut, "/api/connections/"+created.Id, `{"routes":{"provider":"google","to":"spaces/X"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeEnvelope(t, data).Message, "routes.outgoing_space")
}

func TestDeleteConnection(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "")
	created := createConnection(t, app, slackToTeamsBody)

	resp, data := doJSON(t, app, http.MethodDelete, "/api/connections/"+created.Id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeEnvelope(t, data).Success)

	for i := 0; i < 2; i++ {
		resp, data = doJSON(t, app, http.MethodDelete, "/api/connections/"+created.Id, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.False(t, decodeEnvelope(t, data).Success)
	}
}

func TestStoreErrors(t *testing.T) {
	boom := errors.New("socket closed")
	app := NewApp(AppConfig{
		Registry: registry.New(brokenStore{err: boom}, registry.Options{}),
		Logger:   zap.NewNop(),
	})

	resp, data := doJSON(t, app, http.MethodGet, "/api/connections", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	env := decodeEnvelope(t, data)
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to fetch connections", env.Message)
	assert.Empty(t, env.Error)

	resp, data = doJSON(t, app, http.MethodPost, "/api/connections", slackToTeamsBody)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	env = decodeEnvelope(t, data)
	assert.Contains(t, env.Error, "socket closed")

	resp, data = doJSON(t, app, http.MethodPut, "/api/connections/abc", `{"team_id":"W1"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, decodeEnvelope(t, data).Error)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/connections/abc", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "")
	resp, data := doJSON(t, app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, decodeEnvelope(t, data).Success)
}

func TestAuth(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "s3cret")

	resp, _ := doJSON(t, app, http.MethodGet, "/api/connections", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := lib.GenerateJWT("s3cret", "dashboard", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/connections", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health stays public")
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, registry.Options{}, "")
	createConnection(t, app, slackToTeamsBody)
	doJSON(t, app, http.MethodDelete, "/api/connections/missing", "")

	resp, data := doJSON(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := string(data)
	assert.Contains(t, body, `registry_operations_total{op="create",outcome="ok"} 1`)
	assert.Contains(t, body, `registry_operations_total{op="delete",outcome="not_found"} 1`)
	assert.Contains(t, body, "registry_http_requests_total")
}

// brokenStore fails every operation.
type brokenStore struct {
	err error
}

func (s brokenStore) List(context.Context, store.ListFilter) ([]models.Connection, error) {
	return nil, s.err
}

func (s brokenStore) Insert(context.Context, *models.Connection) (string, error) {
	return "", s.err
}

func (s brokenStore) FindByID(context.Context, string) (*models.Connection, error) {
	return nil, s.err
}

func (s brokenStore) Update(context.Context, string, models.ConnectionPatch, time.Time) (*models.Connection, error) {
	return nil, s.err
}

func (s brokenStore) Delete(context.Context, string) error { return s.err }
func (s brokenStore) Migrate(context.Context) error { return s.err }
func (s brokenStore) Ping(context.Context) error { return s.err }
func (s brokenStore) Close(context.Context) error { return nil }
