package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/diabetes-classifier/internal/model"
	"github.com/your-org/diabetes-classifier/internal/scorecache"
)

// testArtifact wraps a hand-set logistic model that predicts diabetic
// when the first feature exceeds 0.5.
func testArtifact(t *testing.T) *model.Artifact {
	t.Helper()
	clf := model.NewLogisticRegression()
	clf.Weights = []float64{10, 0}
	clf.Bias = -5
	art, err := model.NewArtifact(clf, []string{"f0", "f1"})
	require.NoError(t, err)
	return art
}

type memCache struct {
	data map[string][]string
	hits int
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]string)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]string, error) {
	if v, ok := c.data[key]; ok {
		c.hits++
		return v, nil
	}
	return nil, scorecache.ErrCacheMiss
}

func (c *memCache) Set(ctx context.Context, key string, classes []string) error {
	c.sets++
	c.data[key] = classes
	return nil
}

func jsonDecode(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}

func newTestServer(t *testing.T, cache scorecache.Cache) *httptest.Server {
	t.Helper()
	h, err := NewHandler(testArtifact(t), cache)
	require.NoError(t, err)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestScoreEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	body := `{"data": [[0.9, 0.0], [0.1, 0.0]]}`
	resp, err := http.Post(srv.URL+"/score", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got ScoreResponse
	require.NoError(t, jsonDecode(resp, &got))
	assert.Equal(t, []string{"diabetic", "not-diabetic"}, got.Predictions)
}

func TestScoreEndpointEmptyData(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/score", "application/json", strings.NewReader(`{"data": []}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got ScoreResponse
	require.NoError(t, jsonDecode(resp, &got))
	assert.Empty(t, got.Predictions)
}

func TestScoreEndpointMalformedBody(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/score", "application/json", strings.NewReader(`{"data": [`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScoreEndpointWrongWidth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/score", "application/json", strings.NewReader(`{"data": [[1.0]]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got map[string]string
	require.NoError(t, jsonDecode(resp, &got))
	assert.Contains(t, got["error"], "expected 2")
}

func TestScoreEndpointUsesCache(t *testing.T) {
	cache := newMemCache()
	srv := newTestServer(t, cache)

	body := `{"data": [[0.9, 0.0]]}`
	for i := 0; i < 2; i++ {
		resp, err := http.Post(srv.URL+"/score", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 1, cache.hits)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebsocketScoring(t *testing.T) {
	srv := newTestServer(t, nil)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ScoreRequest{Data: [][]float64{{0.9, 0}, {0.1, 0}}}))
	var got ScoreResponse
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, []string{"diabetic", "not-diabetic"}, got.Predictions)

	// A bad frame reports an error but keeps the connection open.
	require.NoError(t, conn.WriteJSON(ScoreRequest{Data: [][]float64{{1}}}))
	var gotErr map[string]string
	require.NoError(t, conn.ReadJSON(&gotErr))
	assert.NotEmpty(t, gotErr["error"])

	require.NoError(t, conn.WriteJSON(ScoreRequest{Data: [][]float64{{0.9, 0}}}))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, []string{"diabetic"}, got.Predictions)
}
