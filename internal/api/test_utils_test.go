package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/parksanggeon/smart-recipe-generator/internal/middleware"
	"github.com/parksanggeon/smart-recipe-generator/internal/mocks"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
	"github.com/parksanggeon/smart-recipe-generator/internal/wizard"
)

const testToken = "token-ada"

var ada = types.UserSummary{ID: "user-ada", Name: "Ada", Image: "https://img.example/ada.png"}

func init() {
	gin.SetMode(gin.TestMode)
}

// staticTokens maps raw tokens to claims
type staticTokens map[string]*types.TokenClaims

func (s staticTokens) ValidateToken(token string) (*types.TokenClaims, error) {
	claims, ok := s[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return claims, nil
}

func claimsFor(u types.UserSummary) *types.TokenClaims {
	c := &types.TokenClaims{Name: u.Name, Picture: u.Image}
	c.Subject = u.ID
	return c
}

// testServer is a router wired to mocks, with a real wizard over a memory store
type testServer struct {
	router      *gin.Engine
	generator   *mocks.MockGenerator
	chat        *mocks.MockChatAssistant
	recipes     *mocks.MockRecipeService
	ingredients *mocks.MockIngredientService
	audio       *mocks.MockAudioService
}

func newTestServer(t *testing.T, opts ...func(*Dependencies)) *testServer {
	t.Helper()
	ts := &testServer{
		generator:   &mocks.MockGenerator{},
		chat:        &mocks.MockChatAssistant{},
		recipes:     &mocks.MockRecipeService{},
		ingredients: &mocks.MockIngredientService{},
		audio:       &mocks.MockAudioService{},
	}

	router := gin.New()
	router.Use(middleware.Recovery(), middleware.ErrorHandler())
	deps := Dependencies{
		Tokens:      staticTokens{testToken: claimsFor(ada)},
		Generator:   ts.generator,
		Chat:        ts.chat,
		Recipes:     ts.recipes,
		Ingredients: ts.ingredients,
		Audio:       ts.audio,
		Wizard:      wizard.NewController(wizard.NewMemoryStore(), ts.generator, ts.recipes, nil),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	RegisterRoutes(router, deps)
	ts.router = router

	t.Cleanup(func() {
		ts.generator.AssertExpectations(t)
		ts.chat.AssertExpectations(t)
		ts.recipes.AssertExpectations(t)
		ts.ingredients.AssertExpectations(t)
		ts.audio.AssertExpectations(t)
	})
	return ts
}

// withDedup enables the repeated-submission guard
func withDedup(window time.Duration) func(*Dependencies) {
	return func(d *Dependencies) {
		d.Dedup = middleware.NewDeduplicator(window)
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, ts.router, method, path, body, testToken)
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
