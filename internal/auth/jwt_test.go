package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "trendshub", Duration: time.Hour}
}

func TestSignAndParse(t *testing.T) {
	ts := testTokens()
	raw, exp, err := ts.Sign("ops", ScopeFetch)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ts.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.True(t, claims.HasScope(ScopeFetch))
	assert.False(t, claims.HasScope("admin"))
}

func TestParseRejectsForeignTokens(t *testing.T) {
	raw, _, err := testTokens().Sign("ops", ScopeFetch)
	require.NoError(t, err)

	other := testTokens()
	other.Secret = []byte("different")
	_, err = other.Parse(raw)
	require.Error(t, err)

	wrongIssuer := testTokens()
	wrongIssuer.Issuer = "someone-else"
	_, err = wrongIssuer.Parse(raw)
	require.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	ts := testTokens()
	ts.Duration = -time.Minute
	raw, _, err := ts.Sign("ops")
	require.NoError(t, err)

	_, err = ts.Parse(raw)
	require.Error(t, err)
}

func TestSignRequiresOperator(t *testing.T) {
	_, _, err := testTokens().Sign("")
	require.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := testTokens()

	router := gin.New()
	router.GET("/protected", AuthMiddleware(ts, ScopeFetch), func(c *gin.Context) {
		c.String(http.StatusOK, MustGetClaims(c).Operator)
	})

	withScope, _, err := ts.Sign("ops", ScopeFetch)
	require.NoError(t, err)
	withoutScope, _, err := ts.Sign("viewer")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"no scope", "Bearer " + withoutScope, http.StatusForbidden},
		{"ok", "Bearer " + withScope, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "ops", rec.Body.String())
			}
		})
	}
}
