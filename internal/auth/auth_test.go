package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolattend/internal/model"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "schoolattend"
)

func TestIssueAndParse(t *testing.T) {
	in := Session{Subject: "u-1", Name: "Meera Nair", Role: model.RoleTeacher, Class: "9A"}
	tok, err := Issue(in, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, time.Minute)

	out, err := Parse(tok.AccessToken, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.True(t, out.Staff())
}

func TestParseRejects(t *testing.T) {
	tok, err := Issue(Session{Subject: "u-1", Role: model.RoleAdmin}, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	expired, err := Issue(Session{Subject: "u-1", Role: model.RoleAdmin}, testIssuer, testKey, -time.Minute)
	require.NoError(t, err)

	cases := map[string]struct {
		token, key, issuer string
	}{
		"wrong key":    {tok.AccessToken, "other", testIssuer},
		"wrong issuer": {tok.AccessToken, testKey, "someone-else"},
		"expired":      {expired.AccessToken, testKey, testIssuer},
		"garbage":      {"not-a-jwt", testKey, testIssuer},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.token, tc.key, tc.issuer)
			assert.Error(t, err)
		})
	}
}

func TestIssueWithoutKey(t *testing.T) {
	_, err := Issue(Session{Subject: "u-1"}, testIssuer, "", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/staff", Authenticate(testKey, testIssuer), RequireRole(model.RoleTeacher, model.RoleAdmin),
		func(c *gin.Context) {
			s, _ := SessionFrom(c)
			c.String(http.StatusOK, s.Name)
		})

	bearer := func(role string) string {
		tok, err := Issue(Session{Subject: "u", Name: "Meera", Role: role}, testIssuer, testKey, time.Hour)
		require.NoError(t, err)
		return "Bearer " + tok.AccessToken
	}

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"student", bearer(model.RoleStudent), http.StatusForbidden},
		{"teacher", bearer(model.RoleTeacher), http.StatusOK},
		{"admin lowercase scheme", "bearer " + bearer(model.RoleAdmin)[len("Bearer "):], http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/staff", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "Meera", w.Body.String())
			}
		})
	}
}
