package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/huddle-api/internal/middleware"
	"github.com/noah-isme/huddle-api/internal/models"
)

var organizerClaims = &models.JWTClaims{UserID: "u-1", FullName: "Dana", Role: models.RoleOrganizer}

type call struct {
	method string
	target string
	body   string
	claims *models.JWTClaims
	params gin.Params
}

func perform(t *testing.T, handle gin.HandlerFunc, in call) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var body *bytes.Buffer
	if in.body != "" {
		body = bytes.NewBufferString(in.body)
	} else {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(in.method, in.target, body)
	require.NoError(t, err)
	if in.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	c.Params = in.params
	if in.claims != nil {
		c.Set(middleware.ContextUserKey, in.claims)
	}
	handle(c)
	// The engine flushes bare status codes after the chain; do the same here.
	c.Writer.WriteHeaderNow()
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeEnvelope(t, w)
	errBody, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	code, _ := errBody["code"].(string)
	return code
}
