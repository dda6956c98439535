package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/bodegas-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/bodegas-api/pkg/jwt"
)

const testJWTSecret = "test-secret-key-for-unit-tests"

// tokenFor devuelve el header Authorization para userID con role.
func tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{UserID: userID, Role: role}, "bodegas-api-test", time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

// protectedApp expone GET /protected detrás de AuthMiddleware + RequireRole(roles...).
func protectedApp(roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected", apphttp.AuthMiddleware(testJWTSecret), apphttp.RequireRole(roles...), func(c *fiber.Ctx) error {
		actor := apphttp.GetActor(c)
		return c.JSON(fiber.Map{"user_id": actor.ID, "role": actor.Role})
	})
	return app
}

func get(t *testing.T, app *fiber.App, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// ─── RBAC ────────────────────────────────────────────────────────────────────

func TestRequireRole(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{UserID: "u", Role: "admin"}, "x", -time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name     string
		allowed  []string
		header   string
		status   int
		wantCode string
	}{
		{"rol exacto", []string{"admin"}, tokenFor(t, "u", "admin"), http.StatusOK, ""},
		{"uno de varios roles", []string{"admin", "bodeguero"}, tokenFor(t, "u", "bodeguero"), http.StatusOK, ""},
		{"solicitante en ruta admin", []string{"admin"}, tokenFor(t, "u", "solicitante"), http.StatusForbidden, "FORBIDDEN"},
		{"aprobador en ruta de bodega", []string{"bodeguero"}, tokenFor(t, "u", "aprobador"), http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{"admin"}, tokenFor(t, "u", ""), http.StatusUnauthorized, "MISSING_ROLE"},
		{"sin header", []string{"admin"}, "", http.StatusUnauthorized, "MISSING_TOKEN"},
		{"esquema distinto", []string{"admin"}, "Token abc", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token malformado", []string{"admin"}, "Bearer token.invalido.aqui", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"token vencido", []string{"admin"}, "Bearer " + expired, http.StatusUnauthorized, "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := get(t, protectedApp(tc.allowed...), tc.header)
			assert.Equal(t, tc.status, status)
			if tc.wantCode != "" {
				assert.Contains(t, body, tc.wantCode)
			}
		})
	}
}

// ─── Claims en Locals ────────────────────────────────────────────────────────

func TestAuthMiddleware_CargaActor(t *testing.T) {
	status, body := get(t, protectedApp("bodeguero"), tokenFor(t, "bod-7", "bodeguero"))
	require.Equal(t, http.StatusOK, status)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "bod-7", got["user_id"])
	assert.Equal(t, "bodeguero", got["role"])
}
