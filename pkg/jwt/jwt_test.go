package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/bodegas-api/pkg/jwt"
)

const (
	secret = "clave-de-pruebas"
	issuer = "bodegas-api-test"
)

var bodeguero = pkgjwt.Identity{UserID: "u-1", Role: "bodeguero"}

func TestJWT_IdaYVuelta(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, bodeguero, issuer, time.Hour)
	require.NoError(t, err)

	id, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, bodeguero, id)
}

func TestJWT_Rechazos(t *testing.T) {
	vencido, err := pkgjwt.Generate(secret, bodeguero, issuer, -time.Minute)
	require.NoError(t, err)
	valido, err := pkgjwt.Generate(secret, bodeguero, issuer, time.Hour)
	require.NoError(t, err)
	sinUsuario, err := pkgjwt.Generate(secret, pkgjwt.Identity{Role: "admin"}, issuer, time.Hour)
	require.NoError(t, err)
	hs512, err := gojwt.NewWithClaims(gojwt.SigningMethodHS512, gojwt.MapClaims{"user_id": "u-1"}).SignedString([]byte(secret))
	require.NoError(t, err)

	cases := map[string]struct{ secret, token string }{
		"vencido":         {secret, vencido},
		"otro secret":     {"otro", valido},
		"malformado":      {secret, "x.y.z"},
		"sin usuario":     {secret, sinUsuario},
		"algoritmo ajeno": {secret, hs512},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := pkgjwt.Parse(tc.secret, tc.token)
			assert.ErrorIs(t, err, pkgjwt.ErrInvalidToken)
		})
	}
}

func TestJWT_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", bodeguero, issuer, time.Hour)
	assert.ErrorIs(t, err, pkgjwt.ErrEmptySecret)

	_, err = pkgjwt.Parse("", "x.y.z")
	assert.ErrorIs(t, err, pkgjwt.ErrEmptySecret)
}

func TestJWT_SubjectComoUsuario(t *testing.T) {
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{"sub": "u-9", "role": "admin"}).SignedString([]byte(secret))
	require.NoError(t, err)

	id, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-9", id.UserID)
	assert.Equal(t, "admin", id.Role)
}
