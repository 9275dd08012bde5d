package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/jhoicas/inventario-ledger/pkg/jwt"
)

const secret = "test-secret-key-for-unit-tests"

func TestGenerateAndParse_ConRole(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "u-1", "bodeguero", "test", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	userID, role, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.Equal(t, "bodeguero", role)
}

func TestParse_TokenExpirado_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "u-1", "admin", "test", -1)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse(secret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto_RetornaError(t *testing.T) {
	tok, err := pkgjwt.Generate(secret, "u-1", "admin", "test", 60)
	require.NoError(t, err)

	_, _, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err, "secret incorrecto debe invalidar el token")
}

func TestParse_SinUserID_UsaSubject(t *testing.T) {
	claims := pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   "u-sub",
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "admin",
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	userID, role, err := pkgjwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-sub", userID)
	assert.Equal(t, "admin", role)
}

func TestGenerate_SecretVacio_Error(t *testing.T) {
	_, err := pkgjwt.Generate("", "u-1", "admin", "test", 60)
	assert.Error(t, err)
}
