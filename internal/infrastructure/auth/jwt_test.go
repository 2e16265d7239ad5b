package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_IssueAndParse(t *testing.T) {
	svc := NewJWTService("test-secret", "docsphere", time.Hour)
	tenantID := uuid.New()

	token, exp, err := svc.Issue(tenantID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	got, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, tenantID, got)
}

func TestJWTService_ParseRejects(t *testing.T) {
	svc := NewJWTService("test-secret", "docsphere", time.Hour)
	tenantID := uuid.New()

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Issuer:    "docsphere",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", sign(&Claims{TenantID: tenantID.String(), RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte("other"))},
		{"wrong issuer", sign(&Claims{TenantID: tenantID.String(), RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "someone-else", ExpiresAt: valid.ExpiresAt,
		}}, jwt.SigningMethodHS256, []byte("test-secret"))},
		{"expired", sign(&Claims{TenantID: tenantID.String(), RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "docsphere", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}, jwt.SigningMethodHS256, []byte("test-secret"))},
		{"hs512", sign(&Claims{TenantID: tenantID.String(), RegisteredClaims: valid}, jwt.SigningMethodHS512, []byte("test-secret"))},
		{"bad tenant id", sign(&Claims{TenantID: "tenant-1", RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte("test-secret"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Parse(tt.token)
			assert.Error(t, err)
		})
	}

	t.Run("missing tenant", func(t *testing.T) {
		_, err := svc.Parse(sign(&Claims{RegisteredClaims: valid}, jwt.SigningMethodHS256, []byte("test-secret")))
		assert.True(t, errors.Is(err, ErrMissingTenant))
	})
}
