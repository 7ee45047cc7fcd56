package auth_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"todoTracker/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(authHeader string) (string, error) {
	args := m.Called(authHeader)
	return args.String(0), args.Error(1)
}

var _ auth.TokenVerifier = (*MockVerifier)(nil)

// TestGate_Authorize тестирует превращение результата проверки в решение
func TestGate_Authorize(t *testing.T) {
	tests := []struct {
		name              string
		verifyErr         error
		expectedAllow     bool
		expectedPrincipal string
		expectedEffect    auth.Effect
	}{
		{
			name:              "allow - verified token",
			expectedAllow:     true,
			expectedPrincipal: "auth0|123",
			expectedEffect:    auth.EffectAllow,
		},
		{
			name:              "deny - malformed credential",
			verifyErr:         fmt.Errorf("%w: нет заголовка", auth.ErrMalformedCredential),
			expectedPrincipal: "user",
			expectedEffect:    auth.EffectDeny,
		},
		{
			name:              "deny - invalid credential",
			verifyErr:         fmt.Errorf("%w: token is expired", auth.ErrInvalidCredential),
			expectedPrincipal: "user",
			expectedEffect:    auth.EffectDeny,
		},
		{
			name:              "deny - unexpected error",
			verifyErr:         errors.New("boom"),
			expectedPrincipal: "user",
			expectedEffect:    auth.EffectDeny,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockVerifier)
			sub := ""
			if tt.verifyErr == nil {
				sub = "auth0|123"
			}
			verifier.On("Verify", "Bearer token").Return(sub, tt.verifyErr)

			decision := auth.NewGate(verifier).Authorize("Bearer token")

			assert.Equal(t, tt.expectedAllow, decision.Allow)
			assert.Equal(t, tt.expectedPrincipal, decision.PrincipalID)
			require.Len(t, decision.Policy.Statement, 1)
			assert.Equal(t, tt.expectedEffect, decision.Policy.Statement[0].Effect)
			assert.Equal(t, "*", decision.Policy.Statement[0].Resource)
			assert.Equal(t, "execute-api:Invoke", decision.Policy.Statement[0].Action)

			verifier.AssertExpectations(t)
		})
	}
}

func TestGate_Authorize_RealVerifier(t *testing.T) {
	key, certPEM := newKeyPair(t)
	verifier, err := auth.NewVerifier(certPEM)
	require.NoError(t, err)
	gate := auth.NewGate(verifier)

	allowed := gate.Authorize("Bearer " + signToken(t, key, validClaims("auth0|42")))
	assert.True(t, allowed.Allow)
	assert.Equal(t, "auth0|42", allowed.PrincipalID)

	denied := gate.Authorize("Token abc")
	assert.False(t, denied.Allow)
	assert.Equal(t, "user", denied.PrincipalID)
}

func TestDecision_JSON(t *testing.T) {
	key, certPEM := newKeyPair(t)
	verifier, err := auth.NewVerifier(certPEM)
	require.NoError(t, err)

	decision := auth.NewGate(verifier).Authorize("Bearer " + signToken(t, key, validClaims("auth0|42")))

	raw, err := json.Marshal(decision)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"principalId": "auth0|42",
		"policyDocument": {
			"Version": "2012-10-17",
			"Statement": [{"Action": "execute-api:Invoke", "Effect": "Allow", "Resource": "*"}]
		}
	}`, string(raw))
}
