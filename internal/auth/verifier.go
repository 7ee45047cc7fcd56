package auth

import (
	"crypto/rsa"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedCredential - заголовка нет или он не в формате "Bearer <token>"
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrInvalidCredential - подпись, алгоритм или сроки токена не прошли проверку
	ErrInvalidCredential = errors.New("invalid credential")
)

const bearerPrefix = "bearer "

// сертификат провайдера идентификации, которым подписаны все токены
//
//go:embed certs/auth0.pem
var defaultCertificate []byte

// Verifier проверяет RS256 токены одним фиксированным публичным ключом.
// Кэша и списка отзыва нет: каждый вызов проверяет токен заново.
type Verifier struct {
	key    *rsa.PublicKey
	parser *jwt.Parser
}

// NewVerifier принимает PEM с сертификатом или публичным ключом
func NewVerifier(certPEM []byte) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(certPEM)
	if err != nil {
		return nil, fmt.Errorf("разбор сертификата: %w", err)
	}

	return &Verifier{
		key:    key,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()})),
	}, nil
}

// NewDefaultVerifier использует сертификат, вшитый в бинарник
func NewDefaultVerifier() (*Verifier, error) {
	return NewVerifier(defaultCertificate)
}

// NewVerifierFromFile читает PEM из файла; пустой путь означает вшитый сертификат
func NewVerifierFromFile(path string) (*Verifier, error) {
	if path == "" {
		return NewDefaultVerifier()
	}

	certPEM, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение сертификата %s: %w", path, err)
	}
	return NewVerifier(certPEM)
}

// Verify возвращает sub проверенного токена
func (v *Verifier) Verify(authHeader string) (string, error) {
	raw, err := extractToken(authHeader)
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{}
	_, err = v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: в токене нет sub", ErrInvalidCredential)
	}

	return claims.Subject, nil
}

func extractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", fmt.Errorf("%w: нет заголовка авторизации", ErrMalformedCredential)
	}

	if len(authHeader) < len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", fmt.Errorf("%w: неверный заголовок авторизации", ErrMalformedCredential)
	}

	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if token == "" {
		return "", fmt.Errorf("%w: пустой токен", ErrMalformedCredential)
	}
	return token, nil
}
