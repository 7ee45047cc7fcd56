package auth

import (
	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// идентификатор-заглушка для отказа
const anonymousPrincipal = "user"

const (
	policyVersion = "2012-10-17"
	invokeAction  = "execute-api:Invoke"
	allResources  = "*"
)

type Statement struct {
	Action   string `json:"Action"`
	Effect   Effect `json:"Effect"`
	Resource string `json:"Resource"`
}

type Policy struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Decision - итог авторизации. Allow=false означает безусловный отказ,
// по какой бы причине проверка ни провалилась.
type Decision struct {
	PrincipalID string `json:"principalId"`
	Allow       bool   `json:"-"`
	Policy      Policy `json:"policyDocument"`
}

type TokenVerifier interface {
	Verify(authHeader string) (string, error)
}

type Gate struct {
	verifier TokenVerifier
	log      *zap.Logger
}

func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{
		verifier: verifier,
		log:      logger.Named("auth"),
	}
}

// Authorize никогда не возвращает ошибку: любая неудача проверки
// превращается в запрещающее решение и только логируется
func (g *Gate) Authorize(authHeader string) Decision {
	userID, err := g.verifier.Verify(authHeader)
	if err != nil {
		g.log.Warn("Auth: Пользователь не авторизован", zap.Error(err))
		return deny()
	}

	g.log.Info("Auth: Пользователь авторизован", zap.String("user_id", userID))
	return allow(userID)
}

func allow(principalID string) Decision {
	return Decision{
		PrincipalID: principalID,
		Allow:       true,
		Policy:      policyFor(EffectAllow),
	}
}

func deny() Decision {
	return Decision{
		PrincipalID: anonymousPrincipal,
		Allow:       false,
		Policy:      policyFor(EffectDeny),
	}
}

func policyFor(effect Effect) Policy {
	return Policy{
		Version: policyVersion,
		Statement: []Statement{
			{
				Action:   invokeAction,
				Effect:   effect,
				Resource: allResources,
			},
		},
	}
}
