package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/registry"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Exactly one of the
// entity pointers is set, matching SubjectType.
type Principal struct {
	SubjectType domain.SubjectType
	Admin       *domain.Admin
	Agent       *domain.Agent
	Customer    *domain.Customer
}

// ID returns the identifier of whichever entity is set.
func (p *Principal) ID() string {
	switch p.SubjectType {
	case domain.SubjectTypeAdmin:
		return p.Admin.ID
	case domain.SubjectTypeAgent:
		return p.Agent.ID
	case domain.SubjectTypeCustomer:
		return p.Customer.ID
	}
	return ""
}

// AuthMiddleware validates bearer tokens and loads principals from
// the registry.
type AuthMiddleware struct {
	tokens *TokenManager
	reg    *registry.Registry
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, reg *registry.Registry) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, reg: reg}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeAdmin:
		admin, ok := m.reg.Admin(claims.SubjectID)
		if !ok {
			return apperrors.NewUnauthorized("admin not found")
		}
		principal.Admin = &admin
	case domain.SubjectTypeAgent:
		agent, ok := m.reg.Agent(claims.SubjectID)
		if !ok {
			return apperrors.NewUnauthorized("agent not found")
		}
		principal.Agent = &agent
	case domain.SubjectTypeCustomer:
		customer, ok := m.reg.Customer(claims.SubjectID)
		if !ok {
			return apperrors.NewUnauthorized("customer not found")
		}
		principal.Customer = &customer
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
