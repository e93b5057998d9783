package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/registry"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// LoginOutcome distinguishes a completed login from a verification gate.
type LoginOutcome string

const (
	// LoginOK means credentials matched and the account is verified.
	LoginOK LoginOutcome = "OK"
	// LoginUnverified means credentials matched but the account still
	// needs code verification. Not an auth failure: the client surfaces
	// a code-entry flow.
	LoginUnverified LoginOutcome = "UNVERIFIED"
)

// LoginResult carries the outcome and, when OK, a signed token.
type LoginResult struct {
	Outcome     LoginOutcome
	SubjectType domain.SubjectType
	SubjectID   string
	Token       string
	ExpiresAt   time.Time
}

// AuthService coordinates registration and login for all three
// principal kinds.
type AuthService struct {
	admins     repository.AdminRepository
	agents     repository.AgentRepository
	customers  repository.CustomerRepository
	reg        *registry.Registry
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies bundles repositories for auth service.
type AuthDependencies struct {
	AdminRepo    repository.AdminRepository
	AgentRepo    repository.AgentRepository
	CustomerRepo repository.CustomerRepository
	Registry     *registry.Registry
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		admins:     deps.AdminRepo,
		agents:     deps.AgentRepo,
		customers:  deps.CustomerRepo,
		reg:        deps.Registry,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterCustomer creates a customer account. The account stays
// unverified until a code round-trip completes.
func (s *AuthService) RegisterCustomer(ctx context.Context, username, email, password string) (*domain.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || len(password) < 8 {
		return nil, apperrors.NewValidationError("username, email and a password of at least 8 characters required", nil)
	}
	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewStorageError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	customer := &domain.Customer{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Tickets:      map[string]domain.CustomerTicketState{},
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.PutCustomer(*customer)
	return customer, nil
}

// RegisterAgent creates an agent account. Administrative operation.
func (s *AuthService) RegisterAgent(ctx context.Context, username, email, password string, accessLevel int, hours map[time.Weekday]domain.Shift, specialties []string) (*domain.Agent, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || len(password) < 8 {
		return nil, apperrors.NewValidationError("username, email and a password of at least 8 characters required", nil)
	}
	if accessLevel < 1 || accessLevel > 3 {
		return nil, apperrors.NewValidationError("access level must be 1-3", nil)
	}
	if _, err := s.agents.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewStorageError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	agent := &domain.Agent{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		AccessLevel:  accessLevel,
		WorkingHours: hours,
		Specialties:  specialties,
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	s.reg.PutAgent(*agent)
	return agent, nil
}

// Login authenticates any principal kind. An unverified credential
// match returns the UNVERIFIED outcome without a token.
func (s *AuthService) Login(ctx context.Context, subjectType domain.SubjectType, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		id       string
		hash     string
		verified bool
	)
	switch subjectType {
	case domain.SubjectTypeAdmin:
		admin, err := s.admins.GetByEmail(ctx, email)
		if err != nil {
			return nil, loginLookupError(err)
		}
		id, hash, verified = admin.ID, admin.PasswordHash, admin.Verified
	case domain.SubjectTypeAgent:
		agent, err := s.agents.GetByEmail(ctx, email)
		if err != nil {
			return nil, loginLookupError(err)
		}
		id, hash, verified = agent.ID, agent.PasswordHash, agent.Verified
	case domain.SubjectTypeCustomer:
		customer, err := s.customers.GetByEmail(ctx, email)
		if err != nil {
			return nil, loginLookupError(err)
		}
		id, hash, verified = customer.ID, customer.PasswordHash, customer.Verified
	default:
		return nil, apperrors.NewValidationError("unknown subject type", nil)
	}

	if err := auth.ComparePassword(hash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !verified {
		return &LoginResult{
			Outcome:     LoginUnverified,
			SubjectType: subjectType,
			SubjectID:   id,
		}, nil
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(id, subjectType)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{
		Outcome:     LoginOK,
		SubjectType: subjectType,
		SubjectID:   id,
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

func loginLookupError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return apperrors.NewStorageError(err)
}
