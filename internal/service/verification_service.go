package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/mail"
	"github.com/spec-kit/helpdesk-service/internal/registry"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

// VerificationService issues and checks time-limited one-time codes
// gating login completion and sensitive-field changes. Codes are
// consumed on first successful verification.
type VerificationService struct {
	codes      repository.VerificationRepository
	admins     repository.AdminRepository
	agents     repository.AgentRepository
	customers  repository.CustomerRepository
	reg        *registry.Registry
	mailer     mail.Dispatcher
	dispatcher events.Dispatcher
	now        func() time.Time
}

// VerificationDependencies bundles collaborators.
type VerificationDependencies struct {
	CodeRepo     repository.VerificationRepository
	AdminRepo    repository.AdminRepository
	AgentRepo    repository.AgentRepository
	CustomerRepo repository.CustomerRepository
	Registry     *registry.Registry
	Mailer       mail.Dispatcher
	Dispatcher   events.Dispatcher
}

// NewVerificationService constructs the service.
func NewVerificationService(deps VerificationDependencies) *VerificationService {
	return &VerificationService{
		codes:      deps.CodeRepo,
		admins:     deps.AdminRepo,
		agents:     deps.AgentRepo,
		customers:  deps.CustomerRepo,
		reg:        deps.Registry,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// IssueCode generates a fresh code for the email, superseding any prior
// one, and dispatches it by mail. Persistence failure is fatal;
// dispatch failure is reported through the dispatched return while the
// stored code stays valid.
func (s *VerificationService) IssueCode(ctx context.Context, email string, purpose domain.VerificationPurpose) (dispatched bool, err error) {
	if _, found := s.lookupSubject(email); !found {
		return false, apperrors.NewNotFound("account", map[string]any{"email": email})
	}

	codeStr, err := generateCode()
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	now := s.now()
	code := &domain.VerificationCode{
		Email:     email,
		Code:      codeStr,
		Purpose:   purpose,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.VerificationCodeTTL),
	}
	if err := s.codes.Replace(ctx, code); err != nil {
		return false, apperrors.NewStorageError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventCodeIssued,
		Payload: events.CodeIssuedPayload{Email: email, Purpose: purpose},
	})

	subject := "Your verification code"
	body := fmt.Sprintf("Your code is %s. It expires in %d minutes.",
		codeStr, int(domain.VerificationCodeTTL.Minutes()))
	if err := s.mailer.Send(email, subject, body); err != nil {
		return false, nil
	}
	return true, nil
}

// VerifyCode succeeds iff a non-expired row matches email and code
// exactly. On success the matching account is marked verified in store
// then registry, and the code is deleted.
func (s *VerificationService) VerifyCode(ctx context.Context, email, codeStr string, purpose domain.VerificationPurpose) error {
	code, err := s.codes.GetByEmailAndCode(ctx, email, codeStr, purpose)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("invalid code", nil)
		}
		return apperrors.NewStorageError(err)
	}
	if code.Expired(s.now()) {
		_ = s.codes.Delete(ctx, code.ID)
		return apperrors.NewValidationError("code expired", nil)
	}

	subject, found := s.lookupSubject(email)
	if !found {
		return apperrors.NewNotFound("account", map[string]any{"email": email})
	}
	if err := s.markVerified(ctx, subject, email); err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, code.ID); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewStorageError(err)
	}
	return nil
}

// lookupSubject scans the registry for an account with the email.
func (s *VerificationService) lookupSubject(email string) (domain.SubjectType, bool) {
	for _, admin := range s.reg.Admins() {
		if admin.Email == email {
			return domain.SubjectTypeAdmin, true
		}
	}
	for _, agent := range s.reg.Agents() {
		if agent.Email == email {
			return domain.SubjectTypeAgent, true
		}
	}
	for _, customer := range s.reg.Customers() {
		if customer.Email == email {
			return domain.SubjectTypeCustomer, true
		}
	}
	return "", false
}

func (s *VerificationService) markVerified(ctx context.Context, subject domain.SubjectType, email string) error {
	switch subject {
	case domain.SubjectTypeAdmin:
		if err := s.admins.SetVerifiedByEmail(ctx, email); err != nil {
			return apperrors.NewStorageError(err)
		}
	case domain.SubjectTypeAgent:
		if err := s.agents.SetVerifiedByEmail(ctx, email); err != nil {
			return apperrors.NewStorageError(err)
		}
	case domain.SubjectTypeCustomer:
		if err := s.customers.SetVerifiedByEmail(ctx, email); err != nil {
			return apperrors.NewStorageError(err)
		}
	}
	s.reg.SetVerifiedByEmail(subject, email)
	return nil
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeCharset[int(buf[i])%len(codeCharset)]
	}
	return string(buf), nil
}

func (s *VerificationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
