// Package usecase implements the enrollment business logic: admission into
// capacity-bounded sessions, payment confirmation, and cancellation.
package usecase

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogDomain "github.com/allisson/playbook/internal/catalog/domain"
	"github.com/allisson/playbook/internal/database"
	"github.com/allisson/playbook/internal/metrics"
	"github.com/allisson/playbook/internal/registration/domain"
	"github.com/allisson/playbook/internal/registration/service"

	apperrors "github.com/allisson/playbook/internal/errors"
	appValidation "github.com/allisson/playbook/internal/validation"
)

// Event types published by the enrollment flows.
const (
	EventRegistrationCreated   = "registration.created"
	EventRegistrationCancelled = "registration.cancelled"
	EventPaymentPaid           = "payment.paid"
)

const paymentProviderMock = "mock"

// AdmitInput contains the input data for an admission request
type AdmitInput struct {
	SessionID uuid.UUID `json:"session_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
}

// PayInput contains the input data for a payment request
type PayInput struct {
	Amount decimal.Decimal `json:"amount"`
}

// RegistrationDetail bundles a registration with its payment history.
type RegistrationDetail struct {
	Registration *domain.Registration
	Payments     []*domain.Payment
}

// UseCase defines the interface for enrollment business logic operations
type UseCase interface {
	Admit(ctx context.Context, input AdmitInput) (*domain.Registration, error)
	GetRegistration(ctx context.Context, id uuid.UUID) (*RegistrationDetail, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	Pay(ctx context.Context, id uuid.UUID, input PayInput) (*domain.Payment, error)
}

// SessionRepository interface defines the catalog operations the enrollment
// flows depend on
type SessionRepository interface {
	GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*catalogDomain.Session, error)
}

// RegistrationRepository interface defines registration repository operations
type RegistrationRepository interface {
	Create(ctx context.Context, registration *domain.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Registration, error)
	ExistsBySessionEmail(ctx context.Context, sessionID uuid.UUID, email string) (bool, error)
	CountActiveBySession(ctx context.Context, sessionID uuid.UUID) (int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.RegistrationStatus) error
}

// PaymentRepository interface defines payment repository operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	Update(ctx context.Context, payment *domain.Payment) error
	GetLatestPaidByRegistration(ctx context.Context, registrationID uuid.UUID) (*domain.Payment, error)
	ListByRegistration(ctx context.Context, registrationID uuid.UUID) ([]*domain.Payment, error)
}

// EventPublisher fans an event out to the subscribed webhook endpoints.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data any) (int, error)
}

// RegistrationUseCase handles enrollment business logic
type RegistrationUseCase struct {
	txManager        database.TxManager
	sessionRepo      SessionRepository
	registrationRepo RegistrationRepository
	paymentRepo      PaymentRepository
	gateway          service.PaymentGateway
	publisher        EventPublisher
	metrics          metrics.BusinessMetrics
	logger           *slog.Logger
	now              func() time.Time
}

// NewRegistrationUseCase creates a new RegistrationUseCase
func NewRegistrationUseCase(
	txManager database.TxManager,
	sessionRepo SessionRepository,
	registrationRepo RegistrationRepository,
	paymentRepo PaymentRepository,
	gateway service.PaymentGateway,
	publisher EventPublisher,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) UseCase {
	return &RegistrationUseCase{
		txManager:        txManager,
		sessionRepo:      sessionRepo,
		registrationRepo: registrationRepo,
		paymentRepo:      paymentRepo,
		gateway:          gateway,
		publisher:        publisher,
		metrics:          businessMetrics,
		logger:           logger,
		now:              time.Now,
	}
}

// validateAdmitInput validates the admission input using jellydator/validation
func (uc *RegistrationUseCase) validateAdmitInput(input AdmitInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.SessionID,
			validation.Required.Error("session_id is required"),
		),
		validation.Field(&input.FullName,
			validation.Required.Error("full_name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("full_name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Admit holds a seat in a session. The whole gate runs inside one transaction
// holding the session row lock, so two requests racing for the last seat
// serialize and exactly one of them wins:
//
//  1. the session must exist and start in the future
//  2. the normalized email must not already be registered for the session,
//     whatever the status of that earlier registration
//  3. the non-cancelled registration count must be below capacity
//
// On success the registration is created as PENDING and a
// registration.created event fans out after commit.
func (uc *RegistrationUseCase) Admit(
	ctx context.Context,
	input AdmitInput,
) (*domain.Registration, error) {
	// Normalize before validating so padded or mixed-case variants of a
	// valid address pass the email rule and land as one canonical form.
	input.FullName = domain.NormalizeFullName(input.FullName)
	input.Email = domain.NormalizeEmail(input.Email)

	if err := uc.validateAdmitInput(input); err != nil {
		return nil, err
	}

	registration := &domain.Registration{
		ID:        uuid.Must(uuid.NewV7()),
		SessionID: input.SessionID,
		FullName:  input.FullName,
		Email:     input.Email,
		Status:    domain.RegistrationStatusPending,
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		session, err := uc.sessionRepo.GetSessionForUpdate(ctx, input.SessionID)
		if err != nil {
			return err
		}

		if !session.IsFuture(uc.now()) {
			return domain.ErrSessionClosed
		}

		exists, err := uc.registrationRepo.ExistsBySessionEmail(ctx, session.ID, registration.Email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateRegistration
		}

		taken, err := uc.registrationRepo.CountActiveBySession(ctx, session.ID)
		if err != nil {
			return err
		}
		if taken >= session.Capacity {
			return domain.ErrSessionFull
		}

		return uc.registrationRepo.Create(ctx, registration)
	})
	if err != nil {
		uc.metrics.RecordOperation(ctx, "registration", "admit", operationStatus(err))
		return nil, err
	}

	uc.metrics.RecordOperation(ctx, "registration", "admit", "success")
	uc.publishEvent(ctx, EventRegistrationCreated, map[string]any{
		"registration_id": registration.ID,
		"session_id":      registration.SessionID,
		"full_name":       registration.FullName,
		"email":           registration.Email,
		"status":          registration.Status,
	})

	return registration, nil
}

// GetRegistration returns a registration and its payment history.
func (uc *RegistrationUseCase) GetRegistration(
	ctx context.Context,
	id uuid.UUID,
) (*RegistrationDetail, error) {
	registration, err := uc.registrationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payments, err := uc.paymentRepo.ListByRegistration(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RegistrationDetail{
		Registration: registration,
		Payments:     payments,
	}, nil
}

// Cancel releases a registration's seat. Cancelling an already cancelled
// registration is a no-op that returns it unchanged. A registration.cancelled
// event fans out after commit, once per actual transition.
func (uc *RegistrationUseCase) Cancel(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Registration, error) {
	var registration *domain.Registration
	var alreadyCancelled bool

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		registration, err = uc.registrationRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if registration.Status == domain.RegistrationStatusCancelled {
			alreadyCancelled = true
			return nil
		}

		if err := uc.registrationRepo.UpdateStatus(ctx, id, domain.RegistrationStatusCancelled); err != nil {
			return err
		}
		registration.Status = domain.RegistrationStatusCancelled
		return nil
	})
	if err != nil {
		uc.metrics.RecordOperation(ctx, "registration", "cancel", operationStatus(err))
		return nil, err
	}

	uc.metrics.RecordOperation(ctx, "registration", "cancel", "success")
	if !alreadyCancelled {
		uc.publishEvent(ctx, EventRegistrationCancelled, map[string]any{
			"registration_id": registration.ID,
			"session_id":      registration.SessionID,
			"status":          registration.Status,
		})
	}

	return registration, nil
}

// validatePayInput validates the payment input using jellydator/validation
func (uc *RegistrationUseCase) validatePayInput(input PayInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Amount,
			validation.By(func(any) error {
				if input.Amount.LessThanOrEqual(decimal.Zero) {
					return validation.NewError("amount_positive", "amount must be greater than zero")
				}
				return nil
			}),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Pay charges the registrant and confirms the seat. The flow is idempotent:
// if a settled payment already exists it is returned as-is, promoting the
// registration to CONFIRMED if an earlier crash left it behind. Otherwise a
// new payment is initiated, charged through the gateway, and on settlement
// the registration is confirmed and a payment.paid event fans out after
// commit.
func (uc *RegistrationUseCase) Pay(
	ctx context.Context,
	id uuid.UUID,
	input PayInput,
) (*domain.Payment, error) {
	if err := uc.validatePayInput(input); err != nil {
		return nil, err
	}

	var (
		payment     *domain.Payment
		alreadyPaid bool
	)

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		registration, err := uc.registrationRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if registration.Status == domain.RegistrationStatusCancelled {
			return domain.ErrRegistrationCancelled
		}

		existing, err := uc.paymentRepo.GetLatestPaidByRegistration(ctx, id)
		if err == nil {
			// Idempotent replay: keep the settled payment, repair the
			// registration status if a crash stopped short of confirming.
			payment = existing
			alreadyPaid = true
			if registration.Status != domain.RegistrationStatusConfirmed {
				return uc.registrationRepo.UpdateStatus(ctx, id, domain.RegistrationStatusConfirmed)
			}
			return nil
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		payment = &domain.Payment{
			ID:             uuid.Must(uuid.NewV7()),
			RegistrationID: id,
			Amount:         input.Amount,
			Status:         domain.PaymentStatusInitiated,
			Provider:       paymentProviderMock,
		}
		if err := uc.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		result, err := uc.gateway.Charge(ctx, payment.ID, payment.Amount)
		if err != nil {
			payment.Status = domain.PaymentStatusFailed
			if updateErr := uc.paymentRepo.Update(ctx, payment); updateErr != nil {
				return updateErr
			}
			return apperrors.Wrap(domain.ErrPaymentFailed, err.Error())
		}

		payment.Status = domain.PaymentStatusPaid
		payment.Reference = result.Reference
		if err := uc.paymentRepo.Update(ctx, payment); err != nil {
			return err
		}

		return uc.registrationRepo.UpdateStatus(ctx, id, domain.RegistrationStatusConfirmed)
	})
	if err != nil {
		uc.metrics.RecordOperation(ctx, "payment", "pay", operationStatus(err))
		return nil, err
	}

	uc.metrics.RecordOperation(ctx, "payment", "pay", "success")
	if !alreadyPaid {
		uc.publishEvent(ctx, EventPaymentPaid, map[string]any{
			"payment_id":      payment.ID,
			"registration_id": payment.RegistrationID,
			"amount":          payment.Amount,
			"reference":       payment.Reference,
			"status":          payment.Status,
		})
	}

	return payment, nil
}

// publishEvent fans an event out after the domain transaction committed.
// Delivery is the outbox's job; failures here are logged, never propagated,
// so a webhook hiccup cannot undo a committed enrollment.
func (uc *RegistrationUseCase) publishEvent(ctx context.Context, eventType string, data any) {
	count, err := uc.publisher.Publish(ctx, eventType, data)
	if err != nil {
		uc.logger.Error("failed to publish event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	uc.logger.Info("event published",
		slog.String("event_type", eventType),
		slog.Int("endpoints", count),
	)
}

// operationStatus buckets an error for metrics: business rejections are
// "rejected", everything else is "error".
func operationStatus(err error) string {
	if apperrors.Is(err, apperrors.ErrRejected) {
		return "rejected"
	}
	return "error"
}
