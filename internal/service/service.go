package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"genesis/internal/dto"
	"genesis/internal/gateway"
	"genesis/internal/mailer"
	"genesis/internal/mailqueue"
	"genesis/internal/model"
	"genesis/internal/repo"
	"genesis/pkg/validator"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

type Service interface {
	CreateOrder(ctx *ginext.Context)
	VerifyPayment(ctx *ginext.Context)
	PaymentWebhook(ctx *ginext.Context)
	SubmitContact(ctx *ginext.Context)
	AdminLogin(ctx *ginext.Context)
	ListParticipants(ctx *ginext.Context)
	UpdateCandidateStatus(ctx *ginext.Context)
	SendAssessment(ctx *ginext.Context)
}

// OrderCreator is the slice of the gateway client the service needs.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error)
}

// MailEnqueuer hands finished email jobs to the dispatch queue.
type MailEnqueuer interface {
	Enqueue(job mailqueue.Job)
}

type Config struct {
	CallbackSecret string
	WebhookSecret  string
	AdminPassword  string
	AdminToken     string
	OrderAmount    int
}

type service struct {
	repo repo.Repository
	log  *zerolog.Logger
	gw   OrderCreator
	mail MailEnqueuer
	cfg  Config
}

func NewService(repo repo.Repository, log *zerolog.Logger, gw OrderCreator, mail MailEnqueuer, cfg Config) Service {
	return &service{
		repo: repo,
		log:  log,
		gw:   gw,
		mail: mail,
		cfg:  cfg,
	}
}

// CreateOrder validates the registrant, opens a gateway order for the fixed
// fee and upserts the registration to pending under the fresh order id. An
// email that already paid is rejected before touching the gateway.
func (s *service) CreateOrder(ctx *ginext.Context) {
	var req dto.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	req.Name = sanitizeInput(req.Name)
	req.Email = sanitizeInput(req.Email)
	req.Phone = sanitizeInput(req.Phone)

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	existing, err := s.repo.GetRegistrationByEmail(ctx.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, repo.ErrRegistrationNotFound) {
		s.log.Error().Err(err).Msg("failed to check existing registration")
		dto.InternalServerError(ctx)
		return
	}
	if existing != nil && existing.PaymentStatus == model.PaymentSuccess {
		dto.RegistrationAlreadyPaidError(ctx)
		return
	}

	orderID := gateway.NewOrderID()
	order, err := s.gw.CreateOrder(ctx.Request.Context(), gateway.OrderRequest{
		OrderID:       orderID,
		Amount:        s.cfg.OrderAmount,
		CustomerName:  req.Name,
		CustomerEmail: req.Email,
		CustomerPhone: req.Phone,
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_id", orderID).Msg("failed to create gateway order")
		dto.InternalServerError(ctx)
		return
	}

	id, err := s.repo.UpsertPendingRegistration(ctx.Request.Context(), &model.Registration{
		FullName: req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		OrderID:  orderID,
	})
	if err != nil {
		s.log.Error().Err(err).Str("order_id", orderID).Msg("failed to upsert registration")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("registration_id", id).
		Str("order_id", orderID).
		Msg("registration order created")

	dto.SuccessResponse(ctx, dto.CreateOrderResponse{
		OrderID:          order.OrderID,
		PaymentSessionID: order.PaymentSessionID,
	})
}

// VerifyPayment handles the client-side callback after the hosted checkout.
// Signature first, then the idempotent success transition shared with the
// webhook path.
func (s *service) VerifyPayment(ctx *ginext.Context) {
	var req dto.VerifyPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid payment data")
		return
	}

	if !gateway.VerifyCallbackSignature(req.OrderID, req.PaymentID, req.Signature, s.cfg.CallbackSecret) {
		s.log.Warn().
			Str("order_id", req.OrderID).
			Msg("invalid payment callback signature")
		dto.SignatureInvalidError(ctx, 400)
		return
	}

	reg, err := s.repo.GetRegistrationByOrderID(ctx.Request.Context(), req.OrderID)
	if err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.RegistrationNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Str("order_id", req.OrderID).Msg("failed to look up registration")
		dto.InternalServerError(ctx)
		return
	}

	if err := s.markSuccess(ctx.Request.Context(), reg, req.OrderID, req.PaymentID); err != nil {
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.VerifyPaymentResponse{Success: true})
}

// PaymentWebhook handles the gateway's asynchronous server-to-server
// notification. The gateway gets a 200 acknowledgment for every processed
// event, including ones for orders this service no longer knows.
func (s *service) PaymentWebhook(ctx *ginext.Context) {
	rawBody, err := ctx.GetRawData()
	if err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Cannot read request body")
		return
	}

	signature := ctx.GetHeader("x-webhook-signature")
	timestamp := ctx.GetHeader("x-webhook-timestamp")
	if !gateway.VerifyWebhookSignature(rawBody, timestamp, signature, s.cfg.WebhookSecret) {
		s.log.Warn().Msg("invalid webhook signature")
		dto.SignatureInvalidError(ctx, 401)
		return
	}

	var event dto.WebhookEvent
	if err := event.Unmarshal(rawBody); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid webhook payload")
		return
	}

	orderID := event.Data.Order.OrderID
	if orderID == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Missing order ID")
		return
	}

	switch event.Data.Payment.PaymentStatus {
	case "SUCCESS":
		reg, err := s.repo.GetRegistrationByOrderID(ctx.Request.Context(), orderID)
		if err != nil {
			if errors.Is(err, repo.ErrRegistrationNotFound) {
				s.log.Warn().Str("order_id", orderID).Msg("webhook for unknown order")
				dto.SuccessResponse(ctx, nil)
				return
			}
			s.log.Error().Err(err).Str("order_id", orderID).Msg("failed to look up registration")
			dto.InternalServerError(ctx)
			return
		}
		if err := s.markSuccess(ctx.Request.Context(), reg, orderID, string(event.Data.Payment.PaymentID)); err != nil {
			dto.InternalServerError(ctx)
			return
		}
	case "FAILED", "USER_DROPPED":
		if err := s.markFailed(ctx.Request.Context(), orderID); err != nil {
			dto.InternalServerError(ctx)
			return
		}
	default:
		s.log.Info().
			Str("order_id", orderID).
			Str("payment_status", event.Data.Payment.PaymentStatus).
			Msg("webhook event ignored")
	}

	dto.SuccessResponse(ctx, nil)
}

// markSuccess is the idempotent transition both verification paths share.
// The repository applies the status flip conditionally, so only the call
// that actually performed the transition queues the confirmation email;
// a repeat delivery is a silent no-op.
func (s *service) markSuccess(ctx context.Context, reg *model.Registration, orderID, transactionID string) error {
	marked, err := s.repo.MarkPaymentSuccess(ctx, orderID, transactionID)
	if err != nil {
		s.log.Error().Err(err).Str("order_id", orderID).Msg("failed to mark payment success")
		return err
	}
	if !marked {
		s.log.Info().Str("order_id", orderID).Msg("payment already marked success, skipping")
		return nil
	}

	s.mail.Enqueue(mailer.ConfirmationJob(reg.FullName, reg.Email, s.cfg.OrderAmount))

	s.log.Info().
		Str("order_id", orderID).
		Str("email", reg.Email).
		Msg("payment marked success")
	return nil
}

func (s *service) markFailed(ctx context.Context, orderID string) error {
	if err := s.repo.MarkPaymentFailed(ctx, orderID); err != nil {
		s.log.Error().Err(err).Str("order_id", orderID).Msg("failed to mark payment failed")
		return err
	}

	s.log.Info().Str("order_id", orderID).Msg("payment marked failed")

	reg, err := s.repo.GetRegistrationByOrderID(ctx, orderID)
	if err == nil {
		s.mail.Enqueue(mailer.FailureJob(reg.FullName, reg.Email))
	}
	return nil
}

func (s *service) SubmitContact(ctx *ginext.Context) {
	var req dto.ContactRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	req.FirstName = sanitizeInput(req.FirstName)
	req.LastName = sanitizeInput(req.LastName)
	req.Email = sanitizeInput(req.Email)
	req.Message = sanitizeInput(req.Message)

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	id, err := s.repo.CreateContactMessage(ctx.Request.Context(), &model.ContactMessage{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Message:   req.Message,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to save contact message")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Int64("contact_id", id).Msg("contact message saved")
	dto.SuccessResponse(ctx, gin.H{"success": true})
}

func (s *service) AdminLogin(ctx *ginext.Context) {
	var req dto.AdminLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}

	if s.cfg.AdminPassword == "" ||
		subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.AdminPassword)) != 1 {
		s.log.Warn().Str("ip", ctx.ClientIP()).Msg("admin login rejected")
		dto.UnauthorizedError(ctx, "Invalid password")
		return
	}

	dto.SuccessResponse(ctx, dto.AdminLoginResponse{
		Success: true,
		Token:   s.cfg.AdminToken,
	})
}

func (s *service) ListParticipants(ctx *ginext.Context) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := repo.ListFilter{
		CandidateStatus: ctx.Query("status"),
		Search:          sanitizeInput(ctx.Query("search")),
		Page:            page,
		Limit:           limit,
	}

	regs, total, err := s.repo.ListRegistrations(ctx.Request.Context(), filter)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.ParticipantsResponse{
		Participants: regs,
		Total:        total,
		Page:         page,
		Limit:        limit,
	})
}

func (s *service) UpdateCandidateStatus(ctx *ginext.Context) {
	var req dto.UpdateCandidateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if req.ID <= 0 {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Missing id or status")
		return
	}
	if !model.IsValidCandidateStatus(req.Status) {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid status value")
		return
	}

	if err := s.repo.UpdateCandidateStatus(ctx.Request.Context(), req.ID, req.Status); err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.RegistrationNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Int64("registration_id", req.ID).Msg("failed to update candidate status")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Int64("registration_id", req.ID).
		Str("candidate_status", req.Status).
		Msg("candidate status updated")

	dto.SuccessResponse(ctx, gin.H{"success": true})
}

// SendAssessment queues the assessment email for every paid registration
// still at the Registered stage. The body is optional; it may carry the
// assessment link.
func (s *service) SendAssessment(ctx *ginext.Context) {
	var req dto.SendAssessmentRequest
	_ = ctx.ShouldBindJSON(&req) // empty body is fine

	recipients, err := s.repo.ListAssessmentRecipients(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to select assessment recipients")
		dto.InternalServerError(ctx)
		return
	}

	queued := 0
	for _, reg := range recipients {
		s.mail.Enqueue(mailer.AssessmentJob(reg.Email, req.AssessmentLink))
		queued++
	}

	s.log.Info().Int("queued", queued).Msg("assessment emails queued")

	dto.SuccessResponse(ctx, dto.SendAssessmentResponse{
		Success: true,
		Queued:  queued,
		Total:   len(recipients),
	})
}
