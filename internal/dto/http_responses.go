package dto

import (
	"encoding/json"
	"strings"

	"github.com/wb-go/wbf/ginext"

	"genesis/internal/model"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	RegistrationNotFound    = "REGISTRATION_NOT_FOUND"
	RegistrationAlreadyPaid = "REGISTRATION_ALREADY_PAID"
	SignatureInvalid        = "SIGNATURE_INVALID"
	Unauthorized            = "UNAUTHORIZED"
	TooManyRequests         = "TOO_MANY_REQUESTS"
)

type CreateOrderRequest struct {
	Name  string `json:"name" validate:"required,min=3,max=255"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,inphone"`
}

type CreateOrderResponse struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type VerifyPaymentResponse struct {
	Success bool `json:"success"`
}

// WebhookEvent mirrors the gateway's payment notification payload. Only the
// fields the reconciliation needs are decoded.
type WebhookEvent struct {
	Data struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			PaymentStatus string         `json:"payment_status"`
			PaymentID     StringOrNumber `json:"cf_payment_id"`
		} `json:"payment"`
	} `json:"data"`
}

func (e *WebhookEvent) Unmarshal(raw []byte) error {
	return json.Unmarshal(raw, e)
}

// StringOrNumber accepts a JSON string or number; gateways have shipped the
// payment id as both over time.
type StringOrNumber string

func (s *StringOrNumber) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = StringOrNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = StringOrNumber(num.String())
	return nil
}

type ContactRequest struct {
	FirstName string `json:"firstName" validate:"required,max=255"`
	LastName  string `json:"lastName" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email"`
	Message   string `json:"message" validate:"required,max=5000"`
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type UpdateCandidateStatusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type SendAssessmentRequest struct {
	AssessmentLink string `json:"assessment_link"`
}

type SendAssessmentResponse struct {
	Success bool `json:"success"`
	Queued  int  `json:"queued"`
	Total   int  `json:"total"`
}

type ParticipantsResponse struct {
	Participants []model.Registration `json:"participants"`
	Total        int                  `json:"total"`
	Page         int                  `json:"page"`
	Limit        int                  `json:"limit"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error: &Error{
			Code: ServiceUnavailable,
			Desc: InternalError,
		},
	})
}

func UnauthorizedError(c *ginext.Context, desc string) {
	c.JSON(401, Response{
		Status: "error",
		Error: &Error{
			Code: Unauthorized,
			Desc: desc,
		},
	})
}

func TooManyRequestsError(c *ginext.Context) {
	c.JSON(429, Response{
		Status: "error",
		Error: &Error{
			Code: TooManyRequests,
			Desc: "Too many requests. Please wait a moment.",
		},
	})
}

func RegistrationNotFoundError(c *ginext.Context) {
	BadResponseError(c, RegistrationNotFound, "Registration not found")
}

func RegistrationAlreadyPaidError(c *ginext.Context) {
	c.JSON(409, Response{
		Status: "error",
		Error: &Error{
			Code: RegistrationAlreadyPaid,
			Desc: "This email is already registered and paid",
		},
	})
}

func SignatureInvalidError(c *ginext.Context, status int) {
	c.JSON(status, Response{
		Status: "error",
		Error: &Error{
			Code: SignatureInvalid,
			Desc: "Invalid signature",
		},
	})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
