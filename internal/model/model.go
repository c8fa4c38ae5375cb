package model

import "time"

const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// CandidateStatuses is the hiring pipeline in order. New registrations start
// at DefaultCandidateStatus.
var CandidateStatuses = []string{
	"Registered",
	"Assessment Cleared",
	"Interview Round 1",
	"Interview Round 2",
	"HR Round",
	"Selected",
	"Rejected",
}

const DefaultCandidateStatus = "Registered"

func IsValidCandidateStatus(status string) bool {
	for _, s := range CandidateStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Registration struct {
	ID              int64      `db:"id" json:"id"`
	FullName        string     `db:"full_name" json:"full_name"`
	Email           string     `db:"email" json:"email"`
	Phone           string     `db:"phone" json:"phone"`
	OrderID         string     `db:"order_id" json:"order_id"`
	PaymentStatus   string     `db:"payment_status" json:"payment_status"`
	TransactionID   *string    `db:"transaction_id" json:"transaction_id,omitempty"`
	PaymentDate     *time.Time `db:"payment_date" json:"payment_date,omitempty"`
	CandidateStatus string     `db:"candidate_status" json:"candidate_status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

type ContactMessage struct {
	ID        int64     `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
