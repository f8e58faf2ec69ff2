package domain

import (
	"time"

	"github.com/google/uuid"
)

const EmailKindVerification = "verification"

// EmailJob is the message placed on the email queue.
type EmailJob struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	ToEmail   string    `json:"to_email"`
	ToName    string    `json:"to_name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewVerificationEmailJob(email, name string) EmailJob {
	return EmailJob{
		ID:        uuid.NewString(),
		Kind:      EmailKindVerification,
		ToEmail:   email,
		ToName:    name,
		CreatedAt: time.Now().UTC(),
	}
}
