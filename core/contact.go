package core

import "time"

// ContactPayload is a contact-form submission before validation.
// Name, Email, Message and ServiceType are required; the rest is optional.
type ContactPayload struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,max=254"`
	Company     string `json:"company" validate:"max=200"`
	Phone       string `json:"phone" validate:"max=40"`
	Subject     string `json:"subject" validate:"max=200"`
	Message     string `json:"message" validate:"required,max=5000"`
	ServiceType string `json:"service_type" validate:"required,max=100"`
}

// EmailMessage is the rendered outbound message handed to the mail transport.
type EmailMessage struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
	Headers map[string]string
}

// SendReceipt is returned to the caller after a successful dispatch.
type SendReceipt struct {
	MessageID    string              // transport-assigned message identifier
	Recipient    string              // resolved recipient address
	DispatchedAt time.Time           // when the transport accepted the message
	SecurityInfo SecurityCheckResult // outcome of the content scan
}
