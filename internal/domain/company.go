package domain

import "time"

type Company struct {
	CompanyID    string    `json:"id" dynamodbav:"company_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	Phone        *string   `json:"phone,omitempty" dynamodbav:"phone"`
	Website      string    `json:"website,omitempty" dynamodbav:"website"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Verified     bool      `json:"verified" dynamodbav:"verified"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// CreateCompanyRequest is the pending-registration payload for a company,
// held verbatim until OTP confirmation or expiry.
type CreateCompanyRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Phone    *string `json:"phone"`
	Website  string  `json:"website" validate:"omitempty,url"`
}
