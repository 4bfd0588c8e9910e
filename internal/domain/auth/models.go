package auth

import "time"

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	PhoneCountryCode string    `json:"phoneCountryCode,omitempty"`
	FullName         string    `json:"fullName"`
	Role             string    `json:"role"`
	IsVerified       bool      `json:"isVerified"`
	CreatedAt        time.Time `json:"createdAt"`
}

type Registration struct {
	Email            string
	Phone            string
	PhoneCountryCode string
	FullName         string
	Role             string
	Password         string
}
