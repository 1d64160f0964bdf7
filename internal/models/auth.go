package models

import "github.com/golang-jwt/jwt/v5"

// UserRole scopes what an authenticated caller may do with a student record.
type UserRole string

const (
	// RoleStudent owns the record and may mutate it.
	RoleStudent UserRole = "student"
	// RoleAdvisor is the advisory chat collaborator; read-only.
	RoleAdvisor UserRole = "advisor"
)

// JWTClaims represents the access token payload issued by the authentication collaborator.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// StudentID returns the student the token acts for, preferring user_id over sub.
func (c *JWTClaims) StudentID() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
