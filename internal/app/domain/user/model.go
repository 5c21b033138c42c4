// Package user holds the identity domain model shared by the auth session
// and the remote API client.
package user

import "time"

// Role distinguishes the four application profiles.
type Role string

const (
	RoleClient  Role = "client"
	RoleLivreur Role = "livreur"
	RoleStation Role = "station"
	RoleAdmin   Role = "admin"
)

// User is the authenticated identity record served by the backend profile
// endpoint.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Nom          string    `json:"nom"`
	Prenom       string    `json:"prenom"`
	Telephone    string    `json:"telephone"`
	Role         Role      `json:"role"`
	Adresse      string    `json:"adresse,omitempty"`
	IsActive     bool      `json:"is_active"`
	DateCreation time.Time `json:"date_creation"`
}

// TokenPair is the access/refresh bearer pair issued at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Registration is the payload accepted by the backend register endpoint.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Nom       string `json:"nom"`
	Prenom    string `json:"prenom"`
	Telephone string `json:"telephone"`
	Role      Role   `json:"role"`
}
