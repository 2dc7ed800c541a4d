package api

import "time"

// Request schemas.

type registerRequest struct {
	Body struct {
		Name     string `json:"name"     validate:"required,max=255"`
		Email    string `json:"email"    validate:"required,email,max=255"`
		Password string `json:"password" validate:"required,min=6,max=72"`
	} `in:"body"`
}

type sessionRequest struct {
	Body struct {
		Email    string `json:"email"    validate:"required,email"`
		Password string `json:"password" validate:"required,min=6,max=72"`
	} `in:"body"`
}

type getUserRequest struct {
	Params struct {
		ID string `json:"id" validate:"required,uuid"`
	} `in:"params"`
}

// noInput is the schema of routes that take no untrusted input.
type noInput struct{}

// Response schemas.

// noContent declares a response without a body.
type noContent struct{}

type tokenResponse struct {
	Token string `json:"token" validate:"required"`
}

// userPayload is the public view of a user. Fields absent here, such as the
// password hash, never leave the service.
type userPayload struct {
	ID        string    `json:"id"         validate:"required"`
	Name      string    `json:"name"`
	Email     string    `json:"email"      validate:"required,email"`
	CreatedAt time.Time `json:"created_at"`
}

type userProfileResponse struct {
	User userPayload `json:"user" validate:"required"`
}
