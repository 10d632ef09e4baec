package auth

import "time"

// Config holds the caller credentials accepted by the API.
type Config struct {
	// FunctionKeys are shared secrets accepted in the x-functions-key header or the code query parameter.
	FunctionKeys []string
	Secret       string
	Issuer       string
	TokenTTL     time.Duration
}

// Method identifies how a caller authenticated.
type Method string

const (
	MethodFunctionKey Method = "function_key"
	MethodJWT         Method = "jwt"
	MethodAnonymous   Method = "anonymous"
)

// Claims describes an authenticated caller.
type Claims struct {
	Subject   string    `json:"subject"`
	Method    Method    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}
