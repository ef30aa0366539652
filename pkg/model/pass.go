package model

import "time"

type PassStatus string

const (
	PassStatusActive  PassStatus = "active"
	PassStatusExpired PassStatus = "expired"
)

// Pass is one issued visitor pass. ID is the store key and never changes
// after insertion.
type Pass struct {
	ID           string     `json:"id"`
	RequestID    string     `json:"requestId"`
	VisitorName  string     `json:"visitorName"`
	VisitorEmail string     `json:"visitorEmail"`
	VisitorPhone string     `json:"visitorPhone"`
	HostName     string     `json:"hostName"`
	Location     string     `json:"location"`
	Purpose      string     `json:"purpose"`
	CreatedAt    time.Time  `json:"createdAt"`
	ValidFrom    time.Time  `json:"validFrom"`
	ValidTo      time.Time  `json:"expiresAt"`
	Status       PassStatus `json:"status"`
}

// CreatePassRequest is the body accepted by the creation endpoint.
// ValidFrom and ValidTo are RFC 3339 strings.
type CreatePassRequest struct {
	RequestID    string `json:"requestId" validate:"required"`
	VisitorName  string `json:"visitorName,omitempty"`
	VisitorEmail string `json:"visitorEmail,omitempty"`
	VisitorPhone string `json:"visitorPhone,omitempty"`
	HostName     string `json:"hostName,omitempty"`
	Location     string `json:"location,omitempty"`
	Purpose      string `json:"purpose,omitempty"`
	ValidFrom    string `json:"validFrom,omitempty" validate:"omitempty,rfc3339"`
	ValidTo      string `json:"validTo,omitempty" validate:"omitempty,rfc3339"`
}

type CreatePassResponse struct {
	Success   bool   `json:"success"`
	RequestID string `json:"requestId"`
	PassURL   string `json:"passUrl"`
	ExpiresAt string `json:"expiresAt"`
}

type CreatePassErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
