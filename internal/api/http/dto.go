package http

import (
	"time"

	"single-instance/internal/domain"
)

// StatusResponse is the Data Transfer Object for GET /claim.
type StatusResponse struct {
	ClaimName  string     `json:"claim_name"`
	Backend    string     `json:"backend"`
	IsSingle   bool       `json:"is_single"`
	Held       bool       `json:"held"`
	AcquiredAt *time.Time `json:"acquired_at,omitempty"`
	PID        int        `json:"pid"`
}

// NewStatusResponse converts a domain.ClaimStatus to its wire form.
func NewStatusResponse(st domain.ClaimStatus) StatusResponse {
	resp := StatusResponse{
		ClaimName: st.Name,
		Backend:   string(st.Backend),
		IsSingle:  st.Single,
		Held:      st.Held,
		PID:       st.PID,
	}
	if !st.AcquiredAt.IsZero() {
		at := st.AcquiredAt.UTC()
		resp.AcquiredAt = &at
	}
	return resp
}
