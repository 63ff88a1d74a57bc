package types

import "encoding/json"

// AccessRequest is a normalized access-control event. The NetBox listener
// builds these too, so both ingress paths share one shape.
type AccessRequest struct {
	Desc      string `json:"desc"`
	Portal    string `json:"portal,omitempty"`
	Timestamp string `json:"timestamp,omitempty"` // optional RFC3339
}

type AccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WindowRequest accepts the window as a JSON number or a numeric string.
type WindowRequest struct {
	Window json.Number `json:"window"`
}

type WindowResponse struct {
	Status string `json:"status"`
	Window int    `json:"window"`
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

type ModeResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
