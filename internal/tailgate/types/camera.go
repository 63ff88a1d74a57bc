package types

// CameraRequest is the body a camera (or VMS rule) posts for every detection.
// Field names follow the camera's own payload.
type CameraRequest struct {
	EventType    string `json:"EventType"`
	CameraName   string `json:"CameraName"`
	EventName    string `json:"EventName"`
	EventCaption string `json:"EventCaption"`
	Timestamp    string `json:"Timestamp,omitempty"` // optional RFC3339
}

type CameraResponse struct {
	Status         string `json:"status"`
	PeopleCount    *int   `json:"people_count,omitempty"`
	Classification string `json:"classification,omitempty"`
}
