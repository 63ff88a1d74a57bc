package types

// EventView is one row of the dashboard table.
type EventView struct {
	ID      string `json:"id"`
	Type    string `json:"type"`           // "access" | "camera"
	Kind    string `json:"kind,omitempty"` // camera entries only
	Time    string `json:"time"`
	Portal  string `json:"portal,omitempty"`
	Desc    string `json:"desc,omitempty"`
	Camera  string `json:"camera,omitempty"`
	Event   string `json:"event,omitempty"`
	Count   string `json:"count,omitempty"`
	Verdict string `json:"verdict,omitempty"`
}

type StatusResponse struct {
	Events      []EventView `json:"events"`
	PeopleCount int         `json:"people_count"`
	Window      int         `json:"window"`
	Mode        string      `json:"mode"`
}

type HistoryResponse struct {
	Events []EventView `json:"events"`
}

// NetBoxConfig is the operator-editable access-control connection. Password
// is masked with '*' on reads.
type NetBoxConfig struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type NetBoxConfigResponse struct {
	Status string       `json:"status"`
	Config NetBoxConfig `json:"config"`
}

type NetBoxTestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
