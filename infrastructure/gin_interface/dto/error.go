package dto

type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}
