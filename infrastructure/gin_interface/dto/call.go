package dto

type PlaceCallRequest struct {
	ToNumber string `json:"to_number" binding:"required"`
	AudioURL string `json:"audio_url" binding:"required"`
}

// CallStatusRequest is the JSON form of a status callback. Providers posting
// forms use CallSid, CallStatus and Timestamp instead.
type CallStatusRequest struct {
	AttemptID string `json:"attempt_id"`
	CallID    string `json:"call_id"`
	State     string `json:"state" binding:"required"`
	Timestamp string `json:"timestamp"`
}

type CallStatusResponse struct {
	AttemptID string `json:"attempt_id"`
	State     string `json:"state"`
	Applied   bool   `json:"applied"`
}
