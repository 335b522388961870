package response

type WebhookAckResponse struct {
	Received bool `json:"received"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
