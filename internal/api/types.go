package api

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
	Role   string `json:"role" example:"thv-bucket-sync-sources"`
	Leader bool   `json:"leader"`
}
