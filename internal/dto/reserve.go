package dto

// ExecuteAppropriationRequest is the payload for posting one month's reserve
// fund appropriation.
type ExecuteAppropriationRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=2000,max=2100"`
}
