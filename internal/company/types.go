package company

import "time"

// Company is a tenant. The JSON field names follow the legacy API.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"companyName"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
