package project

import (
	"strings"
	"time"
)

// Project groups tasks. CreatedBy and CompanyID are plain references: the
// project outlives a deleted creator or company.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"createdBy"`
	CompanyID   string    `json:"companyId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Changes is a partial update. Empty fields leave the project unchanged.
type Changes struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Apply copies the non-empty fields of ch onto p.
func (p *Project) Apply(ch Changes) {
	if s := strings.TrimSpace(ch.Name); s != "" {
		p.Name = s
	}
	if s := strings.TrimSpace(ch.Description); s != "" {
		p.Description = s
	}
}
