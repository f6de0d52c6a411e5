package domain

// Profile user identity with role and organizational scope.
type Profile struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FullName       string `json:"full_name"`
	Phone          string `json:"phone,omitempty"`
	Role           Role   `json:"role"`
	IsActive       bool   `json:"is_active"`
	HospitalID     string `json:"hospital_id,omitempty"`
	ProvinceID     string `json:"province_id,omitempty"`
	HealthRegionID string `json:"health_region_id,omitempty"`
	HealthOfficeID string `json:"health_office_id,omitempty"`
}

// Owns reports whether the profile belongs to the facility that owns a.
func (p *Profile) Owns(a *Assessment) bool {
	if a.HospitalID != "" {
		return p.HospitalID != "" && p.HospitalID == a.HospitalID
	}
	return a.HealthOfficeID != "" && p.HealthOfficeID == a.HealthOfficeID
}
