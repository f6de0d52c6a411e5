package domain

// HealthRegion health_regions (เขตสุขภาพ 1-13)
type HealthRegion struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RegionNumber int    `json:"region_number"`
}

// Province provinces
type Province struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	HealthRegionID string `json:"health_region_id"`
}

// HealthOffice health_offices; ProvinceID is empty for region-level offices.
type HealthOffice struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	ProvinceID     string `json:"province_id,omitempty"`
	HealthRegionID string `json:"health_region_id"`
}

// Hospital hospitals
type Hospital struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	ProvinceID string `json:"province_id"`
}
