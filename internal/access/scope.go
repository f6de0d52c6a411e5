// Package access derives a profile's province/region scope and gates report
// drill-down against the configured report access policies.
package access

import "ctam-data/internal/domain"

// References already-fetched reference tables keyed by id.
type References struct {
	Provinces     map[string]domain.Province
	HealthOffices map[string]domain.HealthOffice
	Hospitals     map[string]domain.Hospital
}

// NewReferences indexes the given rows by id.
func NewReferences(provinces []domain.Province, offices []domain.HealthOffice, hospitals []domain.Hospital) References {
	refs := References{
		Provinces:     make(map[string]domain.Province, len(provinces)),
		HealthOffices: make(map[string]domain.HealthOffice, len(offices)),
		Hospitals:     make(map[string]domain.Hospital, len(hospitals)),
	}
	for _, p := range provinces {
		refs.Provinces[p.ID] = p
	}
	for _, o := range offices {
		refs.HealthOffices[o.ID] = o
	}
	for _, h := range hospitals {
		refs.Hospitals[h.ID] = h
	}
	return refs
}

// Scope resolved province and region of a profile. Either may be empty.
type Scope struct {
	ProvinceID string
	RegionID   string
}

// ResolveScope prefers the profile's direct fields and otherwise walks
// health_office -> province -> health_region (or hospital -> province) one hop at a time.
func ResolveScope(p *domain.Profile, refs References) Scope {
	if p == nil {
		return Scope{}
	}
	s := Scope{ProvinceID: p.ProvinceID, RegionID: p.HealthRegionID}

	if s.ProvinceID == "" && p.HealthOfficeID != "" {
		if o, ok := refs.HealthOffices[p.HealthOfficeID]; ok {
			s.ProvinceID = o.ProvinceID
			if s.RegionID == "" {
				s.RegionID = o.HealthRegionID
			}
		}
	}
	if s.ProvinceID == "" && p.HospitalID != "" {
		if h, ok := refs.Hospitals[p.HospitalID]; ok {
			s.ProvinceID = h.ProvinceID
		}
	}
	if s.RegionID == "" && s.ProvinceID != "" {
		if prov, ok := refs.Provinces[s.ProvinceID]; ok {
			s.RegionID = prov.HealthRegionID
		}
	}
	return s
}

// FacilityScope province/region of the facility owning a.
func FacilityScope(a *domain.Assessment, refs References) Scope {
	if a.HospitalID != "" {
		return ResolveScope(&domain.Profile{HospitalID: a.HospitalID}, refs)
	}
	return ResolveScope(&domain.Profile{HealthOfficeID: a.HealthOfficeID}, refs)
}

// CanDrillToProvince nil policy is permissive.
func CanDrillToProvince(s Scope, policy *domain.ReportAccessPolicy, province domain.Province) bool {
	if policy == nil {
		return true
	}
	switch policy.ProvinceDrill {
	case domain.PermissionAll:
		return true
	case domain.PermissionOwnRegion:
		return s.RegionID != "" && s.RegionID == province.HealthRegionID
	case domain.PermissionNone:
		return false
	}
	return true
}

// CanDrillToHospital nil policy is permissive.
func CanDrillToHospital(s Scope, policy *domain.ReportAccessPolicy, hospital domain.Hospital) bool {
	if policy == nil {
		return true
	}
	switch policy.HospitalDrill {
	case domain.PermissionAll:
		return true
	case domain.PermissionOwnProvince:
		return s.ProvinceID != "" && s.ProvinceID == hospital.ProvinceID
	case domain.PermissionNone:
		return false
	}
	return true
}
