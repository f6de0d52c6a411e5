package domain

import "fmt"

// Permission drill-down permission of a report access policy.
type Permission string

const (
	PermissionAll         Permission = "all"
	PermissionOwnRegion   Permission = "own_region"
	PermissionOwnProvince Permission = "own_province"
	PermissionNone        Permission = "none"
)

// ParsePermission validates s.
func ParsePermission(s string) (Permission, error) {
	switch p := Permission(s); p {
	case PermissionAll, PermissionOwnRegion, PermissionOwnProvince, PermissionNone:
		return p, nil
	}
	return "", fmt.Errorf("invalid permission: %q", s)
}

// Report types.
const (
	ReportOverview = "overview"
	ReportScores   = "scores"
)

// ReportAccessPolicy report_access_policies: one row per (role, report_type).
type ReportAccessPolicy struct {
	Role          Role       `json:"role"`
	ReportType    string     `json:"report_type"`
	ProvinceDrill Permission `json:"province_drill"` // all | own_region | none
	HospitalDrill Permission `json:"hospital_drill"` // all | own_province | none
}
