package domain

import "fmt"

// Role profiles.role
type Role string

const (
	RoleHospitalIT    Role = "hospital_it"
	RoleHealthOffice  Role = "health_office"
	RoleProvincial    Role = "provincial"
	RoleRegional      Role = "regional"
	RoleCentralAdmin  Role = "central_admin"
	RoleSupervisor    Role = "supervisor"
	RoleHospitalCEO   Role = "hospital_ceo"
	RoleProvincialCEO Role = "provincial_ceo"
	RoleRegionalCEO   Role = "regional_ceo"
)

var validRoles = map[Role]bool{
	RoleHospitalIT: true, RoleHealthOffice: true, RoleProvincial: true,
	RoleRegional: true, RoleCentralAdmin: true, RoleSupervisor: true,
	RoleHospitalCEO: true, RoleProvincialCEO: true, RoleRegionalCEO: true,
}

// ParseRole validates s.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// Facility roles own and edit assessments.
func (r Role) Facility() bool {
	return r == RoleHospitalIT || r == RoleHealthOffice
}

// Reviewer roles act on the approval chain.
func (r Role) Reviewer() bool {
	return r == RoleProvincial || r == RoleRegional || r == RoleCentralAdmin
}
