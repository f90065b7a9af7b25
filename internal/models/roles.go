package models

// Role is the typed actor role checked before matching or assignment work.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
	RoleContractor Role = "contractor"
	RoleClient     Role = "client"
	RoleSystem     Role = "system"
)

type Capability string

const (
	CapRunMatching      Capability = "match:run"
	CapCreateAssignment Capability = "assignment:create"
	CapRevokeAssignment Capability = "assignment:revoke"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:    {CapRunMatching, CapCreateAssignment, CapRevokeAssignment},
	RoleEmployee: {CapRunMatching, CapCreateAssignment, CapRevokeAssignment},
	RoleSystem:   {CapRunMatching, CapCreateAssignment},
	RoleClient:   {CapRunMatching},
}

// Can reports whether the role holds the capability. Unknown roles hold none.
func (r Role) Can(c Capability) bool {
	for _, held := range roleCapabilities[r] {
		if held == c {
			return true
		}
	}
	return false
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleContractor, RoleClient, RoleSystem:
		return true
	}
	return false
}
