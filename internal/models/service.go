// internal/models/service.go
package models

import (
	"fmt"
	"strings"
)

// ServiceType is the kind of care a service request asks for.
type ServiceType string

const (
	ServiceBirthDoula        ServiceType = "birth_doula"
	ServicePostpartumDoula   ServiceType = "postpartum_doula"
	ServiceBackupChildcare   ServiceType = "backup_childcare"
	ServiceEmergencySitter   ServiceType = "emergency_sitter"
	ServiceEldercareSupport  ServiceType = "eldercare_support"
	ServiceLactationSupport  ServiceType = "lactation_support"
	ServiceNewbornSpecialist ServiceType = "newborn_specialist"
)

// ServiceTypes lists every supported service type.
var ServiceTypes = []ServiceType{
	ServiceBirthDoula,
	ServicePostpartumDoula,
	ServiceBackupChildcare,
	ServiceEmergencySitter,
	ServiceEldercareSupport,
	ServiceLactationSupport,
	ServiceNewbornSpecialist,
}

func ParseServiceType(s string) (ServiceType, error) {
	st := ServiceType(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown service type %q", s)
	}
	return st, nil
}

func (s ServiceType) Valid() bool {
	for _, known := range ServiceTypes {
		if s == known {
			return true
		}
	}
	return false
}

// Label renders the type for humans: "birth_doula" -> "birth doula".
func (s ServiceType) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}
