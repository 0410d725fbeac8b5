package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is a permission group tag attached to a user.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSupport  Role = "support"
	RoleCustomer Role = "customer"
)

// AllRoles is the fixed enumeration of recognized roles.
var AllRoles = []Role{RoleAdmin, RoleSupport, RoleCustomer}

// Valid reports whether the role belongs to the fixed enumeration.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Roles is a set of role tags, stored as a JSON array column.
type Roles []Role

// Contains reports whether the set includes the given role.
func (rs Roles) Contains(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects reports whether the set shares any role with other.
func (rs Roles) Intersects(other []Role) bool {
	for _, r := range other {
		if rs.Contains(r) {
			return true
		}
	}
	return false
}

// Value implements driver.Valuer so gorm can persist the set.
func (rs Roles) Value() (driver.Value, error) {
	data, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roles: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner so gorm can load the set.
func (rs *Roles) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, rs)
	case string:
		return json.Unmarshal([]byte(v), rs)
	case nil:
		*rs = nil
		return nil
	default:
		return fmt.Errorf("cannot scan roles from %T", value)
	}
}
