package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleOperator      UserRole = "operator"
	RoleAdministrator UserRole = "administrator"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FullName     string         `db:"full_name" json:"full_name"`
	Role         UserRole       `db:"role" json:"role"`
	Active       bool           `db:"active" json:"active"`
	// AuthorizedEquipment restricts which equipment an operator may select.
	// Empty means unrestricted.
	AuthorizedEquipment pq.StringArray `db:"authorized_equipment" json:"authorized_equipment"`
	LastLogin           *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// MayOperate reports whether the user is allowed to run the given equipment.
func (u *User) MayOperate(equipmentID string) bool {
	if len(u.AuthorizedEquipment) == 0 {
		return true
	}
	for _, id := range u.AuthorizedEquipment {
		if id == equipmentID {
			return true
		}
	}
	return false
}

// UserInfo describes a user in API responses, without credentials.
type UserInfo struct {
	ID                  string   `json:"id"`
	Email               string   `json:"email"`
	FullName            string   `json:"full_name"`
	Role                UserRole `json:"role"`
	AuthorizedEquipment []string `json:"authorized_equipment,omitempty"`
}

// AssignEquipmentRequest replaces an operator's authorized equipment list.
// An empty list lifts the restriction.
type AssignEquipmentRequest struct {
	EquipmentIDs []string `json:"equipment_ids" validate:"dive,required,uuid4"`
}

// Info projects the user into its public shape.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:                  u.ID,
		Email:               u.Email,
		FullName:            u.FullName,
		Role:                u.Role,
		AuthorizedEquipment: u.AuthorizedEquipment,
	}
}
