package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Roles understood by the lifecycle engine. Token issuance lives in the
// external identity provider; these are authorization labels only.
const (
	RoleCitizen      = "citizen"
	RoleMunicipality = "municipality"
	RoleNGO          = "ngo"
	RoleAdmin        = "admin"
)

type User struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Username string `gorm:"unique;not null" json:"username"`
	Email    string `gorm:"unique;not null" json:"email"`
	Role     string `gorm:"not null;default:'citizen';type:varchar(20)" json:"role"`

	// CityIDs is the operator's territory. Empty for citizens.
	CityIDs pq.Int64Array `gorm:"type:integer[]" json:"city_ids"`
}

type City struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"unique;not null" json:"name"`
	Region    string    `json:"region"`
}
