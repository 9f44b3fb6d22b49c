package utils

import (
	"github.com/eco-alert/api-go/models"
	"github.com/gin-gonic/gin"
)

type UserClaims struct {
	UserID  uint   `json:"user_id"`
	Role    string `json:"role"`
	CityIDs []uint `json:"city_ids"`
}

// IsAdmin reports whether the principal bypasses territory checks.
func (u *UserClaims) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

// IsOperator reports whether the principal holds a role that may drive
// transitions on reports it does not own.
func (u *UserClaims) IsOperator() bool {
	return u.Role == models.RoleMunicipality || u.Role == models.RoleNGO || u.Role == models.RoleAdmin
}

// InTerritory reports whether the given city falls inside the principal's
// territory. Reports without a city are open to any operator.
func (u *UserClaims) InTerritory(cityID *uint) bool {
	if u.IsAdmin() || cityID == nil {
		return true
	}
	for _, id := range u.CityIDs {
		if id == *cityID {
			return true
		}
	}
	return false
}

type contextKey string

const UserContextKey contextKey = "user"

func GetUser(c *gin.Context) *UserClaims {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if userClaims, ok := user.(*UserClaims); ok {
		return userClaims
	}
	return nil
}
