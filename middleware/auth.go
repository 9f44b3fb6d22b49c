package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/eco-alert/api-go/utils"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			c.Abort()
			return
		}

		token := bearerToken[1]
		claims := jwt.MapClaims{}
		parsedToken, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !parsedToken.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		role, _ := claims["role"].(string)
		if role == "" {
			role = "citizen"
		}

		// city_ids is the operator's territory; absent for citizens
		var cityIDs []uint
		if rawCities, ok := claims["city_ids"].([]interface{}); ok {
			for _, raw := range rawCities {
				if id, ok := raw.(float64); ok {
					cityIDs = append(cityIDs, uint(id))
				}
			}
		}

		userClaims := &utils.UserClaims{
			UserID:  uint(userID),
			Role:    role,
			CityIDs: cityIDs,
		}

		c.Set(string(utils.UserContextKey), userClaims)

		c.Next()
	}
}
