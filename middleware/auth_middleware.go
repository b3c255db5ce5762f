package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
	"docveil/utils"
)

const identityKey = "identity"

// AuthMiddleware verifies the bearer token and places the caller's Identity
// in the request context. The engine below this point never sees a token.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := utils.VerifyToken(token, jwtSecret)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		identity, err := identityFromClaims(claims)
		if err != nil {
			utils.UnauthorizedResponse(c, "Invalid identity in token")
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// GetIdentity returns the Identity stored by AuthMiddleware.
func GetIdentity(c *gin.Context) (*models.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*models.Identity)
	return identity, ok
}

func identityFromClaims(claims *utils.IdentityClaims) (*models.Identity, error) {
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, err
	}

	deptIDs, err := utils.ParseObjectIDs(claims.DepartmentIDs, "department id")
	if err != nil {
		return nil, err
	}
	groupIDs, err := utils.ParseObjectIDs(claims.GroupIDs, "group id")
	if err != nil {
		return nil, err
	}

	identity := &models.Identity{
		UserID:        userID,
		Role:          models.Role(claims.Role),
		DepartmentIDs: deptIDs,
		GroupIDs:      groupIDs,
	}
	if claims.MyDriveDepartmentID != "" {
		myDrive, err := primitive.ObjectIDFromHex(claims.MyDriveDepartmentID)
		if err != nil {
			return nil, err
		}
		identity.MyDriveDepartmentID = &myDrive
	}
	return identity, nil
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}

	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}
