package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
	"docveil/utils"
)

const testSecret = "test-secret"

func authTestRouter(t *testing.T, capture **models.Identity) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", AuthMiddleware(testSecret), func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		require.True(t, ok)
		*capture = identity
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	userID := primitive.NewObjectID()
	deptID := primitive.NewObjectID()
	driveID := primitive.NewObjectID()

	token, err := utils.GenerateToken(utils.IdentityClaims{
		UserID:              userID.Hex(),
		Role:                "admin",
		DepartmentIDs:       []string{deptID.Hex()},
		MyDriveDepartmentID: driveID.Hex(),
	}, testSecret, "docveil", time.Minute)
	require.NoError(t, err)

	var identity *models.Identity
	router := authTestRouter(t, &identity)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, identity)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, models.RoleAdmin, identity.Role)
	assert.Equal(t, []primitive.ObjectID{deptID}, identity.DepartmentIDs)
	require.NotNil(t, identity.MyDriveDepartmentID)
	assert.Equal(t, driveID, *identity.MyDriveDepartmentID)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	var identity *models.Identity
	router := authTestRouter(t, &identity)

	wrongSecret, err := utils.GenerateToken(utils.IdentityClaims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   "user",
	}, "another-secret", "docveil", time.Minute)
	require.NoError(t, err)

	expired, err := utils.GenerateToken(utils.IdentityClaims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   "user",
	}, testSecret, "docveil", -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc"},
		{"wrong secret", "Bearer " + wrongSecret},
		{"expired", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}
