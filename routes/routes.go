package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"docveil/services"
	"docveil/stores"
)

// ServiceContainer holds the wired engine: stores at the bottom, the path
// manager and access evaluator over them, the public services on top.
type ServiceContainer struct {
	JWTSecret string

	ResourceStore stores.ResourceStore
	ACLStore      stores.ACLStore

	PathService     *services.PathService
	AccessService   *services.AccessService
	ACLService      *services.ACLService
	ResourceService *services.ResourceService
	Audit           services.AuditPublisher

	mongoResources *stores.MongoResourceStore
	mongoACL       *stores.MongoACLStore
}

// NewServiceContainer wires every service against MongoDB. redisClient may be
// nil (permission caching off); audit may be a NoopAuditPublisher.
func NewServiceContainer(db *mongo.Database, jwtSecret string, redisClient *redis.Client, cacheTTL time.Duration, audit services.AuditPublisher) *ServiceContainer {
	resourceStore := stores.NewMongoResourceStore(db)
	aclStore := stores.NewMongoACLStore(db)

	cache := services.NewDecisionCache(redisClient, cacheTTL)
	pathService := services.NewPathService(resourceStore)
	accessService := services.NewAccessService(resourceStore, aclStore, cache)
	aclService := services.NewACLService(aclStore, resourceStore, accessService, cache, audit)
	resourceService := services.NewResourceService(resourceStore, pathService, accessService, audit)

	return &ServiceContainer{
		JWTSecret:       jwtSecret,
		ResourceStore:   resourceStore,
		ACLStore:        aclStore,
		PathService:     pathService,
		AccessService:   accessService,
		ACLService:      aclService,
		ResourceService: resourceService,
		Audit:           audit,
		mongoResources:  resourceStore,
		mongoACL:        aclStore,
	}
}

// EnsureIndexes creates the MongoDB indexes the stores rely on. Call once at
// startup.
func (c *ServiceContainer) EnsureIndexes(ctx context.Context) error {
	if err := c.mongoResources.EnsureIndexes(ctx); err != nil {
		return err
	}
	return c.mongoACL.EnsureIndexes(ctx)
}

// SetupRoutes registers every API route group.
func SetupRoutes(api *gin.RouterGroup, container *ServiceContainer) {
	RegisterResourceRoutes(api, container)
	RegisterAccessRoutes(api, container)
}
