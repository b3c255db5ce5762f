package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/middleware"
	"docveil/models"
	"docveil/services"
	"docveil/utils"
)

type AccessController struct {
	acl    *services.ACLService
	access *services.AccessService
}

func NewAccessController(acl *services.ACLService, access *services.AccessService) *AccessController {
	return &AccessController{acl: acl, access: access}
}

type grantRequest struct {
	SubjectType string   `json:"subject_type" binding:"required"`
	SubjectID   string   `json:"subject_id" binding:"required"`
	Permissions []string `json:"permissions" binding:"required"`
}

func (ac *AccessController) Grant(c *gin.Context) {
	identity, kind, resourceID, ok := ac.resourceParams(c)
	if !ok {
		return
	}

	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	subjectType, err := utils.ParseSubjectType(req.SubjectType)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	subjectID, err := utils.ParseObjectID(req.SubjectID, "subject_id")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	permissions, err := utils.ParsePermissions(req.Permissions)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	entry, err := ac.acl.Grant(c.Request.Context(), identity, services.GrantRequest{
		ResourceType: kind,
		ResourceID:   resourceID,
		SubjectType:  subjectType,
		SubjectID:    subjectID,
		Permissions:  permissions,
	})
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Access granted", entry)
}

func (ac *AccessController) Revoke(c *gin.Context) {
	identity, kind, resourceID, ok := ac.resourceParams(c)
	if !ok {
		return
	}

	subjectType, err := utils.ParseSubjectType(c.Param("subjectType"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	subjectID, err := utils.ParseObjectID(c.Param("subjectId"), "subject id")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	err = ac.acl.Revoke(c.Request.Context(), identity, kind, resourceID, subjectType, subjectID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Access revoked", nil)
}

func (ac *AccessController) ListGrants(c *gin.Context) {
	identity, kind, resourceID, ok := ac.resourceParams(c)
	if !ok {
		return
	}

	entries, err := ac.acl.ListGrants(c.Request.Context(), identity, kind, resourceID)
	if err != nil {
		utils.HandleReadError(c, err)
		return
	}
	utils.SuccessResponse(c, "Access entries", entries)
}

// Check evaluates a single permission for the caller.
func (ac *AccessController) Check(c *gin.Context) {
	identity, kind, resourceID, ok := ac.resourceParams(c)
	if !ok {
		return
	}

	action := models.PermissionType(c.Query("action"))
	if !models.IsValidPermission(action) {
		utils.BadRequestResponse(c, "Invalid or missing action", nil)
		return
	}

	allowed, err := ac.access.Evaluate(c.Request.Context(), identity, kind, resourceID, action)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Permission evaluated", gin.H{"allowed": allowed})
}

// EffectivePermissions returns the caller's full permission set on a resource.
func (ac *AccessController) EffectivePermissions(c *gin.Context) {
	identity, kind, resourceID, ok := ac.resourceParams(c)
	if !ok {
		return
	}

	perms, err := ac.access.GetUserPermissions(c.Request.Context(), identity, kind, resourceID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	if perms == nil {
		perms = []models.PermissionType{}
	}
	utils.SuccessResponse(c, "Effective permissions", gin.H{"permissions": perms})
}

func (ac *AccessController) resourceParams(c *gin.Context) (*models.Identity, models.ResourceKind, primitive.ObjectID, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Not authenticated")
		return nil, "", primitive.NilObjectID, false
	}
	kind, err := utils.ParseResourceKind(c.Param("type"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return nil, "", primitive.NilObjectID, false
	}
	id, err := utils.ParseObjectID(c.Param("id"), "resource id")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return nil, "", primitive.NilObjectID, false
	}
	return identity, kind, id, true
}
