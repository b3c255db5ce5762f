package controllers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/middleware"
	"docveil/models"
	"docveil/services"
	"docveil/utils"
)

type ResourceController struct {
	resources *services.ResourceService
}

func NewResourceController(resources *services.ResourceService) *ResourceController {
	return &ResourceController{resources: resources}
}

type createDepartmentRequest struct {
	Name      string `json:"name" binding:"required"`
	OwnerType string `json:"owner_type" binding:"required"`
}

func (rc *ResourceController) CreateDepartment(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Not authenticated")
		return
	}

	var req createDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	dept, err := rc.resources.CreateDepartment(c.Request.Context(), identity, req.Name, models.OwnerType(req.OwnerType))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Department created", dept)
}

type createFolderRequest struct {
	Name     string `json:"name" binding:"required"`
	ParentID string `json:"parent_id" binding:"required"`
}

func (rc *ResourceController) CreateFolder(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Not authenticated")
		return
	}

	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	parentID, err := utils.ParseObjectID(req.ParentID, "parent_id")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	folder, err := rc.resources.CreateFolder(c.Request.Context(), identity, req.Name, parentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Folder created", folder)
}

type createDocumentRequest struct {
	Name      string `json:"name" binding:"required"`
	Extension string `json:"extension"`
	Size      int64  `json:"size"`
	ParentID  string `json:"parent_id" binding:"required"`
}

func (rc *ResourceController) CreateDocument(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Not authenticated")
		return
	}

	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	parentID, err := utils.ParseObjectID(req.ParentID, "parent_id")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	doc, err := rc.resources.CreateDocument(c.Request.Context(), identity, req.Name, req.Extension, req.Size, parentID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, "Document created", doc)
}

// Get returns one resource's metadata. The route gates on the view
// permission before this handler runs.
func (rc *ResourceController) Get(c *gin.Context) {
	kind, err := utils.ParseResourceKind(c.Param("type"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}
	id, err := utils.ParseObjectID(c.Param("id"), "resource id")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	resource, err := rc.resources.GetResource(c.Request.Context(), kind, id)
	if err != nil {
		utils.HandleReadError(c, err)
		return
	}
	utils.SuccessResponse(c, "Resource", resource)
}

// GetContents lists the live children of a folder or department.
func (rc *ResourceController) GetContents(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Not authenticated")
		return
	}

	containerID, err := utils.ParseObjectID(c.Param("id"), "container id")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	listing, err := rc.resources.ListContainer(c.Request.Context(), identity, containerID)
	if err != nil {
		utils.HandleReadError(c, err)
		return
	}
	utils.SuccessResponse(c, "Container contents", listing)
}

type moveRequest struct {
	NewParentID string `json:"new_parent_id" binding:"required"`
}

func (rc *ResourceController) Move(c *gin.Context) {
	identity, kind, id, ok := rc.resourceParams(c)
	if !ok {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}
	newParentID, err := utils.ParseObjectID(req.NewParentID, "new_parent_id")
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	if err := rc.resources.Move(c.Request.Context(), identity, kind, id, newParentID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Resource moved", nil)
}

func (rc *ResourceController) SoftDelete(c *gin.Context) {
	identity, kind, id, ok := rc.resourceParams(c)
	if !ok {
		return
	}

	if err := rc.resources.SoftDelete(c.Request.Context(), identity, kind, id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Resource moved to trash", nil)
}

func (rc *ResourceController) Restore(c *gin.Context) {
	identity, kind, id, ok := rc.resourceParams(c)
	if !ok {
		return
	}

	if err := rc.resources.Restore(c.Request.Context(), identity, kind, id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Resource restored", nil)
}

// PermanentDelete requires the explicit confirm=true query parameter; the
// engine refuses to purge without it.
func (rc *ResourceController) PermanentDelete(c *gin.Context) {
	identity, kind, id, ok := rc.resourceParams(c)
	if !ok {
		return
	}

	confirmed := c.Query("confirm") == "true"
	if err := rc.resources.PermanentDelete(c.Request.Context(), identity, kind, id, confirmed); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Resource permanently deleted", nil)
}

func (rc *ResourceController) ListTrash(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Not authenticated")
		return
	}

	items, err := rc.resources.ListTrash(c.Request.Context(), identity)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, "Trash contents", items)
}

func (rc *ResourceController) resourceParams(c *gin.Context) (*models.Identity, models.ResourceKind, primitive.ObjectID, bool) {
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
