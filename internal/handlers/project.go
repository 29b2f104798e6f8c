package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/bugbridge-dev/bugbridge/db"
	"github.com/bugbridge-dev/bugbridge/internal/models"
	"github.com/bugbridge-dev/bugbridge/internal/policy"
	"github.com/bugbridge-dev/bugbridge/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "code": policy.ReasonValidation})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	title := strings.TrimSpace(body.Title)

	if title == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title is required", "code": policy.ReasonValidation})
		return
	}

	project := models.Project{
		Title:       title,
		Description: body.Description,
		OwnerID:     currentUser.ID,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	project.Owner = models.User{
		Model: gorm.Model{ID: currentUser.ID},
		Name:  currentUser.Name,
		Email: currentUser.Email,
	}

	ctx.JSON(http.StatusCreated, newProjectResponse(&project))
}

func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var projects []models.Project

	err = db.DB.Preload("Owner").Preload("Memberships.User").
		Where("owner_id = ? OR id IN (?)", userID,
			db.DB.Model(&models.ProjectMembership{}).Select("project_id").Where("user_id = ?", userID)).
		Order("created_at DESC, id DESC").
		Find(&projects).Error

	if err != nil {
		log.Printf("Failed to list projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(projects))

	for i := range projects {
		response = append(response, newProjectResponse(&projects[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found", "code": policy.ReasonNotFound})
		return
	}

	project, err := loadProject(projectID)

	if err != nil {
		respondProjectLoadError(ctx, err)
		return
	}

	if decision := policy.CanReadProject(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	ctx.JSON(http.StatusOK, newProjectResponse(project))
}

func UpdateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found", "code": policy.ReasonNotFound})
		return
	}

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "code": policy.ReasonValidation})
		return
	}

	project, err := loadProject(projectID)

	if err != nil {
		respondProjectLoadError(ctx, err)
		return
	}

	if decision := policy.CanAdministerProject(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	// Partial update: only provided fields change. A blank title is treated
	// as absent so a project can never lose its required title.
	updates := make(map[string]interface{})

	if title := strings.TrimSpace(body.Title); title != "" {
		updates["title"] = title
		project.Title = title
	}

	if body.Description != "" {
		updates["description"] = body.Description
		project.Description = body.Description
	}

	if len(updates) > 0 {
		if err := db.DB.Model(project).Updates(updates).Error; err != nil {
			log.Printf("Failed to update project %d: %v", project.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
			return
		}
	}

	ctx.JSON(http.StatusOK, newProjectResponse(project))
}

// DeleteProject cascades in one transaction: the tasks' comments first, then
// the tasks, then memberships, then the project itself. Either everything
// goes or nothing does.
func DeleteProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found", "code": policy.ReasonNotFound})
		return
	}

	project, err := loadProject(projectID)

	if err != nil {
		respondProjectLoadError(ctx, err)
		return
	}

	if decision := policy.CanAdministerProject(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", project.ID)

		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.ProjectMembership{}).Error; err != nil {
			return err
		}

		return tx.Delete(project).Error
	})

	if err != nil {
		log.Printf("Failed to delete project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project removed"})
}

func AddMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found", "code": policy.ReasonNotFound})
		return
	}

	var body AddMemberRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "code": policy.ReasonValidation})
		return
	}

	project, err := loadProject(projectID)

	if err != nil {
		respondProjectLoadError(ctx, err)
		return
	}

	if decision := policy.CanAdministerProject(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var target models.User

	err = db.DB.Where("email = ?", email).First(&target).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to resolve member email: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var targetRef *models.User

	if err == nil {
		targetRef = &target
	}

	if decision := policy.CheckNewMember(project, targetRef); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	membership := models.ProjectMembership{
		UserID:    target.ID,
		ProjectID: project.ID,
	}

	if err := db.DB.Create(&membership).Error; err != nil {
		log.Printf("Failed to add member to project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	membership.User = target
	project.Memberships = append(project.Memberships, membership)

	ctx.JSON(http.StatusOK, newProjectResponse(project))
}

func respondProjectLoadError(ctx *gin.Context, err error) {
	if errors.Is(err, errProjectNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found", "code": policy.ReasonNotFound})
		return
	}

	log.Printf("Failed to retrieve project: %v", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
}
