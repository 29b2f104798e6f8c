package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/bugbridge-dev/bugbridge/db"
	"github.com/bugbridge-dev/bugbridge/internal/models"
	"github.com/bugbridge-dev/bugbridge/internal/policy"
	"github.com/bugbridge-dev/bugbridge/internal/types"
	"github.com/bugbridge-dev/bugbridge/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ProjectID   uint   `json:"project_id" binding:"required"`
	Priority    string `json:"priority"`
	AssignedTo  *uint  `json:"assigned_to"`
}

type UpdateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	// Absent keeps the current assignee, a user id sets it, zero clears it.
	AssignedTo *uint `json:"assigned_to"`
}

func CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title and project_id are required", "code": policy.ReasonValidation})
		return
	}

	project, err := loadProject(body.ProjectID)

	if err != nil {
		respondProjectLoadError(ctx, err)
		return
	}

	if decision := policy.CanModifyTask(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	priority := body.Priority

	if priority == "" {
		priority = types.TaskPriorityMedium
	}

	if !types.ValidTaskPriority(priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority", "code": policy.ReasonValidation})
		return
	}

	if body.AssignedTo != nil && !policy.CanAssign(*body.AssignedTo, project) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee must be the project owner or a member", "code": policy.ReasonValidation})
		return
	}

	task := models.Task{
		Title:       body.Title,
		Description: body.Description,
		ProjectID:   project.ID,
		Status:      types.TaskStatusTodo,
		Priority:    priority,
		AssigneeID:  body.AssignedTo,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	if task.AssigneeID != nil {
		var assignee models.User
		if err := db.DB.First(&assignee, *task.AssigneeID).Error; err == nil {
			task.Assignee = &assignee
		} else {
			log.Printf("Failed to load assignee %d: %v", *task.AssigneeID, err)
		}
	}

	ctx.JSON(http.StatusCreated, newTaskResponse(&task))
}

func ListTasks(ctx *gin.Context) {
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

	query := db.DB.Preload("Assignee").Where("project_id = ?", project.ID)

	if search := ctx.Query("search"); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	if priority := ctx.Query("priority"); priority != "" && priority != types.FilterAll {
		query = query.Where("priority = ?", priority)
	}

	if assignedTo := ctx.Query("assigned_to"); assignedTo != "" && assignedTo != types.FilterAll {
		assigneeID, err := strconv.ParseUint(assignedTo, 10, 32)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assigned_to filter", "code": policy.ReasonValidation})
			return
		}

		query = query.Where("assignee_id = ?", uint(assigneeID))
	}

	var tasks []models.Task

	if err := query.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		log.Printf("Failed to list tasks for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for i := range tasks {
		response = append(response, newTaskResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found", "code": policy.ReasonNotFound})
		return
	}

	var body UpdateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "code": policy.ReasonValidation})
		return
	}

	task, project, ok := loadTaskWithProject(ctx, taskID)

	if !ok {
		return
	}

	if decision := policy.CanModifyTask(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	// Partial update: only provided fields change.
	updates := make(map[string]interface{})

	if body.Title != "" {
		updates["title"] = body.Title
		task.Title = body.Title
	}

	if body.Description != "" {
		updates["description"] = body.Description
		task.Description = body.Description
	}

	if body.Status != "" {
		// Any status may move to any other; the board drags freely.
		if !types.ValidTaskStatus(body.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status", "code": policy.ReasonValidation})
			return
		}
		updates["status"] = body.Status
		task.Status = body.Status
	}

	if body.Priority != "" {
		if !types.ValidTaskPriority(body.Priority) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority", "code": policy.ReasonValidation})
			return
		}
		updates["priority"] = body.Priority
		task.Priority = body.Priority
	}

	if body.AssignedTo != nil {
		if *body.AssignedTo == 0 {
			updates["assignee_id"] = nil
			task.AssigneeID = nil
		} else {
			if !policy.CanAssign(*body.AssignedTo, project) {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee must be the project owner or a member", "code": policy.ReasonValidation})
				return
			}
			updates["assignee_id"] = *body.AssignedTo
			task.AssigneeID = body.AssignedTo
		}
	}

	if len(updates) > 0 {
		if err := db.DB.Model(task).Updates(updates).Error; err != nil {
			log.Printf("Failed to update task %d: %v", task.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
			return
		}
	}

	task.Assignee = nil

	if task.AssigneeID != nil {
		var assignee models.User
		if err := db.DB.First(&assignee, *task.AssigneeID).Error; err == nil {
			task.Assignee = &assignee
		}
	}

	ctx.JSON(http.StatusOK, newTaskResponse(task))
}

func DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found", "code": policy.ReasonNotFound})
		return
	}

	task, project, ok := loadTaskWithProject(ctx, taskID)

	if !ok {
		return
	}

	if decision := policy.CanDeleteTask(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		return tx.Delete(task).Error
	})

	if err != nil {
		log.Printf("Failed to delete task %d: %v", task.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// escapeLike neutralizes LIKE metacharacters so a search for "100%" matches
// the literal text instead of everything.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// loadTaskWithProject fetches a task and its project (memberships included,
// for the policy). On failure it has already written the response.
func loadTaskWithProject(ctx *gin.Context, taskID uint) (*models.Task, *models.Project, bool) {
	var task models.Task

	if err := db.DB.Where("id = ?", taskID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found", "code": policy.ReasonNotFound})
		} else {
			log.Printf("Failed to retrieve task %d: %v", taskID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return nil, nil, false
	}

	project, err := loadProject(task.ProjectID)

	if err != nil {
		respondProjectLoadError(ctx, err)
		return nil, nil, false
	}

	return &task, project, true
}
