package handlers

import (
	"log"
	"net/http"

	"github.com/bugbridge-dev/bugbridge/db"
	"github.com/bugbridge-dev/bugbridge/internal/models"
	"github.com/bugbridge-dev/bugbridge/internal/policy"
	"github.com/bugbridge-dev/bugbridge/internal/utils"
	"github.com/gin-gonic/gin"
)

type CreateCommentRequest struct {
	Text   string `json:"text" binding:"required"`
	TaskID uint   `json:"task_id" binding:"required"`
}

func CreateComment(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateCommentRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Text and task_id are required", "code": policy.ReasonValidation})
		return
	}

	_, project, ok := loadTaskWithProject(ctx, body.TaskID)

	if !ok {
		return
	}

	// Commenting requires the same access as reading the board.
	if decision := policy.CanReadProject(currentUser.ID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	comment := models.Comment{
		Text:   body.Text,
		TaskID: body.TaskID,
		UserID: currentUser.ID,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	comment.User = models.User{
		Name:  currentUser.Name,
		Email: currentUser.Email,
	}
	comment.User.ID = currentUser.ID

	ctx.JSON(http.StatusCreated, newCommentResponse(&comment))
}

// ListComments returns a task's thread oldest first, the opposite order from
// project and task listings.
func ListComments(ctx *gin.Context) {
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

	_, project, ok := loadTaskWithProject(ctx, taskID)

	if !ok {
		return
	}

	if decision := policy.CanReadProject(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	var comments []models.Comment

	err = db.DB.Preload("User").Where("task_id = ?", taskID).
		Order("created_at ASC, id ASC").Find(&comments).Error

	if err != nil {
		log.Printf("Failed to list comments for task %d: %v", taskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	response := make([]CommentResponse, 0, len(comments))

	for i := range comments {
		response = append(response, newCommentResponse(&comments[i]))
	}

	ctx.JSON(http.StatusOK, response)
}
