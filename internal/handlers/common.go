package handlers

import (
	"errors"
	"time"

	"github.com/bugbridge-dev/bugbridge/db"
	"github.com/bugbridge-dev/bugbridge/internal/models"
	"github.com/bugbridge-dev/bugbridge/internal/policy"
	"github.com/bugbridge-dev/bugbridge/internal/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectResponse struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Owner       *types.UserResponse  `json:"owner"`
	Members     []types.UserResponse `json:"members"`
	CreatedAt   time.Time            `json:"created_at"`
}

type TaskResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	ProjectID   uint                `json:"project_id"`
	Status      string              `json:"status"`
	Priority    string              `json:"priority"`
	AssignedTo  *types.UserResponse `json:"assigned_to"`
	CreatedAt   time.Time           `json:"created_at"`
}

type CommentResponse struct {
	ID        uint               `json:"id"`
	Text      string             `json:"text"`
	TaskID    uint               `json:"task_id"`
	User      types.UserResponse `json:"user"`
	CreatedAt time.Time          `json:"created_at"`
}

// denied writes a policy denial with its stable reason code.
func denied(ctx *gin.Context, decision policy.Decision) {
	ctx.JSON(policy.StatusCode(decision.Reason), gin.H{
		"error": policy.Message(decision.Reason),
		"code":  decision.Reason,
	})
}

var errProjectNotFound = errors.New("project not found")

// loadProject fetches a project with everything the policy and the response
// edge need: the owner and the member users.
func loadProject(projectID uint) (*models.Project, error) {
	var project models.Project

	err := db.DB.Preload("Owner").Preload("Memberships.User").
		Where("id = ?", projectID).First(&project).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errProjectNotFound
		}
		return nil, err
	}

	return &project, nil
}

func newUserResponse(user *models.User) *types.UserResponse {
	if user == nil || user.ID == 0 {
		return nil
	}

	return &types.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}
}

func newProjectResponse(project *models.Project) ProjectResponse {
	members := make([]types.UserResponse, 0, len(project.Memberships))

	for _, membership := range project.Memberships {
		if resp := newUserResponse(&membership.User); resp != nil {
			members = append(members, *resp)
		}
	}

	return ProjectResponse{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		Owner:       newUserResponse(&project.Owner),
		Members:     members,
		CreatedAt:   project.CreatedAt,
	}
}

func newTaskResponse(task *models.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		ProjectID:   task.ProjectID,
		Status:      task.Status,
		Priority:    task.Priority,
		AssignedTo:  newUserResponse(task.Assignee),
		CreatedAt:   task.CreatedAt,
	}
}

func newCommentResponse(comment *models.Comment) CommentResponse {
	resp := CommentResponse{
		ID:        comment.ID,
		Text:      comment.Text,
		TaskID:    comment.TaskID,
		CreatedAt: comment.CreatedAt,
	}

	if user := newUserResponse(&comment.User); user != nil {
		resp.User = *user
	}

	return resp
}
