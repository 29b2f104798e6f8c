package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/bugbridge-dev/bugbridge/db"
	"github.com/bugbridge-dev/bugbridge/internal/board"
	"github.com/bugbridge-dev/bugbridge/internal/models"
	"github.com/bugbridge-dev/bugbridge/internal/policy"
	"github.com/bugbridge-dev/bugbridge/internal/utils"
	"github.com/gin-gonic/gin"
)

type BoardResponse struct {
	ProjectID uint                      `json:"project_id"`
	Lanes     map[string][]TaskResponse `json:"lanes"`
}

// GetBoard returns the project's tasks grouped into the three lanes, newest
// first within each lane.
func GetBoard(ctx *gin.Context) {
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

	b, ok := buildBoard(ctx, project.ID)

	if !ok {
		return
	}

	response := BoardResponse{
		ProjectID: project.ID,
		Lanes:     make(map[string][]TaskResponse, len(board.Lanes())),
	}

	for _, lane := range board.Lanes() {
		tasks := b.Lane(lane)
		laneTasks := make([]TaskResponse, 0, len(tasks))

		for i := range tasks {
			laneTasks = append(laneTasks, newTaskResponse(&tasks[i]))
		}

		response.Lanes[string(lane)] = laneTasks
	}

	ctx.JSON(http.StatusOK, response)
}

// MoveTask applies a drag-release event to the board and persists the status
// change. A drop back onto the original slot is a no-op and never touches
// the store; a failed write rolls the board state back before reporting.
func MoveTask(ctx *gin.Context) {
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

	var move board.Move

	if err := ctx.BindJSON(&move); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "code": policy.ReasonValidation})
		return
	}

	project, err := loadProject(projectID)

	if err != nil {
		respondProjectLoadError(ctx, err)
		return
	}

	if decision := policy.CanModifyTask(userID, project); !decision.Allowed {
		denied(ctx, decision)
		return
	}

	b, ok := buildBoard(ctx, project.ID)

	if !ok {
		return
	}

	revert, changed, err := b.Apply(move)

	if err != nil {
		if errors.Is(err, board.ErrUnknownLane) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown lane", "code": policy.ReasonValidation})
		} else {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found in source lane", "code": policy.ReasonNotFound})
		}
		return
	}

	if !changed {
		ctx.Status(http.StatusNoContent)
		return
	}

	err = db.DB.Model(&models.Task{}).Where("id = ? AND project_id = ?", move.TaskID, project.ID).
		Update("status", string(move.Destination)).Error

	if err != nil {
		revert()
		log.Printf("Failed to move task %d: %v", move.TaskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move task"})
		return
	}

	var task models.Task

	if err := db.DB.Preload("Assignee").First(&task, move.TaskID).Error; err != nil {
		log.Printf("Failed to reload task %d after move: %v", move.TaskID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move task"})
		return
	}

	ctx.JSON(http.StatusOK, newTaskResponse(&task))
}

func buildBoard(ctx *gin.Context, projectID uint) (*board.Board, bool) {
	var tasks []models.Task

	err := db.DB.Preload("Assignee").Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").Find(&tasks).Error

	if err != nil {
		log.Printf("Failed to load board for project %d: %v", projectID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, false
	}

	return board.Build(tasks), true
}
