package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetProjectID(ctx *gin.Context) (uint, error) {
	return parseIDParam(ctx, "project_id")
}

func GetTaskID(ctx *gin.Context) (uint, error) {
	return parseIDParam(ctx, "task_id")
}

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	idStr := ctx.Param(name)

	if idStr == "" {
		return 0, errors.New("Missing " + name + " parameter")
	}

	id, err := strconv.ParseUint(idStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid " + name + " parameter")
	}

	return uint(id), nil
}
