package router

import (
	"time"

	"github.com/bugbridge-dev/bugbridge/internal/handlers"
	"github.com/bugbridge-dev/bugbridge/internal/middleware"
	"github.com/bugbridge-dev/bugbridge/internal/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.GET("/:project_id", handlers.GetProject)
			projects.PUT("/:project_id", handlers.UpdateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)
			projects.POST("/:project_id/members", handlers.AddMember)

			// Board view of a project's tasks
			projects.GET("/:project_id/board", handlers.GetBoard)
			projects.POST("/:project_id/board/move", handlers.MoveTask)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.POST("", handlers.CreateTask)
			tasks.GET("/project/:project_id", handlers.ListTasks)
			tasks.PUT("/:task_id", handlers.UpdateTask)
			tasks.DELETE("/:task_id", handlers.DeleteTask)
		}

		comments := api.Group("/comments", middleware.AuthMiddleware())
		{
			comments.POST("", handlers.CreateComment)
			comments.GET("/:task_id", handlers.ListComments)
		}
	}

	return r
}
