package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"angostura-trivia-service/pkg/auth"
)

// NewRouter assembles the HTTP surface: public quiz and content routes,
// the websocket leaderboard feed, and the token-guarded admin API.
func NewRouter(quiz *QuizHandler, admin *AdminHandler, contentH *ContentHandler, ws *WSHandler, tokens *auth.Manager) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(200, "ok")
	})

	api := r.Group("/api")
	{
		api.POST("/quiz/sessions", quiz.StartSession)
		api.GET("/quiz/sessions/:id", quiz.GetSession)
		api.POST("/quiz/sessions/:id/answer", quiz.SubmitAnswer)
		api.POST("/quiz/sessions/:id/advance", quiz.Advance)
		api.GET("/leaderboard", quiz.Leaderboard)

		api.GET("/content/park", contentH.Park)
		api.GET("/content/attractions", contentH.Attractions)
		api.GET("/content/communities", contentH.Communities)
		api.GET("/content/project", contentH.Project)

		api.POST("/admin/login", admin.Login)
		authed := api.Group("/admin", RequireAdmin(tokens))
		{
			authed.GET("/questions", admin.ListQuestions)
			authed.POST("/questions", admin.CreateQuestion)
			authed.GET("/questions/:id", admin.GetQuestion)
			authed.PUT("/questions/:id", admin.UpdateQuestion)
			authed.DELETE("/questions/:id", admin.DeleteQuestion)
			authed.PATCH("/questions/:id/active", admin.SetQuestionActive)
			authed.GET("/stats", admin.Stats)
			authed.GET("/results", admin.RecentResults)
		}
	}

	r.GET("/ws/leaderboard", ws.ServeLeaderboard)

	return r
}
