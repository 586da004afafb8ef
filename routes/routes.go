package routes

import (
	"quizblog/auth"
	"quizblog/handlers"
	"quizblog/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every resource handler mounted by SetupRoutes.
type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Category     *handlers.CategoryHandler
	Quiz         *handlers.QuizHandler
	Question     *handlers.QuestionHandler
	Score        *handlers.ScoreHandler
	Course       *handlers.CourseHandler
	Notes        *handlers.NotesHandler
	Contact      *handlers.ContactHandler
	Subscriber   *handlers.SubscriberHandler
	Notification *handlers.NotificationHandler
	Health       *handlers.HealthHandler
}

func SetupRoutes(router *gin.Engine, h Handlers, gates *middleware.Gates) {
	authed := gates.RequireAuth()
	admin := gates.RequireRole(auth.RoleAdmin)
	staff := gates.RequireRole(auth.Staff...)

	api := router.Group("/api")
	api.Use(gates.Resolve())
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", h.Auth.Register)
			authRoutes.POST("/login", h.Auth.Login)
			authRoutes.POST("/forgot-password", h.Auth.ForgotPassword)
			authRoutes.POST("/reset-password", h.Auth.ResetPassword)
			authRoutes.GET("/user", authed, h.Auth.GetUser)
		}

		users := api.Group("/users", admin)
		{
			users.GET("", h.User.GetUsers)
			users.GET("/:id", h.User.GetUser)
			users.PUT("/:id", h.User.UpdateUser)
			users.DELETE("/:id", h.User.DeleteUser)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", h.Category.GetCategories)
			categories.GET("/:id", authed, h.Category.GetCategory)
			categories.POST("", admin, h.Category.CreateCategory)
			categories.PUT("/:id", admin, h.Category.UpdateCategory)
			categories.DELETE("/:id", admin, h.Category.DeleteCategory)
		}

		quizzes := api.Group("/quizes")
		{
			quizzes.GET("", h.Quiz.GetQuizzes)
			quizzes.GET("/:id", h.Quiz.GetQuizByID)
			quizzes.GET("/category/:id", h.Quiz.GetQuizzesByCategory)
			quizzes.POST("", staff, h.Quiz.CreateQuiz)
			quizzes.POST("/notifying", staff, h.Quiz.NotifyNewQuiz)
			quizzes.PUT("/:id", staff, h.Quiz.UpdateQuiz)
			quizzes.DELETE("/:id", staff, h.Quiz.DeleteQuiz)
		}

		questions := api.Group("/questions")
		{
			questions.GET("", h.Question.GetQuestions)
			questions.GET("/:id", authed, h.Question.GetQuestion)
			questions.GET("/quiz/:id", h.Question.GetQuestionsByQuiz)
			questions.POST("", staff, h.Question.CreateQuestion)
			questions.PUT("/:id", staff, h.Question.UpdateQuestion)
			questions.DELETE("/:id", staff, h.Question.DeleteQuestion)
		}

		scores := api.Group("/scores")
		{
			scores.GET("", authed, h.Score.GetScores)
			scores.GET("/:id", authed, h.Score.GetScore)
			scores.GET("/taken-by/:id", authed, h.Score.GetScoresByTaker)
			scores.POST("", authed, h.Score.CreateScore)
			scores.DELETE("/:id", admin, h.Score.DeleteScore)
		}

		courseCategories := api.Group("/courseCategories")
		{
			courseCategories.GET("", authed, h.Course.GetCourseCategories)
			courseCategories.GET("/:id", authed, h.Course.GetCourseCategory)
			courseCategories.POST("", admin, h.Course.CreateCourseCategory)
			courseCategories.PUT("/:id", admin, h.Course.UpdateCourseCategory)
			courseCategories.DELETE("/:id", admin, h.Course.DeleteCourseCategory)
		}

		courses := api.Group("/courses")
		{
			courses.GET("", authed, h.Course.GetCourses)
			courses.GET("/:id", authed, h.Course.GetCourse)
			courses.GET("/courseCategory/:id", authed, h.Course.GetCoursesByCategory)
			courses.POST("", staff, h.Course.CreateCourse)
			courses.PUT("/:id", staff, h.Course.UpdateCourse)
			courses.DELETE("/:id", admin, h.Course.DeleteCourse)
		}

		chapters := api.Group("/chapters")
		{
			chapters.GET("", authed, h.Course.GetChapters)
			chapters.GET("/:id", authed, h.Course.GetChapter)
			chapters.GET("/course/:id", authed, h.Course.GetChaptersByCourse)
			chapters.POST("", staff, h.Course.CreateChapter)
			chapters.PUT("/:id", staff, h.Course.UpdateChapter)
			chapters.DELETE("/:id", admin, h.Course.DeleteChapter)
		}

		notes := api.Group("/notes")
		{
			notes.GET("", authed, h.Notes.GetNotes)
			notes.GET("/:id", authed, h.Notes.GetNotesByID)
			notes.GET("/chapter/:id", authed, h.Notes.GetNotesByChapter)
			notes.POST("", staff, h.Notes.CreateNotes)
			notes.PUT("/:id", staff, h.Notes.UpdateNotes)
			notes.DELETE("/:id", staff, h.Notes.DeleteNotes)
		}

		downloads := api.Group("/downloads")
		{
			downloads.GET("", staff, h.Notes.GetDownloads)
			downloads.POST("", authed, h.Notes.CreateDownload)
			downloads.DELETE("/:id", staff, h.Notes.DeleteDownload)
		}

		contacts := api.Group("/contacts")
		{
			contacts.GET("", staff, h.Contact.GetContacts)
			contacts.POST("", h.Contact.CreateContact)
			contacts.POST("/broadcast", staff, h.Contact.SendBroadcast)
			contacts.GET("/:id", admin, h.Contact.GetContact)
			contacts.PUT("/:id", staff, h.Contact.ReplyContact)
			contacts.DELETE("/:id", admin, h.Contact.DeleteContact)
		}

		api.GET("/broadcasts", admin, h.Contact.GetBroadcasts)

		subscribers := api.Group("/subscribers")
		{
			subscribers.GET("", admin, h.Subscriber.GetSubscribers)
			subscribers.POST("", h.Subscriber.Subscribe)
			subscribers.GET("/:id", admin, h.Subscriber.GetSubscriber)
			subscribers.DELETE("/:uemail", authed, h.Subscriber.Unsubscribe)
		}
	}

	router.GET("/ws/notifications", staff, h.Notification.HandleWebSocket)

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
