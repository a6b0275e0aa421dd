package router

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/novafs/lms-api/config"
	"github.com/novafs/lms-api/database"
	"github.com/novafs/lms-api/handlers"
	auth_handlers "github.com/novafs/lms-api/handlers/auth"
	course_handlers "github.com/novafs/lms-api/handlers/course"
	overview_handlers "github.com/novafs/lms-api/handlers/overview"
	payment_handlers "github.com/novafs/lms-api/handlers/payment"
	student_handlers "github.com/novafs/lms-api/handlers/student"
	"github.com/novafs/lms-api/model"
	"github.com/novafs/lms-api/services"
	"github.com/novafs/lms-api/services/media"
	"github.com/novafs/lms-api/services/midtrans"
	"github.com/novafs/lms-api/utils/auth"
	"github.com/novafs/lms-api/utils/cache"
	"github.com/novafs/lms-api/utils/middleware"
	"github.com/novafs/lms-api/utils/validation"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET environment variable is not set")

// SetupRoutes builds every dependency and registers all routes. The returned
// cleanup releases connections opened here and must run after shutdown.
func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) (func(), error) {
	if env.JWT_SECRET == "" {
		return nil, ErrMissingJWTSecret
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: env.JWT_SECRET,
		Expiry: auth.DefaultExpiry,
		Issuer: env.JWT_ISSUER,
	})

	db := store.GetDB()

	mediaStore, err := media.NewStore(env)
	if err != nil {
		return nil, err
	}

	gateway := midtrans.NewClient(midtrans.Config{
		SnapURL:    env.MIDTRANS_URL,
		AuthString: env.MIDTRANS_AUTH_STRING,
		ServerKey:  env.MIDTRANS_SERVER_KEY,
		AppURL:     env.APP_URL,
	})

	// Redis backs brute force protection and the category cache; both are
	// skipped when it is unreachable
	var bruteForceProtection *middleware.BruteForceProtection
	var categoryCache services.JSONCache
	var cachePinger handlers.Pinger
	cleanup := func() {}
	redisCache, err := cache.NewRedisCache(env.REDIS_URL)
	if err != nil {
		log.Warnw("failed to connect to Redis, brute force protection and caching disabled", "error", err)
	} else {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
		categoryCache = redisCache
		cachePinger = redisCache
		cleanup = func() {
			if err := redisCache.Close(); err != nil {
				log.Warnw("failed to close Redis connection", "error", err)
			}
		}
	}

	validator := validation.NewValidator()
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	authService := services.NewAuthService(db, validator, jwtManager, gateway)
	courseService := services.NewCourseService(db, validator, mediaStore, categoryCache)
	studentService := services.NewStudentService(db, validator, mediaStore)
	paymentService := services.NewPaymentService(db, services.PaymentConfig{
		ServerKey:       env.MIDTRANS_SERVER_KEY,
		VerifySignature: env.MIDTRANS_VERIFY_SIGNATURE,
	})
	overviewService := services.NewOverviewService(db)

	authHandler := auth_handlers.NewAuthHandler(authService, bruteForceProtection)
	courseHandler := course_handlers.NewCourseHandler(courseService)
	studentHandler := student_handlers.NewStudentHandler(studentService)
	paymentHandler := payment_handlers.NewPaymentHandler(paymentService)
	overviewHandler := overview_handlers.NewOverviewHandler(overviewService)

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    env.ALLOWED_ORIGINS,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	metrics := middleware.NewMetrics()
	app.Use(metrics.Handler())

	// Health check and metrics endpoints (public)
	app.Get("/ping", handlers.HandleCheckHealth(store, cachePinger))
	app.Get("/metrics", metrics.Expose())

	// Auth routes (public)
	app.Post("/sign-up", authHandler.SignUp)
	if bruteForceProtection != nil {
		app.Post("/sign-in", bruteForceProtection.CheckAndRecordAttempt(), authHandler.SignIn)
	} else {
		app.Post("/sign-in", authHandler.SignIn)
	}
	app.Post("/sign-out", authMiddleware.Required(), authHandler.SignOut)

	// Gateway webhook (public)
	app.Post("/handle-payment-midtrans", paymentHandler.HandleMidtrans)

	asManager := func(handler fiber.Handler) []fiber.Handler {
		return append(authMiddleware.RequireManager(), handler)
	}
	signedIn := authMiddleware.Required()

	// Categories
	app.Get("/categories", signedIn, courseHandler.ListCategories)

	// Course contents; registered before /courses/:id
	app.Post("/courses/contents", asManager(courseHandler.CreateContent)...)
	app.Get("/courses/contents/:id", signedIn, courseHandler.GetContent) // Owner manager or enrolled student
	app.Put("/courses/contents/:id", asManager(courseHandler.UpdateContent)...)
	app.Delete("/courses/contents/:id", asManager(courseHandler.DeleteContent)...)

	// Course enrollment
	app.Get("/courses/students/:id", asManager(courseHandler.GetCourseStudents)...)
	app.Post("/courses/students/:id", asManager(courseHandler.AddStudent)...)
	app.Put("/courses/students/:id", asManager(courseHandler.RemoveStudent)...) // Unenroll

	// Courses
	app.Get("/courses", asManager(courseHandler.ListCourses)...)
	app.Get("/courses/:id", signedIn, courseHandler.GetCourse) // Owner manager or enrolled student
	app.Post("/courses", asManager(courseHandler.CreateCourse)...)
	app.Put("/courses/:id", asManager(courseHandler.UpdateCourse)...)
	app.Delete("/courses/:id", asManager(courseHandler.DeleteCourse)...)

	// Students
	app.Get("/students", asManager(studentHandler.ListStudents)...)
	app.Get("/students/:id", asManager(studentHandler.GetStudent)...)
	app.Post("/students", asManager(studentHandler.CreateStudent)...)
	app.Put("/students/:id", asManager(studentHandler.UpdateStudent)...)
	app.Delete("/students/:id", asManager(studentHandler.DeleteStudent)...)

	// Signed-in student's courses
	app.Get("/students-courses", signedIn, authMiddleware.RequireRole(model.RoleStudent), studentHandler.ListMyCourses)

	// Overview
	app.Get("/overviews", asManager(overviewHandler.GetOverview)...)

	return cleanup, nil
}
