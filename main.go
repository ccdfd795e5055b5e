package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow-project/backend/handlers"
	"taskflow-project/backend/logging"
	"taskflow-project/backend/middleware"
	"taskflow-project/backend/repositories"
	"taskflow-project/backend/services"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting TaskFlow backend...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "taskflow"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	usersCollection := db.Collection("users")
	projectsCollection := db.Collection("projects")
	tasksCollection := db.Collection("tasks")
	eventsCollection := db.Collection("events")

	notificationRepo, err := repositories.NewNotificationRepo(os.Getenv("CASS_DB"))
	if err != nil {
		logging.Logger.Fatalf("Event ID: CASSANDRA_CONNECTION_FAILED, Description: Cassandra connection failed: %v", err)
	}
	defer notificationRepo.CloseSession()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: JWT_SECRET is not set in the environment variables.")
	}
	jwtService := services.NewJWTService(jwtSecret)

	blackList, err := services.LoadBlackList("blacklist.txt")
	if err != nil {
		logging.Logger.Warnf("Event ID: BLACKLIST_LOAD_ERROR, Description: Password blacklist not loaded: %v", err)
		blackList = map[string]bool{}
	}

	mailBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "MailCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + os.Getenv("SERVER_PORT")
	}

	notificationService := services.NewNotificationService(notificationRepo)
	userService := services.NewUserService(usersCollection, jwtService, blackList, mailBreaker)
	taskService := services.NewTaskService(tasksCollection, projectsCollection, usersCollection, notificationService)
	projectService := services.NewProjectService(projectsCollection, tasksCollection, usersCollection)
	eventService := services.NewEventService(eventsCollection, notificationService)
	fileService := services.NewFileService(tasksCollection, uploadDir, baseURL)
	searchService := services.NewSearchService(tasksCollection, projectsCollection, usersCollection)
	statsService := services.NewStatsService(usersCollection, projectsCollection, tasksCollection)

	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(userService, statsService)
	taskHandler := handlers.NewTaskHandler(taskService)
	projectHandler := handlers.NewProjectHandler(projectService)
	eventHandler := handlers.NewEventHandler(eventService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	fileHandler := handlers.NewFileHandler(fileService)
	searchHandler := handlers.NewSearchHandler(searchService)

	r := mux.NewRouter()

	// Public auth routes.
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/verify", authHandler.Verify).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh", authHandler.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/forgot-password", authHandler.ForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/reset-password", authHandler.ResetPassword).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/accept-invite", authHandler.AcceptInvite).Methods(http.MethodPost)

	// Everything below requires a valid access token.
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(jwtService))

	protected.HandleFunc("/users/me", userHandler.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/users/me", userHandler.UpdateProfile).Methods(http.MethodPatch)
	protected.HandleFunc("/users/me/password", userHandler.ChangePassword).Methods(http.MethodPost)
	protected.HandleFunc("/users/{id}", userHandler.GetUser).Methods(http.MethodGet)

	protected.HandleFunc("/admin/users", adminHandler.CreateUser).Methods(http.MethodPost)
	protected.HandleFunc("/admin/invites", adminHandler.InviteUser).Methods(http.MethodPost)
	protected.HandleFunc("/admin/users", adminHandler.ListTenants).Methods(http.MethodGet)
	protected.HandleFunc("/admin/users/{id}/deactivate", adminHandler.DeactivateUser).Methods(http.MethodPatch)
	protected.HandleFunc("/admin/stats", adminHandler.DashboardStats).Methods(http.MethodGet)

	protected.HandleFunc("/projects", projectHandler.CreateProject).Methods(http.MethodPost)
	protected.HandleFunc("/projects", projectHandler.ListProjects).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods(http.MethodPatch)
	protected.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods(http.MethodDelete)

	protected.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPatch)
	protected.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)
	protected.HandleFunc("/tasks/{id}/status", taskHandler.ChangeStatus).Methods(http.MethodPatch)
	protected.HandleFunc("/tasks/{id}/accept", taskHandler.AcceptTask).Methods(http.MethodPatch)
	protected.HandleFunc("/tasks/{id}/time", taskHandler.LogTime).Methods(http.MethodPatch)
	protected.HandleFunc("/tasks/{id}/checklist", taskHandler.UpdateChecklist).Methods(http.MethodPatch)
	protected.HandleFunc("/tasks/{id}/comments", taskHandler.AddComment).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}/attachments", fileHandler.UploadAttachment).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}/attachments/{attachmentId}", fileHandler.DeleteAttachment).Methods(http.MethodDelete)

	protected.HandleFunc("/files/{filename}", fileHandler.ServeFile).Methods(http.MethodGet)

	protected.HandleFunc("/events", eventHandler.CreateEvent).Methods(http.MethodPost)
	protected.HandleFunc("/events", eventHandler.ListEvents).Methods(http.MethodGet)
	protected.HandleFunc("/events/{id}", eventHandler.UpdateEvent).Methods(http.MethodPut)
	protected.HandleFunc("/events/{id}", eventHandler.DeleteEvent).Methods(http.MethodDelete)

	protected.HandleFunc("/notifications", notificationHandler.ListNotifications).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllRead).Methods(http.MethodPatch)
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkRead).Methods(http.MethodPatch)
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods(http.MethodDelete)

	protected.HandleFunc("/search", searchHandler.Search).Methods(http.MethodGet)
	protected.HandleFunc("/search/suggestions", searchHandler.Suggestions).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
