package main

import (
	"context"
	"discovery-tracker-api/auth"
	"discovery-tracker-api/internal/audit"
	"discovery-tracker-api/internal/authz"
	"discovery-tracker-api/internal/classifier"
	"discovery-tracker-api/internal/client"
	"discovery-tracker-api/internal/config"
	"discovery-tracker-api/internal/db"
	"discovery-tracker-api/internal/discovery"
	"discovery-tracker-api/internal/document"
	"discovery-tracker-api/internal/middleware"
	"discovery-tracker-api/internal/tracker"
	"discovery-tracker-api/internal/user"
	"discovery-tracker-api/internal/valuation"
	"discovery-tracker-api/internal/worker"
	"discovery-tracker-api/redis"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// documentSource lets the tracker registry validate link targets without
// depending on the full document service.
type documentSource struct {
	repo document.Repository
}

func (s documentSource) Exists(ctx context.Context, id string) (bool, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return d != nil, nil
}

// trackerLinks adapts the tracker service to the document registry's
// cascading-delete contract.
type trackerLinks struct {
	service tracker.Service
}

func (t trackerLinks) LinkedTrackerIDs(ctx context.Context, documentID string) ([]string, error) {
	trackers, err := t.service.TrackersLinkedToDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(trackers))
	for _, tr := range trackers {
		ids = append(ids, tr.ID)
	}
	return ids, nil
}

func (t trackerLinks) DeleteDocumentFromAllTrackers(ctx context.Context, documentID string) (int, error) {
	return t.service.DeleteDocumentFromAllTrackers(ctx, documentID)
}

// documentData feeds extracted text to the classification queue and writes
// verdicts back.
type documentData struct {
	repo document.Repository
}

func (d documentData) CleanText(ctx context.Context, documentID string) (string, error) {
	props, err := d.repo.GetProperties(ctx, documentID)
	if err != nil {
		return "", err
	}
	if props == nil {
		return "", nil
	}
	return props.CleanText, nil
}

func (d documentData) SetClassification(ctx context.Context, documentID, classification string, subClassification map[string]string, label string) error {
	return d.repo.SetClassification(ctx, documentID, classification, subClassification, label)
}

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	mongoClient, database, err := db.Connect(context.Background())
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Disconnect(context.Background(), mongoClient)

	if err := db.EnsureIndexes(context.Background(), database); err != nil {
		log.Fatalf("Index creation failed: %v", err)
	}

	// Initialize Redis
	redis.InitRedis()

	// Background workers for classification jobs
	pool := worker.NewPool(4, 1000)
	defer pool.Shutdown()

	auditor := audit.NewLogger(database, config.AppConfig.AuditLoggingEnabled)
	failSilent := config.AppConfig.FailSilent

	// Repositories
	clientRepo := client.NewRepository(database)
	trackerRepo := tracker.NewRepository(database)
	docRepo := document.NewRepository(database)
	discoveryRepo := discovery.NewRepository(database)
	userRepo := user.NewRepository(database)
	taskRepo := classifier.NewRepository(database)

	// Services
	clientService := client.NewService(clientRepo, failSilent)
	policy := authz.NewPolicy(clientService)

	classifyQueue := classifier.NewQueue(
		taskRepo,
		classifier.NewClient(config.AppConfig.ClassifierAddress),
		documentData{repo: docRepo},
		pool,
	)

	trackerService := tracker.NewService(trackerRepo, policy, documentSource{repo: docRepo}, auditor, failSilent)
	docService := document.NewService(docRepo, trackerLinks{service: trackerService}, classifyQueue, auditor, failSilent)
	discoveryService := discovery.NewService(discoveryRepo, policy, auditor)
	userService := user.NewService(userRepo)
	valuationClient := valuation.NewClient(config.AppConfig.ValuationAddress, config.AppConfig.ValuationAPIKey)

	// Handlers
	clientHandler := client.NewHandler(clientService)
	trackerHandler := tracker.NewHandler(trackerService)
	docHandler := document.NewHandler(docService)
	discoveryHandler := discovery.NewHandler(discoveryService)
	userHandler := user.NewHandler(userService)
	valuationHandler := valuation.NewHandler(valuationClient)

	// Initialize Gin router
	router := gin.Default()

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{"https://falcon.plano.law"}
	}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler())

	// User routes
	router.POST("/register", userHandler.Register)
	router.POST("/login", userHandler.Login)
	router.DELETE("/logout", auth.AuthMiddleWare(), userHandler.Logout)
	router.GET("/profile", auth.AuthMiddleWare(), userHandler.GetProfile)

	authed := router.Group("/", auth.AuthMiddleWare())

	// Client routes
	authed.POST("/clients", clientHandler.Create)
	authed.GET("/clients", clientHandler.Show)
	authed.PUT("/clients", clientHandler.Update)
	authed.DELETE("/clients/:id", clientHandler.Delete)
	authed.PATCH("/clients/:id/authorized_user", clientHandler.AddAuthorizedUser)
	authed.DELETE("/clients/:id/authorized_user", clientHandler.RemoveAuthorizedUser)

	// Tracker routes
	authed.POST("/trackers", trackerHandler.Create)
	authed.GET("/trackers", trackerHandler.Show)
	authed.PUT("/trackers", trackerHandler.Update)
	authed.DELETE("/trackers/:id", trackerHandler.Delete)
	authed.PATCH("/trackers/:id/documents/:documentId", trackerHandler.LinkDocument)
	authed.DELETE("/trackers/:id/documents/:documentId", trackerHandler.UnlinkDocument)
	authed.GET("/trackers/:id/documents", trackerHandler.Documents)
	authed.GET("/trackers/:id/categories", trackerHandler.Categories)
	authed.GET("/trackers/:id/category_pairs", trackerHandler.CategoryPairs)
	authed.GET("/trackers/:id/datasets/:dataset", trackerHandler.Dataset)
	authed.GET("/trackers/:id/compliance", trackerHandler.ComplianceMatrix)

	// Document routes
	authed.POST("/documents", docHandler.Create)
	authed.GET("/documents", docHandler.Show)
	authed.PUT("/documents", docHandler.Update)
	authed.DELETE("/documents/:id", docHandler.Delete)
	authed.GET("/documents/:id/properties", docHandler.Properties)
	authed.PUT("/documents/:id/properties", docHandler.UpsertProperties)

	// Discovery routes
	authed.POST("/discovery_files", discoveryHandler.CreateFile)
	authed.GET("/discovery_files", discoveryHandler.ShowFile)
	authed.GET("/discovery_files/client", discoveryHandler.FilesForClient)
	authed.PUT("/discovery_files", discoveryHandler.UpdateFile)
	authed.DELETE("/discovery_files/:id", discoveryHandler.DeleteFile)
	authed.POST("/discovery_requests", discoveryHandler.CreateRequest)
	authed.GET("/discovery_requests", discoveryHandler.ShowRequest)
	authed.GET("/discovery_requests/file", discoveryHandler.RequestsForFile)
	authed.GET("/discovery_requests/service_list", discoveryHandler.ServiceList)
	authed.PUT("/discovery_requests", discoveryHandler.UpdateRequest)
	authed.DELETE("/discovery_requests/:id", discoveryHandler.DeleteRequest)

	// Utility routes
	authed.GET("/util/property", valuationHandler.Property)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
