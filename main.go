package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/simplesign/simplesign/authenticator"
	"github.com/simplesign/simplesign/controllers"
	"github.com/simplesign/simplesign/database"
	appmiddleware "github.com/simplesign/simplesign/middleware"
	"github.com/simplesign/simplesign/notify"
	"github.com/simplesign/simplesign/repositories"
	"github.com/simplesign/simplesign/services"
	"github.com/simplesign/simplesign/storage"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	// Initialize database
	dbPath := getenv("DATABASE_PATH", "simplesign.db")
	if err := database.InitializeDatabase(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB()

	db := database.GetDB()

	appURL := getenv("APP_URL", "http://localhost:8080")

	// Uploaded and signed PDFs live on local disk, served under /files
	dataDir := getenv("DATA_DIR", "data")
	blob, err := storage.NewLocalStore(dataDir, appURL+"/files")
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	mailer := notify.NewMailer(os.Getenv("RESEND_API_KEY"), os.Getenv("MAIL_FROM"))

	// Initialize repositories and services
	repos := repositories.NewRepositories(db)
	srvs := services.NewServices(repos, blob, mailer, appURL)

	// Initialize OIDC provider
	auth, err := authenticator.NewOIDCProvider(authenticator.OIDCConfig{
		IssuerURL:    os.Getenv("OIDC_ISSUER_URL"),
		ClientID:     os.Getenv("OIDC_CLIENT_ID"),
		ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		CallbackURL:  appURL + "/callback",
	})
	if err != nil {
		log.Fatalf("Failed to initialize OIDC provider: %v", err)
	}

	ctrl := controllers.NewControllers(srvs, auth)

	// Set up router
	r, err := setupRouter(ctrl, dataDir)
	if err != nil {
		log.Fatalf("Failed to setup router: %v", err)
	}

	port := getenv("PORT", "8080")

	log.Printf("SimpleSign starting on port %s", port)
	log.Printf("Database: %s, data dir: %s", dbPath, dataDir)

	log.Fatal(http.ListenAndServe(":"+port, r))
}

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, dataDir string) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second)) // covers OAuth callbacks and PDF work
	r.Use(middleware.Compress(5))

	// Session middleware
	sessionHandler, err := session.Sessioner(session.Options{
		Provider:       "memory",
		ProviderConfig: "",
		CookieName:     "simplesign_session",
		Secure:         os.Getenv("USE_HTTPS") == "true",
		Gclifetime:     3600,
		Maxlifetime:    3600,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	r.Use(sessionHandler)

	// Client IP and user agent feed the audit trail
	r.Use(appmiddleware.ClientInfo)

	// Stored PDFs (uploads and signed artifacts)
	r.Handle("/files/*", http.StripPrefix("/files/", http.FileServer(http.Dir(dataDir))))

	// PUBLIC ROUTES (no authentication required)
	r.Get("/login", ctrl.Auth.Login)
	r.Get("/callback", ctrl.Auth.Callback)
	r.Get("/logout", ctrl.Auth.Logout)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status": "healthy", "service": "simplesign"}`)
	})

	r.Post("/api/waitlist", ctrl.Waitlist.Join)

	// Signer routes are authenticated by the access token in the URL
	r.Route("/api/sign/{token}", func(r chi.Router) {
		r.Get("/", ctrl.Signing.Get)
		r.Post("/submit", ctrl.Signing.Submit)
		r.Post("/decline", ctrl.Signing.Decline)
		r.Get("/file", ctrl.Signing.File)
	})

	// PROTECTED ROUTES (authentication required)
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.RequireAuth)

		r.Route("/api/documents", func(r chi.Router) {
			r.Get("/", ctrl.Documents.List)
			r.Post("/upload", ctrl.Documents.Upload)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ctrl.Documents.Get)
				r.Delete("/", ctrl.Documents.Delete)
				r.Post("/send", ctrl.Documents.Send)
				r.Get("/file", ctrl.Documents.File)
				r.Put("/fields/{fieldID}", ctrl.Documents.UpdateField)
				r.Delete("/fields/{fieldID}", ctrl.Documents.DeleteField)
			})
		})
	})

	return r, nil
}

// getenv returns the environment variable or a default when unset
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
