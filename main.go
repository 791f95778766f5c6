package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/dleads/stakeados/internal/auth"
	"github.com/dleads/stakeados/internal/config"
	"github.com/dleads/stakeados/internal/content"
	"github.com/dleads/stakeados/internal/db"
	"github.com/dleads/stakeados/internal/draft"
	"github.com/dleads/stakeados/internal/logger"
	"github.com/dleads/stakeados/internal/model"
	"github.com/dleads/stakeados/internal/notifications"
	"github.com/dleads/stakeados/internal/render"
	"github.com/dleads/stakeados/internal/routes"
	"github.com/dleads/stakeados/internal/sse"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// Not fatal: the environment may be set by the supervisor.
		os.Stderr.WriteString("No .env file loaded\n")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		os.Stderr.WriteString("Invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}
	cfg := config.AppConfig

	l := logger.New(cfg.Logging.Level)
	config.SetLogger(l)
	db.SetLogger(l)
	content.SetLogger(l)
	draft.SetLogger(l)
	notifications.SetLogger(l)
	render.SetLogger(l)
	auth.SetLogger(l)
	routes.SetLogger(l)

	store, prefsStore, cleanup := buildStores(l)
	defer cleanup()

	var authProvider auth.AuthProvider
	if clerkKey := os.Getenv("CLERK_API"); clerkKey != "" {
		authProvider = auth.NewClerkAuthProvider(clerkKey)
	} else {
		l.Warn().Msg("CLERK_API not set, using a static development user")
		authProvider = auth.NewStaticAuthProvider(model.UserID("dev"))
	}

	clients := sse.NewSSEClients()
	handler := routes.NewHandler(cfg, store, prefsStore, authProvider, clients)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	securedMux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routes.RobotsPath {
			mux.ServeHTTP(w, r)
		} else {
			secureHeaders(mux.ServeHTTP)(w, r)
		}
	})

	authMux := authProvider.WithHeaderAuthorization()(securedMux)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	l.Info().Str("addr", addr).Msg("Server listening")
	if err := http.ListenAndServe(addr, authMux); err != nil {
		l.Fatal().Err(err).Msg("Server stopped")
	}
}

// buildStores picks the persistence backend. Articles go to S3-compatible
// object storage when credentials are present, otherwise SQLite; the
// notification preferences always live in SQLite.
func buildStores(l zerolog.Logger) (content.Store, notifications.Store, func()) {
	database := db.NewSQLite(os.Getenv("SQLITE_PATH"))
	if err := database.InitDB(); err != nil {
		l.Fatal().Err(err).Msg("Failed to initialize database")
	}
	cleanup := func() { database.Close() }

	prefsStore := notifications.NewSQLiteStore(database)

	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		l.Info().Str("bucket", bucket).Msg("Using S3 article storage")
		store := content.NewS3Store(
			os.Getenv("S3_ACCESS_KEY_ID"),
			os.Getenv("S3_ACCESS_KEY_SECRET"),
			os.Getenv("S3_ENDPOINT"),
			bucket,
		)
		return store, prefsStore, cleanup
	}

	return content.NewSQLiteStore(database), prefsStore, cleanup
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		h(w, r)
	}
}
