package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"formfill/browser"
	"formfill/config"
	"formfill/handlers"
	"formfill/middleware"
	"formfill/services"
	"formfill/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := utils.NewLogger(utils.LogLevel(cfg.Log.Level), cfg.Log.Development)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	utils.SetGlobalLogger(logger)
	defer logger.Sync()

	// formfill token <operator> [ttl] prints a bearer token for the session routes.
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printOperatorToken(cfg, os.Args[2:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	completer, err := services.NewCompleter(cfg.LLM)
	if err != nil {
		log.Fatal(err)
	}

	var screenshots *services.ScreenshotService
	var screenshotDir string
	if cfg.Screenshot.Enabled {
		screenshotDir = cfg.Screenshot.Dir
		s3Service, err := services.NewS3Service(cfg.AWS)
		if err != nil {
			utils.LogWarn("S3 not available, screenshots will be saved locally", map[string]interface{}{"error": err.Error()})
		}
		screenshots = services.NewScreenshotService(s3Service, cfg.Screenshot.Dir)
	}

	sessions := services.NewSessionRegistry(cfg.Sessions.MaxOpen, cfg.Sessions.IdleTTL)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sessions.StartReaper(ctx, cfg.Sessions.ReapInterval)

	autofill := services.NewAutofillService(
		browser.NewPlaywrightLauncher(cfg.Browser),
		sessions,
		completer,
		screenshots,
		cfg.Browser,
	)

	var jwtService *services.JWTService
	if cfg.OperatorSecret != "" {
		jwtService = services.NewJWTService(cfg.OperatorSecret)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORS.AllowedOrigins

	router := handlers.NewRouter(handlers.Dependencies{
		Autofill:      autofill,
		Sessions:      sessions,
		JWT:           jwtService,
		RateLimiter:   limiter,
		CORS:          corsCfg,
		MaxBodyBytes:  cfg.MaxBodyBytes,
		ScreenshotDir: screenshotDir,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "llm_provider": cfg.LLM.Provider})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down", map[string]interface{}{"open_sessions": sessions.Len()})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server shutdown failed", err)
	}

	// Browsers are left running for the operator unless told otherwise.
	if cfg.Sessions.CloseOnShutdown {
		closed := sessions.CloseAll()
		utils.LogInfo("Closed browser sessions", map[string]interface{}{"closed": closed})
	}
}

func printOperatorToken(cfg *config.AppConfig, args []string) error {
	if cfg.OperatorSecret == "" {
		return errors.New("OPERATOR_JWT_SECRET is not set")
	}
	if len(args) == 0 {
		return errors.New("usage: formfill token <operator> [ttl]")
	}
	ttl := 24 * time.Hour
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
		ttl = d
	}

	token, err := services.NewJWTService(cfg.OperatorSecret).GenerateToken(args[0], ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
