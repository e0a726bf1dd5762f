// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"os"
	"slices"

	"reachcrm-server/ai"
	"reachcrm-server/commons"
	"reachcrm-server/db"
	"reachcrm-server/handlers"
	"reachcrm-server/importer"
	"reachcrm-server/jobs"
	"reachcrm-server/middlewares"
	"reachcrm-server/notifications"
	"reachcrm-server/otp"
	"reachcrm-server/quota"
	"reachcrm-server/rabbitmq"
	"reachcrm-server/ratelimit"
	"reachcrm-server/routes"
	"reachcrm-server/storage"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	commons.LoadEnvFile()
	commons.InitLogger()

	e := echo.New()
	e.HideBanner = true

	e.Logger.SetLevel(commons.Logger.Level())
	e.Logger.SetHeader("${time_rfc3339} ${level} ${short_file}:${line} -")
	e.HTTPErrorHandler = handlers.ErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logMsg := func(format string, args ...any) {
				switch {
				case v.Status >= 500:
					e.Logger.Errorf(format, args...)
				case v.Status >= 400:
					e.Logger.Warnf(format, args...)
				default:
					e.Logger.Infof(format, args...)
				}
			}
			logMsg("%s %s - %d - %.2fms - %s",
				v.Method,
				v.URI,
				v.Status,
				float64(v.Latency.Microseconds())/1000.0,
				v.RemoteIP,
			)
			return nil
		},
	}))
	debugMode := slices.Contains(os.Args[1:], "--debug")
	if debugMode {
		e.Logger.Warn("Debug mode is enabled.")
		e.Debug = true
		e.Logger.SetLevel(log.DEBUG)
	}

	e.Use(middleware.Recover())

	db.InitDB()
	if slices.Contains(os.Args[1:], "--migrate-db") {
		commons.Logger.Debug("--migrate-db flag detected, running migrations")
		db.MigrateDB()
	}

	redisAddr := commons.GetEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := commons.GetEnv("REDIS_PASSWORD")

	limiter, err := ratelimit.NewLimiter(redisAddr, redisPassword, "")
	if err != nil {
		commons.Logger.Warnf("Rate limiting disabled, redis unreachable: %v", err)
	} else {
		middlewares.Limits = ratelimit.NewRegistry(limiter, ratelimit.DefaultConfigs())
	}

	otpStore, err := otp.NewStore(redisAddr, redisPassword)
	if err != nil {
		commons.Logger.Fatalf("Failed to initialize OTP store: %v", err)
	}
	handlers.OTPStore = otpStore

	middlewares.QuotaTracker = quota.NewTracker(db.Conn)

	handlers.JobTracker = jobs.NewTracker(0, 0)
	handlers.JobTracker.StartSweeper()

	handlers.ImportPipeline = &importer.Pipeline{
		DB:            db.Conn,
		Quota:         middlewares.QuotaTracker,
		DefaultRegion: commons.GetEnv("DEFAULT_PHONE_REGION", "US"),
	}

	var generators []ai.TextGenerator
	if baseURL := commons.GetEnv("PRIMARY_LLM_BASE_URL"); baseURL != "" {
		generators = append(generators, ai.NewOpenAICompatGenerator(
			baseURL,
			commons.GetEnv("PRIMARY_LLM_API_KEY"),
			commons.GetEnv("PRIMARY_LLM_MODEL", "gpt-4o-mini"),
		))
	}
	if baseURL := commons.GetEnv("FALLBACK_LLM_BASE_URL"); baseURL != "" {
		generators = append(generators, ai.NewOpenAICompatGenerator(
			baseURL,
			commons.GetEnv("FALLBACK_LLM_API_KEY"),
			commons.GetEnv("FALLBACK_LLM_MODEL", "llama3.1"),
		))
	}
	if len(generators) == 0 {
		commons.Logger.Warn("No language model backends configured, assistant features will fail.")
	}
	handlers.Assistant = ai.NewFallback(generators...)

	if endpoint := commons.GetEnv("MINIO_ENDPOINT"); endpoint != "" {
		store, err := storage.NewMinioStore(
			endpoint,
			commons.GetEnv("MINIO_ACCESS_KEY"),
			commons.GetEnv("MINIO_SECRET_KEY"),
			commons.GetEnv("MINIO_BUCKET", "reachcrm-uploads"),
			commons.GetEnv("MINIO_USE_SSL") == "true",
		)
		if err != nil {
			commons.Logger.Fatalf("Failed to initialize object storage: %v", err)
		}
		handlers.Store = store
	} else {
		commons.Logger.Warn("MINIO_ENDPOINT not set, upload endpoints are disabled.")
	}

	if rmqClient, err := rabbitmq.NewClient(rabbitmq.Config{}); err != nil {
		commons.Logger.Warnf("Notification queue unavailable, falling back to direct dispatch: %v", err)
	} else {
		notifications.QueuePublisher = rmqClient
		defer rmqClient.Close()
	}

	handlers.InitStripe()

	routes.RegisterRoutes(e)

	port := commons.GetEnv("PORT")
	if port == "" {
		port = ":8080"
	}
	if port[0] != ':' {
		port = ":" + port
	}
	e.Logger.Fatal(e.Start(port))
}
