package main

import (
	"os"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/app"
	"github.com/kikoon-ek/hr-erp/internal/audit"
	"github.com/kikoon-ek/hr-erp/internal/bootstrap"
	"github.com/kikoon-ek/hr-erp/internal/middleware"
	"github.com/kikoon-ek/hr-erp/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	r := gin.Default()
	r.Use(middleware.RequestID())

	if err := app.BuildApp(r); err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	bootstrap.StartHTTPServer(
		r,
		bootstrap.ServerConfig{
			Port:         port,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		audit.NewZapRecorder(),
	)
}
