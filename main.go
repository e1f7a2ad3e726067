package main

import (
	"context"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/bootstrap"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
)

func main() {
	ctx := context.Background()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application: %v", err)
		panic(err)
	}

	if err := app.Run(); err != nil {
		logger.ErrorLog(ctx, "Server stopped: %v", err)
	}
}
