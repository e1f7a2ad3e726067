package main

import (
	"context"
	"os"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.ErrorLog(context.Background(), "command failed: %v", err)
		os.Exit(1)
	}
}
