package main

import (
	"CreditDesk/internal/repository"
	"CreditDesk/pkg/logger"
)

func main() {
	logger.Init()
	defer logger.Sync()

	repository.RunGenerate()
}
