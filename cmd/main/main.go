package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/diegofalves/ominideck/internal/cli"
	"github.com/diegofalves/ominideck/internal/config"
	"github.com/diegofalves/ominideck/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("ERROR: Could not load config: %v", err)
	}
	if err := logger.InitLogger(cfg.LogFile, cfg.LogMode); err != nil {
		log.Fatalf("ERROR: Could not initialize logger: %v", err)
	}

	rootCmd := cli.NewRootCmd()
	err = rootCmd.Execute()
	logger.Close()
	if err != nil {
		os.Exit(1)
	}
}
