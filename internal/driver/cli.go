package driver

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/rehearse/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "exercise_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the session exercise tool.
func ShowHelp() {
	os.Stdout.WriteString(`Rehearse Session Exercise Tool
==============================

A concurrent tool for exercising the rehearsal interview service end to end:
it creates sessions, records and submits answers, and polls for feedback.

Usage:
  go run cmd/driver/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9090")
  -sessions int
        Number of interview sessions to drive (default 10)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -answer int
        Seconds to keep each answer recording open (default 2)
  -poll int
        Feedback poll attempts per session (default 30)
  -poll-interval duration
        Delay between feedback polls (default 3s)
  -log string
        Log file for run output (default: exercise_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Exercise with default settings
  go run cmd/driver/main.go

  # Exercise with custom parameters
  go run cmd/driver/main.go -sessions 50 -workers 8 -url http://localhost:8080
`)
}
