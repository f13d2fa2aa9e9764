package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/rehearse/internal/driver"
)

// Default configuration constants.
const (
	defaultNumSessions   = 10
	defaultAnswerSeconds = 2
	defaultPollAttempts  = 30
	defaultPollInterval  = 3 * time.Second
	defaultTimeout       = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:9090", "Base URL of the service")
		numSessions   = flag.Int("sessions", defaultNumSessions, "Number of interview sessions to drive")
		workers       = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		answerSeconds = flag.Int("answer", defaultAnswerSeconds, "Seconds to keep each answer recording open")
		pollAttempts  = flag.Int("poll", defaultPollAttempts, "Feedback poll attempts per session")
		pollInterval  = flag.Duration("poll-interval", defaultPollInterval, "Delay between feedback polls")
		logFile       = flag.String("log", "", "Log file for run output (default: exercise_log_TIMESTAMP.log)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		driver.ShowHelp()
		return
	}

	// Setup logging
	if err := driver.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create exercise configuration
	config := &driver.Config{
		BaseURL:          *baseURL,
		NumSessions:      *numSessions,
		Workers:          *workers,
		Timeout:          *timeout,
		AnswerSeconds:    *answerSeconds,
		FeedbackAttempts: *pollAttempts,
		FeedbackInterval: *pollInterval,
		LogFile:          *logFile,
		Verbose:          *verbose,
	}

	// Run the exercise
	if err := driver.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Exercise failed: " + err.Error() + "\n")
		return
	}
}
