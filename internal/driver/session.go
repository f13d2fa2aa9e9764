package driver

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// sessionOutcome summarizes one driven session.
type sessionOutcome struct {
	sessionID string
	answers   int
	feedback  bool
	err       error
}

// runSessions drives NumSessions interview sessions concurrently using a
// worker pool and folds the outcomes into stats.
func runSessions(ctx context.Context, config *Config, stats *Stats) error {
	log.Printf("📞 Driving %d sessions with %d workers...", config.NumSessions, config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		started   int64
		completed int64
		failed    int64
		answers   int64
		received  int64
		timedOut  int64
	)

	var lastReport time.Time

	slots := make(chan struct{}, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for range slots {
				select {
				case <-ctx.Done():
					return
				default:
					atomic.AddInt64(&started, 1)
					outcome := driveSession(ctx, client, config)

					atomic.AddInt64(&answers, int64(outcome.answers))
					switch {
					case outcome.err != nil:
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("❌ Session %s failed: %v", outcome.sessionID, outcome.err)
						}
					case outcome.feedback:
						atomic.AddInt64(&completed, 1)
						atomic.AddInt64(&received, 1)
					default:
						atomic.AddInt64(&completed, 1)
						atomic.AddInt64(&timedOut, 1)
					}

					if time.Since(lastReport) >= progressInterval {
						lastReport = time.Now()
						done := atomic.LoadInt64(&completed) + atomic.LoadInt64(&failed)
						if config.Verbose {
							log.Printf("📊 Progress: %d/%d sessions (completed: %d, failed: %d)",
								done, config.NumSessions, atomic.LoadInt64(&completed), atomic.LoadInt64(&failed))
						} else {
							fmt.Printf("\r📞 Sessions: %d/%d (completed: %d, failed: %d)",
								done, config.NumSessions, atomic.LoadInt64(&completed), atomic.LoadInt64(&failed))
						}
					}
				}
			}
		}(i)
	}

	go func() {
		defer close(slots)
		for i := 0; i < config.NumSessions; i++ {
			select {
			case <-ctx.Done():
				return
			case slots <- struct{}{}:
			}
		}
	}()

	wg.Wait()

	if !config.Verbose {
		fmt.Println()
	}

	stats.SessionsStarted = int(atomic.LoadInt64(&started))
	stats.SessionsCompleted = int(atomic.LoadInt64(&completed))
	stats.SessionsFailed = int(atomic.LoadInt64(&failed))
	stats.AnswersSubmitted = int(atomic.LoadInt64(&answers))
	stats.FeedbackReceived = int(atomic.LoadInt64(&received))
	stats.FeedbackTimeouts = int(atomic.LoadInt64(&timedOut))

	log.Printf(`✅ Session run completed:
   Completed: %d
   Failed: %d
   Answers submitted: %d
`, stats.SessionsCompleted, stats.SessionsFailed, stats.AnswersSubmitted)

	return nil
}

// driveSession walks one session through its full lifecycle: create, answer
// every question, then poll for feedback and tear down.
func driveSession(ctx context.Context, client *HTTPClient, config *Config) sessionOutcome {
	snap, err := createSession(ctx, client, config)
	if err != nil {
		return sessionOutcome{err: err}
	}

	outcome := sessionOutcome{sessionID: snap.SessionID}

	if snap.Phase == "failed" {
		outcome.err = fmt.Errorf("session entered failed phase: %s", snap.ErrorMessage)
		return outcome
	}

	// Answer each question in order. The question count bounds the loop so a
	// misbehaving server cannot trap the driver.
	for i := 0; i < snap.QuestionCount; i++ {
		answered, err := answerQuestion(ctx, client, config, snap.SessionID)
		if err != nil {
			outcome.err = err
			return outcome
		}
		outcome.answers++

		if answered.Phase == "finished" {
			break
		}
	}

	result, err := pollFeedback(ctx, client, config, snap.SessionID)
	if err == nil {
		if verifyErr := verifyFeedback(result); verifyErr != nil {
			log.Printf("⚠️  Feedback verification warning for %s: %v", snap.SessionID, verifyErr)
		}
		outcome.feedback = true
	}

	if err := closeSession(ctx, client, config, snap.SessionID); err != nil && config.Verbose {
		log.Printf("⚠️  Failed to close session %s: %v", snap.SessionID, err)
	}

	return outcome
}

// createSession opens a new interview session.
func createSession(ctx context.Context, client *HTTPClient, config *Config) (Snapshot, error) {
	resp, err := client.Post(ctx, config.BaseURL+"/sessions", nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create session: %w", err)
	}

	if resp.StatusCode != StatusCreated {
		_, _ = readResponseBody(resp)
		return Snapshot{}, fmt.Errorf("session creation failed with status: %d", resp.StatusCode)
	}

	return decodeSnapshot(resp)
}

// answerQuestion records an answer for the current question and advances.
func answerQuestion(ctx context.Context, client *HTTPClient, config *Config, sessionID string) (Snapshot, error) {
	base := config.BaseURL + "/sessions/" + sessionID

	if _, err := doAction(ctx, client, base+"/record"); err != nil {
		return Snapshot{}, fmt.Errorf("record failed: %w", err)
	}

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-time.After(time.Duration(config.AnswerSeconds) * time.Second):
	}

	if _, err := doAction(ctx, client, base+"/stop"); err != nil {
		return Snapshot{}, fmt.Errorf("stop failed: %w", err)
	}

	snap, err := doAction(ctx, client, base+"/next")
	if err != nil {
		return Snapshot{}, fmt.Errorf("next failed: %w", err)
	}
	return snap, nil
}

// doAction posts a session action and decodes the refreshed snapshot.
func doAction(ctx context.Context, client *HTTPClient, url string) (Snapshot, error) {
	resp, err := client.Post(ctx, url, nil)
	if err != nil {
		return Snapshot{}, err
	}

	if resp.StatusCode != StatusOK {
		_, _ = readResponseBody(resp)
		return Snapshot{}, fmt.Errorf("action failed with status: %d", resp.StatusCode)
	}

	return decodeSnapshot(resp)
}

// closeSession tears the session down.
func closeSession(ctx context.Context, client *HTTPClient, config *Config, sessionID string) error {
	resp, err := client.Delete(ctx, config.BaseURL+"/sessions/"+sessionID)
	if err != nil {
		return err
	}
	_, _ = readResponseBody(resp)

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("close failed with status: %d", resp.StatusCode)
	}
	return nil
}
