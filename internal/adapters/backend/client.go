// Package backend is the HTTP client for the remote interview feedback API:
// question retrieval, answer upload and feedback polling.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/okian/rehearse/internal/domain/model"
	"github.com/okian/rehearse/pkg/logger"
)

// Client communicates with the feedback backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
	logger     logger.Logger
}

// New creates a Client targeting the given API base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		retryCfg:   defaultRetryConfig(),
		logger:     logger.Get().Named("backend"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Questions fetches the question list for a session. The backend is loose
// about the response shape; all three accepted forms normalize to an
// order-sorted list.
func (c *Client) Questions(ctx context.Context, sessionID string) ([]model.Question, error) {
	r := retry.New[[]model.Question](c.retryCfg)
	return r.Do(ctx, func(ctx context.Context) ([]model.Question, error) {
		body, err := c.get(ctx, fmt.Sprintf("/api/interviews/%s/questions", url.PathEscape(sessionID)))
		if err != nil {
			return nil, err
		}
		qs, err := model.ParseQuestionList(body)
		if err != nil {
			return nil, fmt.Errorf("parse question list: %w", err)
		}
		return qs, nil
	})
}

type uploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UploadAnswer sends one recorded answer as multipart form data.
func (c *Client) UploadAnswer(ctx context.Context, up model.AnswerUpload) error {
	r := retry.New[*uploadResponse](c.retryCfg)
	_, err := r.Do(ctx, func(ctx context.Context) (*uploadResponse, error) {
		return c.uploadOnce(ctx, up)
	})
	return err
}

func (c *Client) uploadOnce(ctx context.Context, up model.AnswerUpload) (*uploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="answer.webm"`)
	if up.MimeType != "" {
		hdr.Set("Content-Type", up.MimeType)
	}
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(up.Audio); err != nil {
		return nil, fmt.Errorf("write audio part: %w", err)
	}

	fields := map[string]string{
		"interview_id":     up.SessionID,
		"question_id":      up.QuestionID,
		"question_text":    up.QuestionText,
		"question_order":   strconv.Itoa(up.QuestionOrder),
		"is_last_question": strconv.FormatBool(up.IsLast),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/answers", &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload answer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if !out.Success {
		if out.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrUploadRejected, out.Message)
		}
		return nil, ErrUploadRejected
	}

	c.logger.Debug(ctx, "answer uploaded",
		logger.String("sessionID", up.SessionID),
		logger.String("questionID", up.QuestionID),
		logger.Bool("last", up.IsLast),
	)
	return &out, nil
}

// FeedbackStatus reports how far the backend has gotten with a session's
// feedback.
func (c *Client) FeedbackStatus(ctx context.Context, sessionID string) (model.FeedbackStatusReport, error) {
	body, err := c.get(ctx, fmt.Sprintf("/api/interviews/%s/feedback-status", url.PathEscape(sessionID)))
	if err != nil {
		return model.FeedbackStatusReport{}, err
	}

	var report model.FeedbackStatusReport
	if err := json.Unmarshal(body, &report); err != nil {
		return model.FeedbackStatusReport{}, fmt.Errorf("decode status: %w", err)
	}
	return report, nil
}

type feedbackEnvelope struct {
	Status   string            `json:"status"`
	Feedback model.RawFeedback `json:"feedback"`
}

// Feedback fetches the raw feedback payload for a completed session.
func (c *Client) Feedback(ctx context.Context, sessionID string) (model.RawFeedback, error) {
	r := retry.New[model.RawFeedback](c.retryCfg)
	return r.Do(ctx, func(ctx context.Context) (model.RawFeedback, error) {
		body, err := c.get(ctx, fmt.Sprintf("/api/interviews/%s/feedback", url.PathEscape(sessionID)))
		if err != nil {
			return model.RawFeedback{}, err
		}

		var env feedbackEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return model.RawFeedback{}, fmt.Errorf("decode feedback: %w", err)
		}
		if env.Status != model.FeedbackSuccess && env.Status != model.FeedbackCompleted {
			return model.RawFeedback{}, fmt.Errorf("%w: status %q", ErrFeedbackUnavailable, env.Status)
		}
		return env.Feedback, nil
	})
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d on %s", ErrUnexpectedStatus, resp.StatusCode, path)
	}
	return body, nil
}
