package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"example.com/dosepoint/services/device/config"
	"example.com/dosepoint/services/device/internal/models"

	"github.com/google/uuid"
)

// Client manages support-desk tasks. At most one task is outstanding per
// device at any time; the caller tracks the open task id on the device row.
type Client interface {
	CreateTask(ctx context.Context, kind models.TaskKind, device *models.Device, user *models.User) (string, error)
	RemoveTask(ctx context.Context, taskID string) error
}

// restClient implements Client against the support-desk HTTP API
type restClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a support-desk task client
func NewClient(cfg config.TasksConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &restClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// createTaskRequest is the wire shape for task creation
type createTaskRequest struct {
	Kind           models.TaskKind `json:"kind"`
	DeviceSerial   string          `json:"device_serial"`
	UserEmail      string          `json:"user_email,omitempty"`
	UserName       string          `json:"user_name,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
}

// createTaskResponse is the wire shape of the task system's answer
type createTaskResponse struct {
	TaskID string `json:"task_id"`
}

// CreateTask opens a new task and returns its id
func (c *restClient) CreateTask(ctx context.Context, kind models.TaskKind, device *models.Device, user *models.User) (string, error) {
	reqBody := createTaskRequest{
		Kind:           kind,
		DeviceSerial:   device.SerialNumber,
		IdempotencyKey: uuid.New().String(),
	}
	if user != nil {
		reqBody.UserEmail = user.Email
		reqBody.UserName = user.FirstName + " " + user.LastName
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task request: %w", err)
	}

	endpoint := c.baseURL + "/api/tasks"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build task request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("task creation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("task creation returned status %d", resp.StatusCode)
	}

	var result createTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode task response: %w", err)
	}
	if result.TaskID == "" {
		return "", fmt.Errorf("task system returned an empty task id")
	}

	return result.TaskID, nil
}

// RemoveTask closes an open task
func (c *restClient) RemoveTask(ctx context.Context, taskID string) error {
	endpoint := fmt.Sprintf("%s/api/tasks/%s", c.baseURL, url.PathEscape(taskID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build task removal request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("task removal failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("task removal for %s returned status %d", taskID, resp.StatusCode)
	}

	return nil
}
