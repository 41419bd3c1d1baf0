package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Mailer is the outbound email capability consumed by the auth flows.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlContent string) error
}

type EmailRequest struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"html_content"`
}

type EmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Client delivers email through the relay service over HTTP.
type Client struct {
	baseURL    string
	fromEmail  string
	httpClient *http.Client
	logger     *logrus.Logger
	retryCount int
}

func NewClient(baseURL, fromEmail string, timeout time.Duration, retryCount int, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		fromEmail: fromEmail,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:     logger,
		retryCount: retryCount,
	}
}

func (c *Client) Send(ctx context.Context, to, subject, htmlContent string) error {
	req := &EmailRequest{
		From:        c.fromEmail,
		To:          to,
		Subject:     subject,
		HTMLContent: htmlContent,
	}

	var lastErr error

	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"to":      req.To,
				"subject": req.Subject,
			}).Info("Retrying email send")

			// Exponential backoff
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		err := c.sendOnce(ctx, req)
		if err == nil {
			return nil
		}

		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
			"to":      req.To,
			"subject": req.Subject,
		}).Error("Failed to send email")
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", c.retryCount+1, lastErr)
}

func (c *Client) sendOnce(ctx context.Context, req *EmailRequest) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal email request: %w", err)
	}

	url := fmt.Sprintf("%s/email/send", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	var emailResp EmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&emailResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !emailResp.Success {
		return fmt.Errorf("email service returned error: %s", emailResp.Message)
	}

	c.logger.WithFields(logrus.Fields{
		"to":      req.To,
		"subject": req.Subject,
	}).Info("Email sent successfully")

	return nil
}
