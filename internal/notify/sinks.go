package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChanSink hands notifications to a UI loop. A full channel drops the
// notification rather than block the caller.
type ChanSink struct {
	C chan Notification
}

func NewChanSink(size int) *ChanSink {
	return &ChanSink{C: make(chan Notification, size)}
}

var ErrSinkFull = errors.New("notification channel full")

func (c *ChanSink) Deliver(n Notification) error {
	select {
	case c.C <- n:
		return nil
	default:
		return ErrSinkFull
	}
}

// BellSink rings the terminal bell and prints the message.
type BellSink struct {
	W io.Writer
}

func (b BellSink) Deliver(n Notification) error {
	_, err := fmt.Fprintf(b.W, "\a%s: %s\n", n.Title, n.Body)
	return err
}

// WebhookPayload is the JSON body posted by WebhookSink.
type WebhookPayload struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// SecretHeader carries the shared secret when one is configured.
const SecretHeader = "X-Tracklet-Secret"

// WebhookSink posts each notification as JSON to URL.
type WebhookSink struct {
	URL    string
	Secret string
	Client *http.Client
}

func (w *WebhookSink) Deliver(n Notification) error {
	return post(w.client(), w.URL, w.Secret, n)
}

func (w *WebhookSink) client() *http.Client {
	if w.Client != nil {
		return w.Client
	}
	return &http.Client{Timeout: 5 * time.Second}
}

func post(client *http.Client, url, secret string, n Notification) error {
	data, err := json.Marshal(WebhookPayload{ID: n.ID, Title: n.Title, Text: n.Body, At: n.At})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("webhook returned status %d: %s", res.StatusCode, bytes.TrimSpace(body))
}
