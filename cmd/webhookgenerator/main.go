package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const gitlabTimeLayout = "2006-01-02 15:04:05 MST"

type hookUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type hookAttributes struct {
	IID          int64  `json:"iid,omitempty"`
	Title        string `json:"title,omitempty"`
	Description  string `json:"description,omitempty"`
	State        string `json:"state,omitempty"`
	Action       string `json:"action"`
	AuthorID     int64  `json:"author_id,omitempty"`
	Note         string `json:"note,omitempty"`
	NoteableType string `json:"noteable_type,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type hookIssue struct {
	IID int64 `json:"iid"`
}

type hookPayload struct {
	ObjectKind       string         `json:"object_kind"`
	User             hookUser       `json:"user"`
	ObjectAttributes hookAttributes `json:"object_attributes"`
	Issue            *hookIssue     `json:"issue,omitempty"`
}

// delivery is one webhook request with the GitLab event header it carries.
type delivery struct {
	event   string
	payload hookPayload
}

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	interval, _ := time.ParseDuration(cfg.Interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	client := &http.Client{Timeout: 10 * time.Second}
	for step := 0; ; step++ {
		d := buildDelivery(cfg, step, time.Now())
		if err := sendWebhook(client, cfg, d); err != nil {
			fmt.Fprintln(os.Stderr, "webhook error:", err)
		}
		<-ticker.C
	}
}

func loadConfig(path string) (config, error) {
	if strings.TrimSpace(path) == "" {
		return config{}, fmt.Errorf("config path is required")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("username", "webhook-generator")
	v.SetDefault("start_iid", 1000)
	v.SetDefault("author_id", 1)
	if err := v.ReadInConfig(); err != nil {
		return config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Secret = strings.TrimSpace(cfg.Secret)
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Interval = strings.TrimSpace(cfg.Interval)

	if cfg.BaseURL == "" || cfg.Secret == "" {
		return config{}, fmt.Errorf("config must include base_url, secret")
	}
	if cfg.Interval == "" {
		return config{}, fmt.Errorf("interval must be provided")
	}

	parsed, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return config{}, fmt.Errorf("invalid interval duration: %w", err)
	}
	if parsed <= 0 {
		return config{}, fmt.Errorf("interval must be positive")
	}

	return cfg, nil
}

// buildDelivery cycles each generated issue through open, comment, close and
// reopen before moving to the next iid.
func buildDelivery(cfg config, step int, now time.Time) delivery {
	iid := cfg.StartIID + int64(step/4)
	stamp := now.UTC().Format(gitlabTimeLayout)
	user := hookUser{ID: cfg.AuthorID, Username: cfg.Username, Name: cfg.Username}

	issue := func(action, state string) delivery {
		return delivery{
			event: "Issue Hook",
			payload: hookPayload{
				ObjectKind: "issue",
				User:       user,
				ObjectAttributes: hookAttributes{
					IID:         iid,
					Title:       fmt.Sprintf("Generated issue %d", iid),
					Description: "Created by the webhook generator.",
					State:       state,
					Action:      action,
					AuthorID:    cfg.AuthorID,
					CreatedAt:   stamp,
					UpdatedAt:   stamp,
				},
			},
		}
	}

	switch step % 4 {
	case 0:
		return issue("open", "opened")
	case 1:
		return delivery{
			event: "Note Hook",
			payload: hookPayload{
				ObjectKind: "note",
				User:       user,
				ObjectAttributes: hookAttributes{
					Action:       "create",
					Note:         fmt.Sprintf("Generated comment at %s", stamp),
					NoteableType: "Issue",
					CreatedAt:    stamp,
					UpdatedAt:    stamp,
				},
				Issue: &hookIssue{IID: iid},
			},
		}
	case 2:
		return issue("close", "closed")
	default:
		return issue("reopen", "opened")
	}
}

func sendWebhook(client *http.Client, cfg config, d delivery) error {
	body, err := json.Marshal(d.payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	request, err := http.NewRequestWithContext(context.Background(), http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/webhook", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	request.Header.Set("X-Gitlab-Token", cfg.Secret)
	request.Header.Set("X-Gitlab-Event", d.event)
	request.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook failed: %s", strings.TrimSpace(string(payload)))
	}

	fmt.Printf("Webhook status: %s (%s %s iid %d)\n", resp.Status, d.payload.ObjectKind, d.payload.ObjectAttributes.Action, d.iid())
	return nil
}

func (d delivery) iid() int64 {
	if d.payload.Issue != nil {
		return d.payload.Issue.IID
	}
	return d.payload.ObjectAttributes.IID
}
