package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/notifier"
)

const defaultAPIURL = "https://api.telegram.org"

// Config holds the bot credentials. APIURL is only set in tests.
type Config struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIURL   string `mapstructure:"api_url"`
}

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(cfg Config) (*Telegram, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Telegram{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiURL:   strings.TrimRight(apiURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Send(ctx context.Context, r notifier.Report) error {
	return t.sendMessage(ctx, formatReport(r))
}

func (t *Telegram) SendBatch(ctx context.Context, reports []notifier.Report) error {
	if len(reports) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *%d Backtests*\n\n", len(reports))
	for _, r := range reports {
		fmt.Fprintf(&sb, "%s %s `%s` %+.2f%%", arrow(r.ReturnPct), r.Symbol, r.Preset, r.ReturnPct)
		if len(r.Alerts) > 0 {
			fmt.Fprintf(&sb, " 🚨%d", len(r.Alerts))
		}
		sb.WriteString("\n")
	}

	return t.sendMessage(ctx, sb.String())
}

func arrow(returnPct float64) string {
	if returnPct < 0 {
		return "📉"
	}
	return "📈"
}

func formatReport(r notifier.Report) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s *%s* %+.2f%%\n", arrow(r.ReturnPct), r.Symbol, r.ReturnPct)
	fmt.Fprintf(&sb, "🎯 Strategy: %s (%s)\n", r.Strategy, r.Preset)
	if r.BenchmarkReturnPct != nil {
		fmt.Fprintf(&sb, "⚖️ Buy & Hold: %+.2f%%\n", *r.BenchmarkReturnPct)
	}
	fmt.Fprintf(&sb, "📉 Max DD: %.2f%%  Sharpe: %.2f\n", r.MaxDrawdownPct, r.SharpeRatio)
	fmt.Fprintf(&sb, "🔁 Trades: %d  Win rate: %.1f%%\n", r.Trades, r.WinRate)
	if !r.StartDate.IsZero() {
		fmt.Fprintf(&sb, "⏰ %s to %s\n", r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"))
	}
	for _, a := range r.Alerts {
		fmt.Fprintf(&sb, "🚨 %s\n", a)
	}

	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
