// Package telegram delivers run digests via the Telegram Bot API. It formats
// the top event clusters and the latest trend direction into a
// human-readable message and handles delivery with retry logic.
//
// The client supports MarkdownV2 formatting and includes error handling for
// common Telegram API issues like rate limiting and network failures.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgaraujo/newstrend/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxDigestClusters caps how many clusters one digest lists.
const maxDigestClusters = 5

// Client handles Telegram digest delivery
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendDigest sends a digest of the run's clusters and trend signal.
func (c *Client) SendDigest(asset string, clusters []models.Cluster, signal models.TrendSignal) error {
	message := formatDigest(asset, clusters, signal)

	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send digest after %d retries: %w", c.maxRetries, lastErr)
}

// formatDigest renders the digest body. Clusters arrive ordered by first
// report time; the digest lists the most corroborated ones first.
func formatDigest(asset string, clusters []models.Cluster, signal models.TrendSignal) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📰 *News digest: %s*\n\n", escapeMarkdownV2(asset)))

	if len(signal) > 0 {
		latest := signal[len(signal)-1]
		emoji := "➡️"
		switch latest.Direction {
		case models.DirectionUp:
			emoji = "📈"
		case models.DirectionDown:
			emoji = "📉"
		}
		scoreStr := escapeMarkdownV2(fmt.Sprintf("%.2f", latest.Score))
		dateStr := escapeMarkdownV2(latest.Window.Format("2006-01-02"))
		sb.WriteString(fmt.Sprintf("%s Trend %s, activity score %s \\(window %s\\)\n\n",
			emoji, escapeMarkdownV2(string(latest.Direction)), scoreStr, dateStr))
	}

	shown := topClusters(clusters)
	sb.WriteString(fmt.Sprintf("🗞 *%d events from %d articles*\n\n", len(clusters), totalArticles(clusters)))

	for i, cl := range shown {
		dateStr := escapeMarkdownV2(cl.FirstReport.Format("2006-01-02 15:04"))
		headline := escapeMarkdownV2(firstLine(cl.CombinedText))
		sb.WriteString(fmt.Sprintf("%d\\. %s\n", i+1, headline))
		sb.WriteString(fmt.Sprintf("   🔗 %d articles, %d sources, first reported %s\n\n",
			cl.Size(), cl.SourceCount(), dateStr))
	}

	return sb.String()
}

// topClusters returns up to maxDigestClusters clusters, the most
// corroborated first; ties keep their first-report order.
func topClusters(clusters []models.Cluster) []models.Cluster {
	sorted := make([]models.Cluster, len(clusters))
	copy(sorted, clusters)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].SourceCount() > sorted[j-1].SourceCount(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	if len(sorted) > maxDigestClusters {
		sorted = sorted[:maxDigestClusters]
	}
	return sorted
}

func totalArticles(clusters []models.Cluster) int {
	n := 0
	for i := range clusters {
		n += clusters[i].Size()
	}
	return n
}

// firstLine returns the first non-empty line of the combined cluster text,
// which by construction is the earliest member's title when one exists.
func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			if runes := []rune(line); len(runes) > 120 {
				return string(runes[:120]) + "…"
			}
			return line
		}
	}
	return "(no headline)"
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var sb strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			sb.WriteByte('\\')
		}
		sb.WriteRune(char)
	}
	return sb.String()
}
