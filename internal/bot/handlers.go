package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/omarshaarawi/superliga/internal/models"
	"github.com/omarshaarawi/superliga/internal/service"
)

// Service is the chat-facing side of the standings service.
type Service interface {
	GetStandings(ctx context.Context, league string) (string, error)
	FindTeams(ctx context.Context, text string) (string, error)
	GetTeamSLP(ctx context.Context, name string) (string, error)
	GetTrades(ctx context.Context) (string, error)
	Refresh(ctx context.Context, trigger string) (*models.Report, error)
}

const helpText = "Available commands:\n" +
	"/standings [league] - Overall ranking or one league's table\n" +
	"/team <text> - Find teams by name, owner or league\n" +
	"/slp <team> - Week by week league points of a team\n" +
	"/trades - Latest completed trades\n" +
	"/refresh - Reload every league from Sleeper"

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())
	msg.ParseMode = "Markdown"

	switch command {
	case "start":
		msg.Text = "Welcome to the SuperLiga bot! Use /help to see available commands."
	case "help":
		msg.Text = helpText
	case "standings":
		h.handleStandings(ctx, &msg, args)
	case "team":
		h.handleTeam(ctx, &msg, args)
	case "slp":
		h.handleSLP(ctx, &msg, args)
	case "trades":
		h.handleTrades(ctx, &msg)
	case "refresh":
		h.handleRefresh(ctx, &msg)
	default:
		msg.Text = "Unknown command. Use /help to see available commands."
	}

	return msg
}

func (h *Handler) handleStandings(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	standings, err := h.svc.GetStandings(ctx, args)
	if err != nil {
		msg.Text = fmt.Sprintf("Error fetching standings: %v", err)
	} else {
		msg.Text = standings
	}
}

func (h *Handler) handleTeam(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a search text. Usage: /team <text>"
		return
	}
	result, err := h.svc.FindTeams(ctx, args)
	if err != nil {
		msg.Text = fmt.Sprintf("Error searching teams: %v", err)
	} else {
		msg.Text = result
	}
}

func (h *Handler) handleSLP(ctx context.Context, msg *tgbotapi.MessageConfig, args string) {
	if args == "" {
		msg.Text = "Please provide a team name. Usage: /slp <team name>"
		return
	}
	result, err := h.svc.GetTeamSLP(ctx, args)
	if err != nil {
		msg.Text = fmt.Sprintf("Error fetching league points: %v", err)
	} else {
		msg.Text = result
	}
}

func (h *Handler) handleTrades(ctx context.Context, msg *tgbotapi.MessageConfig) {
	result, err := h.svc.GetTrades(ctx)
	if err != nil {
		msg.Text = fmt.Sprintf("Error fetching trades: %v", err)
	} else {
		msg.Text = result
	}
}

func (h *Handler) handleRefresh(ctx context.Context, msg *tgbotapi.MessageConfig) {
	report, err := h.svc.Refresh(ctx, service.TriggerManual)
	if err != nil {
		msg.Text = fmt.Sprintf("Error refreshing standings: %v", err)
	} else {
		msg.Text = service.FormatRefresh(report)
	}
}
