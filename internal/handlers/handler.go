// Package handlers turns bot updates into campaign runs.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"creative-automation/internal/audience"
	"creative-automation/internal/campaign"
	"creative-automation/internal/region"
	"creative-automation/internal/session"
	"creative-automation/internal/telegram"
)

const maxRegionResults = 20

type Messenger interface {
	SendTyping(chatID int64)
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) (int, error)
	SendPhoto(chatID int64, data []byte, name, caption string) error
	AnswerCallback(callbackID, text string, alert bool) error
}

type Campaigns interface {
	Generate(ctx context.Context, brief campaign.Brief) (*campaign.Campaign, error)
	ReadAsset(rel string) ([]byte, error)
}

type Options struct {
	Telegram  Messenger
	Campaigns Campaigns
	Resolver  *region.Resolver
	Sessions  *session.Store
	Logger    *slog.Logger
}

type Handler struct {
	tg        Messenger
	campaigns Campaigns
	resolver  *region.Resolver
	sessions  *session.Store
	logger    *slog.Logger
}

var _ Messenger = (*telegram.Client)(nil)

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Handler{
		tg:        opts.Telegram,
		campaigns: opts.Campaigns,
		resolver:  opts.Resolver,
		sessions:  opts.Sessions,
		logger:    logger,
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update telegram.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID
	username := msg.From.UserName

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, userID, username, msg)
	}

	if msg.Text != "" {
		return h.handleText(ctx, chatID, userID, username, msg.Text)
	}

	return nil
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, userID int64, username string, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return h.tg.SendText(chatID,
			"Campaign Generator\n\n"+
				"I turn a short brief into localized, branded ad images in 1:1, 16:9 and 9:16.\n\n"+
				"Commands:\n"+
				"/campaign - Start a new campaign brief\n"+
				"/cancel - Drop the current brief\n"+
				"/regions <query> - Look up supported countries\n"+
				"/audiences - List predefined audiences",
		)
	case "campaign":
		return h.startWizard(chatID, userID, username, msg.CommandArguments())
	case "cancel":
		h.sessions.Clear(userID)
		return h.tg.SendText(chatID, "Brief dropped.")
	case "regions":
		return h.tg.SendText(chatID, h.regionsText(msg.CommandArguments()))
	case "audiences":
		return h.tg.SendText(chatID, audiencesText())
	default:
		return h.tg.SendText(chatID, "Unknown command. Use /help.")
	}
}

func (h *Handler) regionsText(query string) string {
	query = strings.TrimSpace(query)
	countries := h.resolver.Search(query)
	if len(countries) == 0 {
		return fmt.Sprintf("No country matches %q. Unknown regions use %s.",
			query, region.LanguageName(h.resolver.DefaultLanguage()))
	}

	var b strings.Builder
	for i, c := range countries {
		if i == maxRegionResults {
			fmt.Fprintf(&b, "... and %d more, narrow the query.", len(countries)-maxRegionResults)
			break
		}
		fmt.Fprintf(&b, "%s (%s): %s\n", c.Name, c.Code, region.LanguageName(c.Language))
	}
	return strings.TrimSpace(b.String())
}

func audiencesText() string {
	var b strings.Builder
	groups := audience.ByCategory()
	for _, cat := range []string{audience.CategoryProfessions, audience.CategoryDemographics, audience.CategoryInterests} {
		opts := groups[cat]
		if len(opts) == 0 {
			continue
		}
		b.WriteString(cat + ":\n")
		for _, o := range opts {
			fmt.Fprintf(&b, "  %s - %s\n", o.Label, o.Description)
		}
	}
	return strings.TrimSpace(b.String())
}
