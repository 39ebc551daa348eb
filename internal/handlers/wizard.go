package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"creative-automation/internal/audience"
	"creative-automation/internal/campaign"
	"creative-automation/internal/region"
	"creative-automation/internal/session"
	"creative-automation/internal/variant"
)

const (
	wizardCallbackPrefix = "cw"
	skipAudience         = "skip"
)

func (h *Handler) startWizard(chatID int64, userID int64, username string, args string) error {
	products := session.ParseProducts(args)
	d := h.sessions.Update(userID, username, func(d *session.Draft) {
		*d = session.Draft{UserID: userID, Username: username, Step: session.StepProducts}
		if len(products) > 0 {
			d.Products = products
			d.Step = session.StepRegion
		}
	})
	if d.Step == session.StepRegion {
		return h.tg.SendText(chatID, fmt.Sprintf("Products: %s\n\nWhich region is this campaign for? (e.g. Germany, Quebec, Japan)", strings.Join(d.Products, ", ")))
	}
	return h.tg.SendText(chatID, "New campaign.\n\nWhich products? Separate them with commas, e.g. Safety Helmet, Work Boots")
}

func (h *Handler) handleText(ctx context.Context, chatID int64, userID int64, username string, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	d, ok := h.sessions.Get(userID)
	if !ok || d.Step == session.StepIdle {
		return h.tg.SendText(chatID, "Send /campaign to start a new brief.")
	}

	switch d.Step {
	case session.StepProducts:
		products := session.ParseProducts(text)
		if len(products) == 0 {
			return h.tg.SendText(chatID, "I need at least one product name.")
		}
		h.sessions.Update(userID, username, func(d *session.Draft) {
			d.Products = products
			d.Step = session.StepRegion
		})
		return h.tg.SendText(chatID, "Which region is this campaign for? (e.g. Germany, Quebec, Japan)")

	case session.StepRegion:
		h.sessions.Update(userID, username, func(d *session.Draft) {
			d.Region = text
			d.Step = session.StepAudience
		})
		res := h.resolver.Resolve(text)
		note := fmt.Sprintf("Copy will be in %s.", region.LanguageName(res.Language))
		if !res.Matched {
			note = fmt.Sprintf("I don't know %q, copy stays in %s.", text, region.LanguageName(res.Language))
		}
		_, err := h.tg.SendTextWithKeyboard(chatID, note+"\n\nWho is the audience? Pick one or type your own.", audienceKeyboard(userID))
		return err

	case session.StepAudience:
		return h.setAudience(chatID, userID, username, audience.Describe(text))

	case session.StepMessage:
		d = h.sessions.Update(userID, username, func(d *session.Draft) {
			d.Message = text
			d.Step = session.StepRunning
		})
		return h.run(ctx, chatID, userID, d)

	case session.StepRunning:
		return h.tg.SendText(chatID, "Still generating your campaign, hang on.")
	}
	return nil
}

func (h *Handler) setAudience(chatID int64, userID int64, username string, value string) error {
	h.sessions.Update(userID, username, func(d *session.Draft) {
		d.Audience = value
		d.Step = session.StepMessage
	})
	return h.tg.SendText(chatID, "What is the campaign message? It is overlaid on every image.")
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil || q.From == nil || q.Message.Chat == nil {
		return nil
	}
	parts := strings.Split(strings.TrimSpace(q.Data), ":")
	if len(parts) != 4 || parts[0] != wizardCallbackPrefix || parts[2] != "aud" {
		return nil
	}

	ownerID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil
	}
	if ownerID != q.From.ID {
		_ = h.tg.AnswerCallback(q.ID, "This menu belongs to someone else.", true)
		return nil
	}

	d, ok := h.sessions.Get(ownerID)
	if !ok || d.Step != session.StepAudience {
		_ = h.tg.AnswerCallback(q.ID, "This brief has expired, send /campaign.", false)
		return nil
	}

	value := ""
	if parts[3] != skipAudience {
		o, ok := audience.Get(parts[3])
		if !ok {
			_ = h.tg.AnswerCallback(q.ID, "Unknown audience.", false)
			return nil
		}
		value = audience.Describe(o.ID)
	}
	_ = h.tg.AnswerCallback(q.ID, "", false)
	return h.setAudience(q.Message.Chat.ID, ownerID, q.From.UserName, value)
}

func (h *Handler) run(ctx context.Context, chatID int64, userID int64, d session.Draft) error {
	defer h.sessions.Clear(userID)

	h.tg.SendTyping(chatID)
	_ = h.tg.SendText(chatID, fmt.Sprintf("Generating %d images for %s...", len(d.Products)*3, d.Region))

	p := &productProgress{tg: h.tg, chatID: chatID, per: len(variant.All())}
	c, err := h.campaigns.Generate(campaign.WithProgress(ctx, p.done), campaign.Brief{
		Products: d.Products,
		Region:   d.Region,
		Audience: d.Audience,
		Message:  d.Message,
	})
	if errors.Is(err, campaign.ErrInvalidBrief) {
		return h.tg.SendText(chatID, "The brief is incomplete: "+err.Error()+". Send /campaign to start over.")
	}
	if err != nil {
		h.logger.Error("campaign generation failed", "user_id", userID, "err", err)
		return h.tg.SendText(chatID, "Campaign generation failed. Please try again.")
	}

	produced := c.Produced()
	images := make([][]byte, len(produced))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for i, a := range produced {
		eg.Go(func() error {
			data, err := h.campaigns.ReadAsset(a.Path)
			if err != nil {
				return err
			}
			images[i] = data
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Error("read campaign assets failed", "campaign_id", c.ID, "err", err)
		return h.tg.SendText(chatID, "Images were generated but could not be loaded.")
	}

	for i, a := range produced {
		name := fmt.Sprintf("%s_%d.png", a.Variant, i+1)
		if err := h.tg.SendPhoto(chatID, images[i], name, a.Product+" · "+a.Variant.Ratio()); err != nil {
			return err
		}
	}
	return h.tg.SendText(chatID, summaryText(c))
}

// productProgress posts one line per product once all of its variants have
// finished.
type productProgress struct {
	tg     Messenger
	chatID int64
	per    int

	mu       sync.Mutex
	finished map[string]int
	produced map[string]int
}

func (p *productProgress) done(a campaign.AssetResult) {
	p.mu.Lock()
	if p.finished == nil {
		p.finished = map[string]int{}
		p.produced = map[string]int{}
	}
	p.finished[a.Product]++
	if a.Status == campaign.StatusProduced {
		p.produced[a.Product]++
	}
	finished, produced := p.finished[a.Product], p.produced[a.Product]
	p.mu.Unlock()

	p.tg.SendTyping(p.chatID)
	if finished%p.per == 0 {
		_ = p.tg.SendText(p.chatID, fmt.Sprintf("%s: %d of %d images ready", a.Product, produced, finished))
	}
}

func summaryText(c *campaign.Campaign) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Campaign %s\n%s\n", c.ID, c.Summary())
	fmt.Fprintf(&b, "Language: %s\n", c.Language)
	if c.TranslationFallback {
		b.WriteString("Message: " + c.LocalizedMessage + " (not translated)\n")
	} else {
		b.WriteString("Message: " + c.LocalizedMessage + "\n")
	}
	fmt.Fprintf(&b, "Compliance: %s\n", c.Compliance.Status)
	for _, issue := range c.Compliance.Issues {
		b.WriteString("  - " + issue + "\n")
	}
	for _, a := range c.Assets {
		if a.Status == campaign.StatusFailed {
			fmt.Fprintf(&b, "Failed: %s %s: %s\n", a.Product, a.Variant.Ratio(), a.Error)
		}
	}
	return strings.TrimSpace(b.String())
}

func audienceKeyboard(ownerID int64) tgbotapi.InlineKeyboardMarkup {
	opts := audience.ByCategory()[audience.CategoryProfessions]
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(opts)/2+2)
	for i := 0; i < len(opts); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(opts[i].Label, cb(ownerID, "aud", opts[i].ID)),
		}
		if i+1 < len(opts) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(opts[i+1].Label, cb(ownerID, "aud", opts[i+1].ID)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("General audience", cb(ownerID, "aud", skipAudience)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cb(ownerID int64, parts ...string) string {
	return fmt.Sprintf("%s:%d:%s", wizardCallbackPrefix, ownerID, strings.Join(parts, ":"))
}
