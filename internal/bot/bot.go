package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"lookup-bot/internal/config"
	"lookup-bot/internal/model"
	"lookup-bot/internal/repository"
	"lookup-bot/internal/service"
)

const (
	usageNum  = "Usage: /num 9876543210"
	usageAdh  = "Usage: /adh 123412341234"
	usageVec  = "Usage: /vec WB12AB1234"
	usageUpi  = "Usage: /upi name@bank"
	usageIfsc = "Usage: /ifsc SBIN0000001"

	msgGroupOnly      = "❌ This bot works only in the authorized group."
	msgNotAuthorized  = "🚫 You are not authorized to use this bot. Ask the owner for access."
	msgOwnerOnly      = "🚫 Owner only command."
	msgGenericFailure = "⚠️ Something went wrong. Try again later."
)

// Bot aggregates the Telegram API with the lookup and access services.
type Bot struct {
	api       *tgbotapi.BotAPI
	auth      *service.AuthService
	lookups   *service.LookupService
	formatter *service.FormatService
	reports   *service.ReportService
	allowlist *repository.AllowlistRepository
	queryRepo *repository.QueryLogRepository
	config    *config.Config
	log       zerolog.Logger
}

func New(api *tgbotapi.BotAPI, auth *service.AuthService, lookups *service.LookupService, formatter *service.FormatService, reports *service.ReportService, allowlist *repository.AllowlistRepository, queryRepo *repository.QueryLogRepository, cfg *config.Config, log zerolog.Logger) *Bot {
	return &Bot{
		api:       api,
		auth:      auth,
		lookups:   lookups,
		formatter: formatter,
		reports:   reports,
		allowlist: allowlist,
		queryRepo: queryRepo,
		config:    cfg,
		log:       log,
	}
}

// NewAPI authorizes against the Telegram Bot API.
func NewAPI(token string, log zerolog.Logger) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")
	return api, nil
}

// Start begins polling updates until ctx is cancelled. Each update runs
// in its own goroutine so one slow upstream never blocks other callers.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		go b.handleUpdate(ctx, update)
	}

	return nil
}

// handleUpdate is the outermost boundary: nothing escapes it, so a single
// broken command can never stop the poll loop.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var chatID int64

	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Msg("handler panicked")
			if chatID != 0 {
				_ = b.sendText(chatID, msgGenericFailure)
			}
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		if err := b.handleCallback(update.CallbackQuery); err != nil {
			b.log.Error().Err(err).Msg("handle callback")
		}
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
			return
		}
		chatID = msg.Chat.ID
		b.log.Info().
			Int64("user", msg.From.ID).
			Str("command", msg.Command()).
			Msg("command received")
		if err := b.handleCommand(ctx, msg); err != nil {
			b.log.Error().Err(err).Str("command", msg.Command()).Msg("handle command")
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "num":
		return b.handleRawLookup(ctx, msg, "num", usageNum, service.PhoneURLTemplate)
	case "adh":
		return b.handleRawLookup(ctx, msg, "adh", usageAdh, service.AadhaarURLTemplate)
	case "vec":
		return b.handleVehicle(ctx, msg)
	case "upi":
		return b.handleUPI(ctx, msg)
	case "ifsc":
		return b.handleIFSC(ctx, msg)
	case "adduser":
		return b.handleAddUser(msg)
	case "removeuser":
		return b.handleRemoveUser(msg)
	case "listusers":
		return b.handleListUsers(msg)
	case "stats":
		return b.handleStats(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

// ================= MENU =================

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📱 Number Info", "num")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🆔 Aadhaar Info", "adh")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚗 Vehicle Info", "vec")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💳 UPI Info", "upi")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🏦 IFSC Info", "ifsc")),
	)

	reply := tgbotapi.NewMessage(msg.Chat.ID, "🔍 Select search option:")
	reply.ReplyMarkup = keyboard
	_, err := b.api.Send(reply)
	return err
}

var menuHints = map[string]string{
	"num":  "📱 Use:\n" + usageNum,
	"adh":  "🆔 Use:\n" + usageAdh,
	"vec":  "🚗 Use:\n" + usageVec,
	"upi":  "💳 Use:\n" + usageUpi,
	"ifsc": "🏦 Use:\n" + usageIfsc,
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}

	hint, ok := menuHints[cb.Data]
	if !ok {
		hint = "Invalid option"
	}
	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, hint)
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ Commands:\n" +
		"• /num <number> — phone number info\n" +
		"• /adh <id> — Aadhaar info\n" +
		"• /vec <rc> — vehicle registration info\n" +
		"• /upi <id> — UPI handle info\n" +
		"• /ifsc <code> — bank branch info"
	if b.auth.IsOwner(msg.From.ID) {
		text += "\n\nOwner:\n" +
			"• /adduser <id> · /removeuser <id> · /listusers\n" +
			"• /stats — usage for the last 24h"
	}
	return b.sendText(msg.Chat.ID, text)
}

// ================= AUTH =================

// authorize runs the full gate and answers the caller on denial.
func (b *Bot) authorize(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	userID := msg.From.ID

	// The bot serves exactly one group; other groups are rejected outright.
	if !b.auth.IsOwner(userID) && !msg.Chat.IsPrivate() && b.config.GroupID != 0 && msg.Chat.ID != b.config.GroupID {
		return false, b.sendText(msg.Chat.ID, msgGroupOnly)
	}

	kind := service.ChatGroup
	if msg.Chat.IsPrivate() {
		kind = service.ChatPrivate
	}

	decision := b.auth.Check(ctx, userID, kind)
	if decision.Allowed {
		return true, nil
	}

	switch decision.Reason {
	case service.DenyNotOwnerInPrivateChat:
		return false, b.sendText(msg.Chat.ID, msgGroupOnly)
	case service.DenyChannelMembershipRequired:
		return false, b.sendText(msg.Chat.ID, fmt.Sprintf("🚫 Join %s first to use this bot.", b.config.Channel))
	default:
		return false, b.sendText(msg.Chat.ID, msgNotAuthorized)
	}
}

// ================= LOOKUPS =================

func (b *Bot) handleRawLookup(ctx context.Context, msg *tgbotapi.Message, command, usage, urlTemplate string) error {
	ok, err := b.authorize(ctx, msg)
	if !ok {
		return err
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, usage)
	}

	body, err := b.lookups.Fetch(ctx, urlTemplate, arg)
	b.record(ctx, msg, command, arg, err)
	if err != nil {
		return b.sendText(msg.Chat.ID, b.formatter.Error(err, b.auth.IsOwner(msg.From.ID)))
	}
	return b.sendText(msg.Chat.ID, b.formatter.Raw(body))
}

func (b *Bot) handleVehicle(ctx context.Context, msg *tgbotapi.Message) error {
	ok, err := b.authorize(ctx, msg)
	if !ok {
		return err
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, usageVec)
	}

	fields, err := b.lookups.FetchJSON(ctx, service.VehicleURLTemplate, arg)
	b.record(ctx, msg, "vec", arg, err)
	if err != nil {
		return b.sendText(msg.Chat.ID, b.formatter.Error(err, b.auth.IsOwner(msg.From.ID)))
	}
	return b.sendText(msg.Chat.ID, b.formatter.Vehicle(fields))
}

func (b *Bot) handleUPI(ctx context.Context, msg *tgbotapi.Message) error {
	ok, err := b.authorize(ctx, msg)
	if !ok {
		return err
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, usageUpi)
	}

	info, err := service.ParseUPI(arg)
	b.record(ctx, msg, "upi", arg, err)
	if err != nil {
		return b.sendText(msg.Chat.ID, b.formatter.Error(err, b.auth.IsOwner(msg.From.ID)))
	}
	return b.sendText(msg.Chat.ID, b.formatter.UPI(info))
}

func (b *Bot) handleIFSC(ctx context.Context, msg *tgbotapi.Message) error {
	ok, err := b.authorize(ctx, msg)
	if !ok {
		return err
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return b.sendText(msg.Chat.ID, usageIfsc)
	}

	fields, err := b.lookups.IFSCInfo(ctx, arg)
	b.record(ctx, msg, "ifsc", arg, err)
	if err != nil {
		return b.sendText(msg.Chat.ID, b.formatter.Error(err, b.auth.IsOwner(msg.From.ID)))
	}
	return b.sendText(msg.Chat.ID, b.formatter.IFSC(fields))
}

// ================= OWNER =================

func (b *Bot) handleAddUser(msg *tgbotapi.Message) error {
	if !b.auth.IsOwner(msg.From.ID) {
		return b.sendText(msg.Chat.ID, msgOwnerOnly)
	}

	id, ok, err := b.parseUserID(msg)
	if !ok {
		return err
	}

	added, err := b.allowlist.Add(id)
	if err != nil {
		// Reported to the owner only; the process keeps running.
		return b.sendText(msg.Chat.ID, fmt.Sprintf("⚠️ Added in memory but failed to persist: %v", err))
	}
	if !added {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("User %d is already in the allow-list.", id))
	}
	b.log.Info().Int64("user", id).Msg("allowlist add")
	return b.sendText(msg.Chat.ID, fmt.Sprintf("✅ User %d added to the allow-list.", id))
}

func (b *Bot) handleRemoveUser(msg *tgbotapi.Message) error {
	if !b.auth.IsOwner(msg.From.ID) {
		return b.sendText(msg.Chat.ID, msgOwnerOnly)
	}

	id, ok, err := b.parseUserID(msg)
	if !ok {
		return err
	}

	// The owner bypass is identity-based and never stored, so the owner
	// cannot be locked out through this path.
	if b.auth.IsOwner(id) {
		return b.sendText(msg.Chat.ID, "The owner is always authorized and cannot be removed.")
	}

	removed, err := b.allowlist.Remove(id)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("⚠️ Removed in memory but failed to persist: %v", err))
	}
	if !removed {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("User %d is not in the allow-list.", id))
	}
	b.log.Info().Int64("user", id).Msg("allowlist remove")
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 User %d removed from the allow-list.", id))
}

func (b *Bot) handleListUsers(msg *tgbotapi.Message) error {
	if !b.auth.IsOwner(msg.From.ID) {
		return b.sendText(msg.Chat.ID, msgOwnerOnly)
	}

	ids := b.allowlist.List()
	if len(ids) == 0 {
		return b.sendText(msg.Chat.ID, "The allow-list is empty.")
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("👥 Authorized users (%d):\n", len(ids)))
	for _, id := range ids {
		builder.WriteString(fmt.Sprintf("• %d\n", id))
	}
	return b.sendText(msg.Chat.ID, strings.TrimRight(builder.String(), "\n"))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	if !b.auth.IsOwner(msg.From.ID) {
		return b.sendText(msg.Chat.ID, msgOwnerOnly)
	}

	text, err := b.reports.UsageSummary(ctx, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("⚠️ Could not build stats: %v", err))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) parseUserID(msg *tgbotapi.Message) (int64, bool, error) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		return 0, false, b.sendText(msg.Chat.ID, fmt.Sprintf("Usage: /%s <user id>", msg.Command()))
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, false, b.sendText(msg.Chat.ID, "User id must be a number.")
	}
	return id, true, nil
}

// ================= REPORT =================

// SendDailyReport pushes the usage summary to the owner chat.
func (b *Bot) SendDailyReport(ctx context.Context) error {
	if b.config.OwnerID == 0 {
		return nil
	}
	text, err := b.reports.UsageSummary(ctx, time.Now())
	if err != nil {
		return err
	}
	return b.sendText(b.config.OwnerID, text)
}

// ================= HELPERS =================

func (b *Bot) record(ctx context.Context, msg *tgbotapi.Message, command, arg string, lookupErr error) {
	if b.queryRepo == nil {
		return
	}
	entry := &model.QueryLog{
		UserID:   msg.From.ID,
		ChatID:   msg.Chat.ID,
		Command:  command,
		Argument: arg,
		Outcome:  outcome(lookupErr),
	}
	if err := b.queryRepo.Record(ctx, entry); err != nil {
		b.log.Warn().Err(err).Msg("record query")
	}
}

func outcome(err error) string {
	var statusErr *service.UpstreamStatusError
	var transportErr *service.TransportError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, service.ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, service.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, service.ErrInvalidFormat):
		return "invalid_format"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("http_%d", statusErr.Status)
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "error"
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
