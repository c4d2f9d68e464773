package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wallet-monitor/internal/interfaces"
	"wallet-monitor/internal/report"
	"wallet-monitor/internal/validation"
)

const pollTimeout = 30 * time.Second

// Bot is the chat command interface: a Telegram long-polling loop that
// dispatches /start, /add, /list and /report. It validates input at
// this boundary so malformed addresses never reach the core.
type Bot struct {
	apiBase    string
	token      string
	httpClient *http.Client
	sink       interfaces.ChatSink
	store      interfaces.WalletStore
	registry   interfaces.SubscriberRegistry
	calc       *report.Calculator
	logger     *zerolog.Logger
	offset     int64
}

func New(apiBase, token string, sink interfaces.ChatSink, store interfaces.WalletStore,
	registry interfaces.SubscriberRegistry, calc *report.Calculator, logger *zerolog.Logger) *Bot {
	return &Bot{
		apiBase: apiBase,
		token:   token,
		// Long poll waits up to pollTimeout server-side; allow slack on top.
		httpClient: &http.Client{Timeout: pollTimeout + 10*time.Second},
		sink:       sink,
		store:      store,
		registry:   registry,
		calc:       calc,
		logger:     logger,
	}
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// Run polls for updates until the context is cancelled. Transport
// errors are logged and polling resumes; the loop never terminates on
// upstream failure.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info().Msg("Starting chat command loop")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Stopping chat command loop")
			return
		default:
		}

		updates, err := b.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.logger.Warn().Err(err).Msg("Failed to poll chat updates")
			time.Sleep(5 * time.Second)
			continue
		}

		for _, u := range updates {
			b.offset = u.UpdateID + 1
			if u.Message == nil || u.Message.Text == "" {
				continue
			}
			b.HandleCommand(ctx, u.Message.Chat.ID, u.Message.Text)
		}
	}
}

func (b *Bot) getUpdates(ctx context.Context) ([]update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(b.offset, 10))
	q.Set("timeout", strconv.Itoa(int(pollTimeout.Seconds())))

	endpoint := fmt.Sprintf("%s/bot%s/getUpdates?%s", b.apiBase, b.token, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		OK     bool     `json:"ok"`
		Result []update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode updates: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram getUpdates not ok")
	}
	return result.Result, nil
}

// HandleCommand dispatches a single chat command.
func (b *Bot) HandleCommand(ctx context.Context, chatID int64, text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "/start":
		b.registry.Subscribe(chatID)
		b.reply(ctx, chatID, "Hi! This chat now receives wallet transfer notifications.")
	case "/stop":
		b.registry.Unsubscribe(chatID)
		b.reply(ctx, chatID, "Notifications stopped for this chat.")
	case "/add":
		b.handleAdd(ctx, chatID, fields[1:])
	case "/list":
		b.handleList(ctx, chatID)
	case "/report":
		b.handleReport(ctx, chatID, fields[1:])
	default:
		b.reply(ctx, chatID, "Unknown command. Available: /start /stop /add /list /report")
	}
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		b.reply(ctx, chatID, "Usage: /add <address> <label>")
		return
	}

	address := args[0]
	label := strings.Join(args[1:], " ")

	if err := validation.ValidateAddress(address); err != nil {
		b.reply(ctx, chatID, "❌ Invalid wallet address, please check it.")
		return
	}

	if err := b.store.Put(ctx, validation.Normalize(address), label); err != nil {
		b.logger.Error().Err(err).Str("address", address).Msg("Failed to store wallet")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("✅ Wallet %s registered with address %s.", label, validation.Normalize(address)))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	wallets, err := b.store.List(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to list wallets")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return
	}
	if len(wallets) == 0 {
		b.reply(ctx, chatID, "No wallets registered yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Registered wallets:\n")
	for _, w := range wallets {
		fmt.Fprintf(&sb, "• %s: %s\n", w.Label, w.Address)
	}
	b.reply(ctx, chatID, sb.String())
}

func (b *Bot) handleReport(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		b.reply(ctx, chatID, "Usage: /report <address>")
		return
	}

	address := args[0]
	if err := validation.ValidateAddress(address); err != nil {
		b.reply(ctx, chatID, "❌ Invalid wallet address, please check it.")
		return
	}

	holdings, err := b.calc.ComputeReport(ctx, validation.Normalize(address))
	if err != nil {
		b.logger.Warn().Err(err).Str("address", address).Msg("Report computation failed")
		b.reply(ctx, chatID, "Ledger unavailable right now, please try again later.")
		return
	}
	if len(holdings) == 0 {
		b.reply(ctx, chatID, "No open positions for this address.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Holdings report:\n")
	for _, h := range holdings {
		if h.PriceKnown {
			fmt.Fprintf(&sb, "• %s: %s (P/L $%s)\n", h.Symbol, h.NetAmount.String(), h.ProfitLossUSD.StringFixed(2))
		} else {
			fmt.Fprintf(&sb, "• %s: %s (P/L unknown)\n", h.Symbol, h.NetAmount.String())
		}
	}
	b.reply(ctx, chatID, sb.String())
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.sink.Send(ctx, chatID, text); err != nil {
		b.logger.Warn().Err(err).Int64("chatID", chatID).Msg("Failed to send reply")
	}
}
