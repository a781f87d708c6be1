package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"taxidispatch/config"
	"taxidispatch/pkg/logger"
	"taxidispatch/pkg/models"
	"taxidispatch/pkg/phone"
	"taxidispatch/service"
	"taxidispatch/storage"
)

type Bot struct {
	Bot      *tele.Bot
	Cfg      *config.Config
	Log      logger.ILogger
	Svc      service.IServiceManager
	Sessions storage.ISessionStorage
}

var messages = map[string]map[string]string{
	"kk": {
		"welcome":        "Сәлем! Такси шақыру үшін төмендегі батырманы басыңыз 👇",
		"cancelled":      "Тапсырыс болдырылмады",
		"ask_category":   "Сапар түрін таңдаңыз:",
		"ask_from":       "Қай жерден кетесіз? (мекенжайды енгізіңіз)",
		"ask_to":         "Қайда барасыз? (мекенжайды енгізіңіз)",
		"ask_price":      "💰 Өзіңіздің баға ұсынысыңызды жазыңыз (теңгемен):\n\n%s\n\n⚠️ Жүргізушілер сіздің бағаңызды көреді және қабылдай алады немесе келіспеуі мүмкін.",
		"price_hint_loc": "Мысал: 500, 700, 1000",
		"price_hint_int": "Мысал: 2000, 3000, 5000",
		"price_low":      "❌ Баға тым аз! Кемінде %d теңге енгізіңіз.",
		"price_high":     "❌ Баға тым жоғары! %d теңгеден аспауы керек.",
		"price_nan":      "❌ Қате формат! Тек санды енгізіңіз.\nМысал: 500",
		"ask_phone":      "Телефон нөміріңізді жіберіңіз:\n\n📱 Қазақстандық нөмір: +7 707/775/701/702/747/705/708/700/776/771/778/706/777\nМысал: +7 701 123 45 67 немесе 8 701 123 45 67",
		"bad_phone":      "❌ Қате нөмір!\n\nҚазақстандық нөмір енгізіңіз:\n+7 707/775/701/702/747/705/708/700/776/771/778/706/777\n\nМысал: +7 701 123 45 67",
		"order_sent":     "✅ Тапсырыс #%d жіберілді!\n\n📌 Сапар түрі: %s\n💰 Сіздің баға ұсынысыңыз: %d ₸\n\n🚕 Тапсырысыңыз жүргізушілерге жіберілді.\nКүтіңіз...",
		"no_orders":      "Сізде тапсырыстар жоқ.",
		"not_found":      "Тапсырыс табылмады",
		"taken":          "Бұл тапсырысты басқа жүргізуші қабылдап қойды.",
		"accepted_ok":    "Тапсырыс қабылданды!",
		"completed_ok":   "Сапар аяқталды!",
		"completed_dup":  "Бұл сапар бұрын аяқталған.",
		"rated_ok":       "Рахмет!",
		"rate_invalid":   "Қате баға. 1 мен 5 арасында таңдаңыз.",
		"error":          "Қателік болды. Қайтадан көріңіз.",
	},
}

func msg(key string) string {
	return messages["kk"][key]
}

const (
	btnCallTaxi = "🚕 Такси шақыру"
	btnMyOrders = "📊 Менің тапсырыстарым"
	btnCancel   = "❌ Болдырмау"
	btnLocal    = "🏙 Қала ішінде"
	btnIntercty = "🌄 Қаладан тыс"
	btnContact  = "📱 Телефонды жіберу"
)

func New(tb *tele.Bot, cfg *config.Config, svc service.IServiceManager, sessions storage.ISessionStorage, log logger.ILogger) *Bot {
	bot := &Bot{
		Bot:      tb,
		Cfg:      cfg,
		Log:      log,
		Svc:      svc,
		Sessions: sessions,
	}
	bot.registerHandlers()
	return bot
}

func NewTelebot(cfg *config.Config) (*tele.Bot, error) {
	pref := tele.Settings{
		Token:  cfg.TelegramBotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	return tele.NewBot(pref)
}

func (b *Bot) Start() {
	b.Log.Info("🤖 Dispatch bot started...")
	b.Bot.Start()
}

func (b *Bot) registerHandlers() {
	b.Bot.Handle("/start", b.handleStart)
	b.Bot.Handle(btnCallTaxi, b.handleOrderStart)
	b.Bot.Handle(btnMyOrders, b.handleMyOrders)
	b.Bot.Handle(btnCancel, b.handleCancel)
	b.Bot.Handle(tele.OnContact, b.handleContact)
	b.Bot.Handle(tele.OnText, b.handleText)

	// Each response affordance is its own typed endpoint.
	b.Bot.Handle(&tele.Btn{Unique: uniqueAccept}, b.handleAccept)
	b.Bot.Handle(&tele.Btn{Unique: uniqueComplete}, b.handleComplete)
	b.Bot.Handle(&tele.Btn{Unique: uniqueRate}, b.handleRate)
}

func (b *Bot) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.Cfg.RequestTimeout)
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()
	_ = b.Sessions.Clear(ctx, c.Sender().ID)
	return c.Send(msg("welcome"), mainMenuKeyboard())
}

func (b *Bot) handleCancel(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()
	_ = b.Sessions.Clear(ctx, c.Sender().ID)
	return c.Send(msg("cancelled"), mainMenuKeyboard())
}

func (b *Bot) handleOrderStart(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	session := &models.Session{UserID: c.Sender().ID, State: models.StateCategory}
	if err := b.Sessions.Save(ctx, session); err != nil {
		return c.Send(msg("error"))
	}
	return c.Send(msg("ask_category"), categoryKeyboard())
}

func (b *Bot) handleMyOrders(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	orders, err := b.Svc.Dispatch().PassengerOrders(ctx, c.Sender().ID)
	if err != nil {
		return c.Send(msg("error"))
	}
	if len(orders) == 0 {
		return c.Send(msg("no_orders"))
	}

	for _, o := range orders {
		txt := fmt.Sprintf("📦 #%d | %s\n📍 %s ➡️ %s\n💰 %d ₸", o.ID, o.Status, o.FromAddr, o.ToAddr, o.Price)
		if o.Rating > 0 {
			txt += fmt.Sprintf("\n⭐ %d", o.Rating)
		}
		if err := c.Send(txt); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleText(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	session, err := b.Sessions.Get(ctx, c.Sender().ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		return c.Send(msg("error"))
	}

	switch session.State {
	case models.StateCategory:
		switch c.Text() {
		case btnLocal:
			session.Category = models.CategoryLocal
		case btnIntercty:
			session.Category = models.CategoryIntercity
		default:
			return c.Send(msg("ask_category"), categoryKeyboard())
		}
		session.State = models.StateFrom
		if err := b.Sessions.Save(ctx, session); err != nil {
			return c.Send(msg("error"))
		}
		return c.Send(msg("ask_from"), cancelKeyboard())

	case models.StateFrom:
		session.FromAddr = c.Text()
		session.State = models.StateTo
		if err := b.Sessions.Save(ctx, session); err != nil {
			return c.Send(msg("error"))
		}
		return c.Send(msg("ask_to"), cancelKeyboard())

	case models.StateTo:
		session.ToAddr = c.Text()
		session.State = models.StatePrice
		if err := b.Sessions.Save(ctx, session); err != nil {
			return c.Send(msg("error"))
		}
		hint := msg("price_hint_loc")
		if session.Category == models.CategoryIntercity {
			hint = msg("price_hint_int")
		}
		return c.Send(fmt.Sprintf(msg("ask_price"), hint), cancelKeyboard())

	case models.StatePrice:
		price, err := strconv.Atoi(strings.TrimSpace(c.Text()))
		if err != nil {
			return c.Send(msg("price_nan"), cancelKeyboard())
		}
		if price < b.Cfg.PriceMin {
			return c.Send(fmt.Sprintf(msg("price_low"), b.Cfg.PriceMin), cancelKeyboard())
		}
		if price > b.Cfg.PriceMax {
			return c.Send(fmt.Sprintf(msg("price_high"), b.Cfg.PriceMax), cancelKeyboard())
		}
		session.Price = price
		session.State = models.StatePhone
		if err := b.Sessions.Save(ctx, session); err != nil {
			return c.Send(msg("error"))
		}
		return c.Send(msg("ask_phone"), phoneKeyboard())

	case models.StatePhone:
		return b.submitOrder(ctx, c, session, c.Text())
	}

	return nil
}

func (b *Bot) handleContact(c tele.Context) error {
	ctx, cancel := b.opCtx()
	defer cancel()

	session, err := b.Sessions.Get(ctx, c.Sender().ID)
	if err != nil || session.State != models.StatePhone {
		return nil
	}
	if c.Message().Contact.UserID != c.Sender().ID {
		return c.Send(msg("bad_phone"), phoneKeyboard())
	}
	return b.submitOrder(ctx, c, session, c.Message().Contact.PhoneNumber)
}

func (b *Bot) submitOrder(ctx context.Context, c tele.Context, session *models.Session, rawPhone string) error {
	normalized, ok := phone.Normalize(rawPhone)
	if !ok {
		return c.Send(msg("bad_phone"), phoneKeyboard())
	}

	order := &models.Order{
		FromAddr:    session.FromAddr,
		ToAddr:      session.ToAddr,
		Price:       session.Price,
		Phone:       normalized,
		PassengerID: c.Sender().ID,
		Category:    session.Category,
	}

	created, err := b.Svc.Dispatch().CreateOrder(ctx, order)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return c.Send(msg("bad_phone"), phoneKeyboard())
		}
		b.Log.Error("failed to create order", logger.Error(err))
		return c.Send(msg("error"))
	}

	_ = b.Sessions.Clear(ctx, c.Sender().ID)
	return c.Send(
		fmt.Sprintf(msg("order_sent"), created.ID, categoryText(created.Category), created.Price),
		mainMenuKeyboard(),
	)
}

func (b *Bot) handleAccept(c tele.Context) error {
	orderID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msg("not_found"), ShowAlert: true})
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	driverName := strings.TrimSpace(c.Sender().FirstName + " " + c.Sender().LastName)
	if driverName == "" {
		driverName = c.Sender().Username
	}

	_, won, err := b.Svc.Dispatch().AcceptAttempt(ctx, orderID, c.Sender().ID, driverName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: msg("not_found"), ShowAlert: true})
		}
		b.Log.Error("accept attempt failed", logger.Int64("order_id", orderID), logger.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: msg("error"), ShowAlert: true})
	}
	if !won {
		return c.Respond(&tele.CallbackResponse{Text: msg("taken"), ShowAlert: true})
	}
	return c.Respond(&tele.CallbackResponse{Text: msg("accepted_ok")})
}

func (b *Bot) handleComplete(c tele.Context) error {
	orderID, err := strconv.ParseInt(c.Data(), 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msg("not_found"), ShowAlert: true})
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	done, err := b.Svc.Dispatch().CompleteAttempt(ctx, orderID)
	if err != nil {
		b.Log.Error("complete attempt failed", logger.Int64("order_id", orderID), logger.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: msg("error"), ShowAlert: true})
	}
	if !done {
		return c.Respond(&tele.CallbackResponse{Text: msg("completed_dup")})
	}
	return c.Respond(&tele.CallbackResponse{Text: msg("completed_ok")})
}

func (b *Bot) handleRate(c tele.Context) error {
	args := c.Args()
	if len(args) != 2 {
		return c.Respond(&tele.CallbackResponse{Text: msg("error")})
	}
	orderID, err1 := strconv.ParseInt(args[0], 10, 64)
	score, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return c.Respond(&tele.CallbackResponse{Text: msg("error")})
	}

	ctx, cancel := b.opCtx()
	defer cancel()

	_, err := b.Svc.Dispatch().RateAttempt(ctx, orderID, score)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			return c.Respond(&tele.CallbackResponse{Text: msg("rate_invalid"), ShowAlert: true})
		}
		if errors.Is(err, models.ErrNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: msg("not_found"), ShowAlert: true})
		}
		b.Log.Error("rate attempt failed", logger.Int64("order_id", orderID), logger.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: msg("error"), ShowAlert: true})
	}
	return c.Respond(&tele.CallbackResponse{Text: msg("rated_ok")})
}

func categoryText(category string) string {
	if category == models.CategoryIntercity {
		return btnIntercty
	}
	return btnLocal
}
