package bot

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"taxidispatch/config"
	"taxidispatch/pkg/logger"
	"taxidispatch/pkg/models"
	"taxidispatch/service"
)

// telegramNotifier delivers dispatch notices over Telegram: the driver pool
// lives in one group chat, passengers and winning drivers get direct messages.
type telegramNotifier struct {
	bot *tele.Bot
	cfg *config.Config
	log logger.ILogger
}

func NewNotifier(tb *tele.Bot, cfg *config.Config, log logger.ILogger) service.Notifier {
	return &telegramNotifier{bot: tb, cfg: cfg, log: log}
}

func (n *telegramNotifier) BroadcastNew(_ context.Context, order *models.Order) (int64, int, error) {
	text := fmt.Sprintf(
		"🚕 Жаңа тапсырыс #%d\n📌 Түрі: %s\n\n📍 Қайдан: %s\n📍 Қайда: %s\n💰 Клиент ұсынысы: %d ₸\n📱 Телефон: %s\n\n⚠️ Клиент өз бағасын ұсынды. Келіссеңіз - қабылдаңыз!",
		order.ID, categoryText(order.Category), order.FromAddr, order.ToAddr, order.Price, order.Phone,
	)
	msg, err := n.bot.Send(&tele.Chat{ID: n.cfg.DriverGroupID}, text, acceptKeyboard(order.ID))
	if err != nil {
		return 0, 0, err
	}
	return msg.Chat.ID, msg.ID, nil
}

func (n *telegramNotifier) EditBroadcast(_ context.Context, order *models.Order, driverName string) error {
	if order.BroadcastMessageID == 0 {
		// The broadcast never went out, nothing to edit.
		return nil
	}
	text := fmt.Sprintf(
		"✅ Тапсырыс #%d қабылданды\n🚗 Жүргізуші: %s\n📌 Түрі: %s\n\n📍 Қайдан: %s\n📍 Қайда: %s\n💰 Бағасы: %d ₸",
		order.ID, driverName, categoryText(order.Category), order.FromAddr, order.ToAddr, order.Price,
	)
	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(order.BroadcastMessageID),
		ChatID:    order.BroadcastChatID,
	}
	_, err := n.bot.Edit(stored, text)
	return err
}

func (n *telegramNotifier) NotifyDriver(_ context.Context, order *models.Order) error {
	if order.DriverID == nil {
		return nil
	}
	text := fmt.Sprintf(
		"✅ Сіз тапсырысты қабылдадыңыз #%d\n📌 Түрі: %s\n\n📍 Қайдан: %s\n📍 Қайда: %s\n💰 Бағасы: %d ₸\n📱 Клиенттің телефоны: %s",
		order.ID, categoryText(order.Category), order.FromAddr, order.ToAddr, order.Price, order.Phone,
	)
	_, err := n.bot.Send(&tele.User{ID: *order.DriverID}, text, completeKeyboard(order.ID))
	return err
}

func (n *telegramNotifier) NotifyPassenger(_ context.Context, order *models.Order, driverName string) error {
	text := fmt.Sprintf(
		"✅ Жүргізуші табылды!\n🚗 %s\n💰 Баға: %d ₸\n\nЖүргізуші жолда...",
		driverName, order.Price,
	)
	_, err := n.bot.Send(&tele.User{ID: order.PassengerID}, text)
	return err
}

func (n *telegramNotifier) NotifyLoser(_ context.Context, driverID, orderID int64) error {
	text := fmt.Sprintf("Тапсырыс #%d басқа жүргізушіге кетті.", orderID)
	_, err := n.bot.Send(&tele.User{ID: driverID}, text)
	return err
}

func (n *telegramNotifier) AckDriver(_ context.Context, driverID, orderID int64) error {
	text := fmt.Sprintf("✅ Сапар #%d аяқталды! Рахмет!", orderID)
	_, err := n.bot.Send(&tele.User{ID: driverID}, text)
	return err
}

func (n *telegramNotifier) PromptRating(_ context.Context, order *models.Order) error {
	text := "✅ Сіздің сапарыңыз аяқталды!\nЖүргізушіні бағалаңыз:"
	_, err := n.bot.Send(&tele.User{ID: order.PassengerID}, text, ratingKeyboard(order.ID))
	return err
}

func (n *telegramNotifier) AckRating(_ context.Context, order *models.Order, score int, applied bool) error {
	_, err := n.bot.Send(&tele.User{ID: order.PassengerID}, ratingAckText(order, score, applied))
	return err
}

func ratingAckText(order *models.Order, score int, applied bool) string {
	if applied {
		return fmt.Sprintf("⭐ Рахмет! Сіз жүргізушіні %d ⭐ деп бағаладыңыз.", score)
	}
	if order.Rating > 0 {
		return fmt.Sprintf("Тапсырыс #%d бұрын бағаланған.", order.ID)
	}
	return fmt.Sprintf("Тапсырыс #%d әлі аяқталған жоқ, бағалау қабылданбады.", order.ID)
}
