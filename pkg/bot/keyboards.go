package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v3"
)

const (
	uniqueAccept   = "accept"
	uniqueComplete = "complete"
	uniqueRate     = "rate"
)

func mainMenuKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnCallTaxi)),
		menu.Row(menu.Text(btnMyOrders)),
	)
	return menu
}

func categoryKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnLocal)),
		menu.Row(menu.Text(btnIntercty)),
		menu.Row(menu.Text(btnCancel)),
	)
	return menu
}

func cancelKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(btnCancel)))
	return menu
}

func phoneKeyboard() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Contact(btnContact)),
		menu.Row(menu.Text(btnCancel)),
	)
	return menu
}

func acceptKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data("🚕 Қабылдау", uniqueAccept, strconv.FormatInt(orderID, 10))))
	return menu
}

func completeKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data("✅ Сапар аяқталды", uniqueComplete, strconv.FormatInt(orderID, 10))))
	return menu
}

func ratingKeyboard(orderID int64) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	row := tele.Row{}
	for i := 1; i <= 5; i++ {
		row = append(row, menu.Data(
			strconv.Itoa(i)+"⭐", uniqueRate,
			strconv.FormatInt(orderID, 10), strconv.Itoa(i),
		))
	}
	menu.Inline(row)
	return menu
}
