package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramBot отвечает за обработку сообщений Telegram.
type TelegramBot struct {
	store    *Store
	token    string
	location *time.Location
	now      func() time.Time
}

// NewTelegramBot создает новый бот с доступом к хранилищу.
func NewTelegramBot(store *Store, token string, location *time.Location) *TelegramBot {
	if location == nil {
		location = time.UTC
	}
	return &TelegramBot{store: store, token: token, location: location, now: time.Now}
}

// Start запускает цикл получения обновлений. Сообщения обрабатываются по одному.
func (b *TelegramBot) Start(ctx context.Context) error {
	if b.token == "" {
		return errMissingBotToken
	}

	bot, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return err
	}

	bot.Debug = false
	log.Printf("Authorized on account %s", bot.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := bot.GetUpdatesChan(updateConfig)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			reply := b.handleMessage(ctx, update.Message.From.ID, update.Message.Text)
			msg := tgbotapi.NewMessage(update.Message.Chat.ID, reply)
			if _, err := bot.Send(msg); err != nil {
				log.Printf("send message error: %v", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// handleMessage маршрутизирует команду или сохраняет текст как идею либо задачу.
func (b *TelegramBot) handleMessage(ctx context.Context, userID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Пришлите задачу или идею. Используйте /help для справки."
	}

	if strings.HasPrefix(text, "/") {
		fields := strings.Fields(text)
		return b.handleCommand(ctx, userID, commandName(fields[0]), fields)
	}

	if idea, ok := parseIdea(text); ok {
		return b.saveIdea(ctx, userID, idea)
	}
	return b.saveTask(ctx, userID, text)
}

// handleCommand выполняет команды бота.
func (b *TelegramBot) handleCommand(ctx context.Context, userID int64, command string, fields []string) string {
	switch command {
	case "/start":
		if _, err := b.store.EnsureUser(ctx, userID); err != nil {
			log.Printf("ensure user %d: %v", userID, err)
		}
		return startMessage()
	case "/help":
		return helpMessage()
	case "/today":
		tasks, err := b.store.ActiveTasks(ctx, userID)
		if err != nil {
			log.Printf("today for user %d: %v", userID, err)
			return "Не удалось получить задачи. Попробуйте позже."
		}
		return formatTodayTasks(tasks, b.location)
	case "/tasks":
		tasks, err := b.store.ActiveTasks(ctx, userID)
		if err != nil {
			log.Printf("tasks for user %d: %v", userID, err)
			return "Не удалось получить задачи. Попробуйте позже."
		}
		return formatTaskList(tasks, b.location)
	case "/ideas":
		notes, err := b.store.Notes(ctx, userID, NoteTypeIdea)
		if err != nil {
			log.Printf("ideas for user %d: %v", userID, err)
			return "Не удалось получить идеи. Попробуйте позже."
		}
		return formatIdeas(notes)
	case "/done":
		return b.handleDone(ctx, userID, fields)
	case "/settings":
		settings, err := b.store.UserSettings(ctx, userID)
		if err != nil {
			log.Printf("settings for user %d: %v", userID, err)
			return "Не удалось получить настройки. Попробуйте позже."
		}
		return formatSettings(settings)
	default:
		return "Неизвестная команда. Используйте /help."
	}
}

// handleDone отмечает задачу пользователя выполненной.
func (b *TelegramBot) handleDone(ctx context.Context, userID int64, fields []string) string {
	if len(fields) < 2 {
		return "Укажите номер задачи: /done 2"
	}
	id, ok := parseID(fields[1])
	if !ok {
		return "Номер задачи должен быть числом: /done 2"
	}
	done, err := b.store.CompleteTask(ctx, userID, id)
	if err != nil {
		log.Printf("done %d for user %d: %v", id, userID, err)
		return "Не удалось обновить задачу. Попробуйте позже."
	}
	if !done {
		return "Активная задача с таким номером не найдена."
	}
	return fmt.Sprintf("Задача #%d выполнена ✅", id)
}

// saveIdea сохраняет идею без префикса.
func (b *TelegramBot) saveIdea(ctx context.Context, userID int64, text string) string {
	if text == "" {
		return "Добавьте текст идеи: идея: запустить рассылку"
	}
	note, err := b.store.AddNote(ctx, userID, text, NoteTypeIdea)
	if err != nil {
		log.Printf("save idea for user %d: %v", userID, err)
		return "Не удалось сохранить идею. Попробуйте позже."
	}
	return fmt.Sprintf("Записал идею #%d:\n«%s» 💡", note.ID, note.Text)
}

// saveTask сохраняет задачу со сроком через два часа от получения.
func (b *TelegramBot) saveTask(ctx context.Context, userID int64, text string) string {
	due := b.now().Add(taskDueOffset)
	task, err := b.store.AddTask(ctx, userID, text, &due)
	if err != nil {
		log.Printf("save task for user %d: %v", userID, err)
		return "Не удалось сохранить задачу. Попробуйте позже."
	}
	return strings.Join([]string{
		fmt.Sprintf("Записал задачу #%d:", task.ID),
		fmt.Sprintf("«%s»", task.Text),
		"Пока считаю дедлайн примерно через 2 часа.",
		"Позже научимся понимать дату/время прямо из текста.",
	}, "\n")
}
