package main

import "errors"

// errMissingBotToken возвращается при отсутствии токена бота.
var errMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN is not set")

// errInvalidUserID используется при неверном идентификаторе пользователя.
var errInvalidUserID = errors.New("invalid user_id")

// errInvalidNoteType используется, когда тип заметки не из допустимого набора.
var errInvalidNoteType = errors.New("invalid note type")

// errInvalidDueAt используется при неверном формате срока задачи.
var errInvalidDueAt = errors.New("invalid due_at, expected RFC3339")

// errUnsupportedDatabaseURL возвращается, если DATABASE_URL не указывает на PostgreSQL.
var errUnsupportedDatabaseURL = errors.New("DATABASE_URL must be a postgres:// URL")

// errMissingDBPath возвращается, если не задан путь к файлу SQLite.
var errMissingDBPath = errors.New("DB_PATH is not set")
