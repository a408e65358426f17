package models

import "time"

// Book представляет книгу каталога.
type Book struct {
	ID        string    // Уникальный идентификатор книги
	Title     string    // Название книги
	Author    string    // Автор
	FileKey   string    // Ключ файла во внешнем хранилище
	CreatedAt time.Time // Момент добавления в каталог
}

// DummyBook используется для приёма данных новой книги из JSON-запроса.
type DummyBook struct {
	Title   string `json:"title" validate:"required,min=2"` // Название книги
	Author  string `json:"author" validate:"required"`      // Автор
	FileKey string `json:"file_key" validate:"required"`    // Ключ файла в хранилище
}
