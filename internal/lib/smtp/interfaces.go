// Package smtp отвечает за отправку почтовых уведомлений: подключение
// к SMTP-серверу и интерфейсы, через которые сервис рассылки шлет
// письма об одобренных заявках.
package smtp

import "io"

// Client минимальный набор операций SMTP-сессии, нужный для отправки письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает SMTP-сессии и знает адрес отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
