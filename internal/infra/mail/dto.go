package mail

import "time"

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	To       string
	Timeout  time.Duration

	send sendFunc
}
