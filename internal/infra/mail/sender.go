package mail

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/smtp"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/lead-capture/internal/entity"
)

type sendFunc func(m *gomail.Message) error

const defaultTimeout = 20 * time.Second

func NewEmailSender(host string, port int, user, password, to string, timeout time.Duration) *EmailSender {
	if to == "" {
		to = user
	}
	s := &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		To:       to,
		Timeout:  timeout,
	}
	s.send = s.dialAndSend
	return s
}

// Configured reports whether sender mailbox and credential are present.
func (s *EmailSender) Configured() bool {
	return s.User != "" && s.Password != "" && s.To != ""
}

// Send makes exactly one delivery attempt. It returns false, nil when the
// relay is not configured.
func (s *EmailSender) Send(ctx context.Context, n entity.Notification) (bool, error) {
	if !s.Configured() {
		log.Printf("⚠️ [SMTP] Missing sender or credential; skip send for lead #%d", n.LeadID)
		return false, nil
	}

	m := s.BuildMessage(n)

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- s.send(m) }()

	select {
	case err := <-done:
		if err != nil {
			return false, fmt.Errorf("erro ao enviar email SMTP: %w", err)
		}
		return true, nil
	case <-ctx.Done():
		// a conexão tem deadline própria; a goroutine termina em até Timeout
		return false, fmt.Errorf("envio SMTP abandonado: %w", ctx.Err())
	}
}

func (s *EmailSender) BuildMessage(n entity.Notification) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.User)
	m.SetHeader("To", s.To)
	if n.ReplyTo != "" {
		m.SetHeader("Reply-To", n.ReplyTo)
	}
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Body)

	for _, att := range n.Attachments {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(att.B64))
		if err != nil {
			log.Printf("❌ [SMTP attach] lead #%d: skipping %q: %v", n.LeadID, att.Filename, err)
			continue
		}

		name := attachmentName(att.Filename)

		m.Attach(name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{
				"Content-Type": {attachmentContentType(att.ContentType, name)},
			}),
		)
	}

	return m
}

func attachmentName(filename string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '"' || r == '\\' {
			return -1
		}
		return r
	}, filepath.Base(strings.ReplaceAll(filename, "\\", "/")))

	name = strings.TrimSpace(name)
	switch name {
	case "", ".", "..", "/":
		return "attachment"
	}
	return name
}

// attachmentContentType rebuilds the part header from the parsed media type;
// the client value is never written verbatim.
func attachmentContentType(raw, name string) string {
	ctype, _, err := mime.ParseMediaType(raw)
	if err != nil {
		ctype = "application/octet-stream"
	}
	if h := mime.FormatMediaType(ctype, map[string]string{"name": name}); h != "" {
		return h
	}
	return mime.FormatMediaType("application/octet-stream", map[string]string{"name": name})
}

// dialAndSend usa TLS implícito (SMTPS), nunca STARTTLS. A conexão inteira
// (handshake, AUTH, DATA) fica sob uma única deadline.
func (s *EmailSender) dialAndSend(m *gomail.Message) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	conn, err := tls.DialWithDialer(&net.Dialer{Timeout: timeout}, "tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return fmt.Errorf("falha ao conectar no relay: %w", err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		return fmt.Errorf("falha no greeting SMTP: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(smtp.PlainAuth("", s.User, s.Password, s.Host)); err != nil {
			return fmt.Errorf("falha na autenticação SMTP: %w", err)
		}
	}

	err = gomail.Send(gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		if err := c.Mail(from); err != nil {
			return err
		}
		for _, addr := range to {
			if err := c.Rcpt(addr); err != nil {
				return err
			}
		}
		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := msg.WriteTo(w); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}), m)
	if err != nil {
		return err
	}

	return c.Quit()
}
