// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SalamNest Contributors

package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"math"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ResetCodeSubject is the subject line of reset code emails.
const ResetCodeSubject = "Your SalamNest password reset code"

// DefaultFrom is used when no sender address is configured.
const DefaultFrom = "no-reply@salamnest.local"

const implicitTLSPort = 465

var resetCodeBody = template.Must(template.New("reset").Parse(
	`Hello,

You requested to reset your password. Use the code below to continue:

    {{.Code}}

This code will expire in {{.Minutes}} minutes.

If you did not request this, you can safely ignore this email.
`))

// SMTPConfig describes the mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough is set to send mail.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0
}

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends reset codes by email.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send sendFunc
}

// NewSMTPNotifier creates an SMTPNotifier.
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if !cfg.Configured() {
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("host", cfg.Host).
			With("port", cfg.Port).
			Errorf("mail host and port are required")
	}
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	n := &SMTPNotifier{cfg: cfg, send: sendSTARTTLS}
	if cfg.Port == implicitTLSPort {
		n.send = sendImplicitTLS
	}
	return n, nil
}

// SendResetCode emails msg.Code to msg.Email.
func (n *SMTPNotifier) SendResetCode(ctx context.Context, msg ResetCode) error {
	body, err := composeResetCode(n.cfg.From, msg)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	if err := n.send(ctx, addr, auth, n.cfg.From, []string{msg.Email}, body); err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("addr", addr).
			With("to", msg.Email).
			Wrap(err)
	}
	return nil
}

func composeResetCode(from string, msg ResetCode) ([]byte, error) {
	if strings.ContainsAny(msg.Email, "\r\n") {
		return nil, oops.Code("MAIL_RECIPIENT_INVALID").Errorf("recipient contains a line break")
	}

	var text bytes.Buffer
	if err := resetCodeBody.Execute(&text, struct {
		Code    string
		Minutes int
	}{
		Code:    msg.Code,
		Minutes: int(math.Ceil(msg.ExpiresIn.Minutes())),
	}); err != nil {
		return nil, oops.Code("MAIL_COMPOSE_FAILED").Wrap(err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", ResetCodeSubject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@salamnest>\r\n", ulid.Make().String())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(text.String(), "\n", "\r\n"))
	return b.Bytes(), nil
}

// sendSTARTTLS uses smtp.SendMail, which upgrades with STARTTLS when offered.
func sendSTARTTLS(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, a, from, to, msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func sendImplicitTLS(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close() //nolint:errcheck // Quit below reports delivery errors

	if a != nil {
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
