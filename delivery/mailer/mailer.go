package mailer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/raportyapp/raporty/report"
)

// Destination delivers artifacts over SMTP. Text reports become the
// mail body, workbook exports are attached base64-encoded.
type Destination struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string
	useTLS   bool
}

// New creates an SMTP destination
func New(host string, port int, username, password, from string, to []string) *Destination {
	return &Destination{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		useTLS:   true,
	}
}

// Deliver sends the artifact as an email
func (d *Destination) Deliver(ctx context.Context, artifact *report.Artifact) error {
	content := d.buildMessage(artifact)
	addr := fmt.Sprintf("%s:%d", d.host, d.port)
	auth := smtp.PlainAuth("", d.username, d.password, d.host)

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, d.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if d.useTLS {
		if err = client.StartTLS(&tls.Config{ServerName: d.host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err = client.Mail(d.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, recipient := range d.to {
		if err = client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", recipient, err)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}

	if _, err = writer.Write([]byte(content)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write message content: %w", err)
	}
	return writer.Close()
}

// buildMessage renders the MIME message for an artifact
func (d *Destination) buildMessage(artifact *report.Artifact) string {
	var content strings.Builder

	content.WriteString(fmt.Sprintf("From: %s\r\n", d.from))
	content.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(d.to, ", ")))
	content.WriteString(fmt.Sprintf("Subject: Raport %s\r\n", artifact.GeneratedAt.Format("02.01.2006")))
	content.WriteString("MIME-Version: 1.0\r\n")

	if strings.HasPrefix(artifact.ContentType, "text/plain") {
		content.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		content.WriteString("\r\n")
		content.Write(artifact.Content)
		return content.String()
	}

	boundary := "raporty-" + artifact.Checksum[:16]
	content.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n", boundary))
	content.WriteString("\r\n")

	content.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	content.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	content.WriteString("\r\n")
	content.WriteString(fmt.Sprintf("Eksport raportów: %s\r\n", artifact.Filename))

	content.WriteString(fmt.Sprintf("\r\n--%s\r\n", boundary))
	content.WriteString(fmt.Sprintf("Content-Type: %s\r\n", artifact.ContentType))
	content.WriteString("Content-Transfer-Encoding: base64\r\n")
	content.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", artifact.Filename))
	content.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString(artifact.Content)
	for len(encoded) > 76 {
		content.WriteString(encoded[:76] + "\r\n")
		encoded = encoded[76:]
	}
	content.WriteString(encoded + "\r\n")
	content.WriteString(fmt.Sprintf("\r\n--%s--\r\n", boundary))
	return content.String()
}

// Name returns the destination identifier
func (d *Destination) Name() string { return "mailer" }

// Type returns the channel type
func (d *Destination) Type() string { return "mailer" }

// Validate validates the destination configuration
func (d *Destination) Validate() error {
	if d.host == "" {
		return fmt.Errorf("host is required")
	}
	if d.port <= 0 {
		return fmt.Errorf("port must be positive")
	}
	if d.from == "" {
		return fmt.Errorf("from address is required")
	}
	if len(d.to) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	return nil
}
