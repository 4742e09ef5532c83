package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/resend/resend-go/v2"
)

// Mailer sends email through Resend. Without an API key it degrades to
// logging the signing URL, which keeps local development working.
type Mailer struct {
	client *resend.Client
	from   string
}

// NewMailer creates a mailer. apiKey may be empty; from is the sender
// address shown to recipients.
func NewMailer(apiKey, from string) *Mailer {
	m := &Mailer{from: from}
	if m.from == "" {
		m.from = "SimpleSign <onboarding@resend.dev>"
	}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey)
	}
	return m
}

// SendSigningRequest emails a signer their personal signing link
func (m *Mailer) SendSigningRequest(ctx context.Context, req SigningRequest) error {
	if m.client == nil {
		log.Printf("mailer not configured, signing URL for %s: %s", req.To, req.SigningURL)
		return nil
	}

	name := req.SignerName
	if name == "" {
		name = req.To
	}

	html := fmt.Sprintf(`<p>Hi %s,</p>
<p><strong>%s</strong> has sent you the document <strong>%q</strong> to sign.</p>
<p><a href="%s">Review and sign</a></p>
<p>Or copy this link into your browser:<br>%s</p>
<p style="color:#9ca3af;font-size:12px">This email was sent via SimpleSign. If you weren't expecting it, you can ignore it.</p>`,
		name, req.SenderName, req.DocumentTitle, req.SigningURL, req.SigningURL)

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{req.To},
		Subject: fmt.Sprintf("%s has sent you a document to sign", req.SenderName),
		Html:    html,
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		// Best effort: the document flow continues regardless.
		log.Printf("failed to send signing request to %s: %v", req.To, err)
	}

	return nil
}

// SendCompletionNotice emails a party that the document is fully signed
func (m *Mailer) SendCompletionNotice(ctx context.Context, req CompletionNotice) error {
	if m.client == nil {
		log.Printf("mailer not configured, completion notice for %s skipped", req.To)
		return nil
	}

	name := req.RecipientName
	if name == "" {
		name = req.To
	}

	download := ""
	if req.DownloadURL != "" {
		download = fmt.Sprintf(`<p><a href="%s">Download document</a></p>`, req.DownloadURL)
	}

	html := fmt.Sprintf(`<p>Hi %s,</p>
<p>The document <strong>%q</strong> has now been signed by all parties.</p>
%s
<p style="color:#9ca3af;font-size:12px">SimpleSign - e-signatures for small businesses</p>`,
		name, req.DocumentTitle, download)

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{req.To},
		Subject: fmt.Sprintf("The document %q has been signed", req.DocumentTitle),
		Html:    html,
	}

	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		log.Printf("failed to send completion notice to %s: %v", req.To, err)
	}

	return nil
}
