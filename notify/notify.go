// Package notify delivers outbound email. Delivery is best-effort by
// contract: a failed send is logged and never fails the calling operation.
package notify

import "context"

// SigningRequest is the payload for the email inviting a signer
type SigningRequest struct {
	To            string
	SignerName    string
	SenderName    string
	DocumentTitle string
	SigningURL    string
}

// CompletionNotice is the payload for the email sent once every signer
// has signed
type CompletionNotice struct {
	To            string
	RecipientName string
	DocumentTitle string
	DownloadURL   string
}

// Notifier is the outbound notification sink
type Notifier interface {
	SendSigningRequest(ctx context.Context, req SigningRequest) error
	SendCompletionNotice(ctx context.Context, req CompletionNotice) error
}
