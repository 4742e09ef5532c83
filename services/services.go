package services

import (
	"github.com/simplesign/simplesign/notify"
	"github.com/simplesign/simplesign/repositories"
	"github.com/simplesign/simplesign/storage"
)

// Services holds all service instances
type Services struct {
	Documents DocumentService
	Signing   SigningService
	Waitlist  WaitlistService
}

// NewServices creates and initializes all service instances.
// appURL is the externally visible base URL used to build signing and
// download links.
func NewServices(repos *repositories.Repositories, blob storage.BlobStore, notifier notify.Notifier, appURL string) *Services {
	return &Services{
		Documents: NewDocumentService(repos, blob, notifier, appURL),
		Signing:   NewSigningService(repos, blob, notifier, appURL),
		Waitlist:  NewWaitlistService(repos.Waitlist),
	}
}
