package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	config "github.com/maheshrc27/creatortask/configs"
	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/storage"
)

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrAccountNotFound     = errors.New("account not found")
)

type PublishRequest struct {
	Content    string
	Account    *models.SocialAccount
	MediaFiles models.MediaFiles
}

// Publisher delivers one post to one connected account. Implementations must
// not mutate the request and report every failure as a *PublishError.
type Publisher interface {
	Platform() models.Platform
	Publish(ctx context.Context, req PublishRequest) error
}

// PublishError carries the human-readable reason stored on a failed post.
type PublishError struct {
	Platform   models.Platform
	AccountID  string
	StatusCode int
	Reason     string
	Err        error
}

func (e *PublishError) Error() string {
	return e.Reason
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func UnsupportedPlatform(accountID string, platform models.Platform) *PublishError {
	return &PublishError{
		Platform:  platform,
		AccountID: accountID,
		Reason:    fmt.Sprintf("unsupported platform %s", platform),
		Err:       ErrUnsupportedPlatform,
	}
}

func AccountNotFound(accountID string) *PublishError {
	return &PublishError{
		AccountID: accountID,
		Reason:    fmt.Sprintf("account %s not found", accountID),
		Err:       ErrAccountNotFound,
	}
}

// Registry maps a platform tag to its publisher.
type Registry struct {
	publishers map[models.Platform]Publisher
}

func NewRegistry(publishers ...Publisher) *Registry {
	m := make(map[models.Platform]Publisher, len(publishers))
	for _, p := range publishers {
		m[p.Platform()] = p
	}
	return &Registry{publishers: m}
}

func (r *Registry) Lookup(platform models.Platform) (Publisher, bool) {
	p, ok := r.publishers[platform]
	return p, ok
}

func (r *Registry) Platforms() []models.Platform {
	platforms := make([]models.Platform, 0, len(r.publishers))
	for p := range r.publishers {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}

// NewPlatformRegistry registers every supported platform, configured from cfg.
// The Twitter and Instagram publishers share one client bounded by the
// dispatch publish timeout.
func NewPlatformRegistry(cfg *config.Config, media storage.Storage) *Registry {
	client := &http.Client{Timeout: cfg.Dispatch.PublishTimeout}
	return NewRegistry(
		NewTwitterPublisher(client, cfg.AppBaseURL, cfg.TwitterPublishPath),
		NewInstagramPublisher(client, cfg.InstagramGraphURL, cfg.R2.PublicURL),
		NewYoutubePublisher(media),
	)
}
