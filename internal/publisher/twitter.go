package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/transfer"
)

// TwitterPublisher forwards posts to the app's twitter relay endpoint, which
// owns the Twitter API credentials and media upload.
type TwitterPublisher struct {
	client   *http.Client
	endpoint string
}

func NewTwitterPublisher(client *http.Client, baseURL, publishPath string) *TwitterPublisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &TwitterPublisher{
		client:   client,
		endpoint: strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(publishPath, "/"),
	}
}

func (t *TwitterPublisher) Platform() models.Platform {
	return models.PlatformTwitter
}

func (t *TwitterPublisher) Publish(ctx context.Context, req PublishRequest) error {
	media := make([]transfer.TwitterMediaFile, 0, len(req.MediaFiles))
	for _, mf := range req.MediaFiles {
		media = append(media, transfer.TwitterMediaFile{Path: mf.Path, Type: mf.Type, URL: mf.URL})
	}

	body, err := json.Marshal(transfer.TwitterPublishRequest{
		Content:     req.Content,
		AccessToken: req.Account.AccessToken,
		MediaFiles:  media,
	})
	if err != nil {
		return t.fail(req, 0, fmt.Sprintf("error marshalling payload: %v", err), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return t.fail(req, 0, fmt.Sprintf("error creating request: %v", err), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return t.fail(req, 0, fmt.Sprintf("Failed to post to Twitter: %v", err), err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := fmt.Sprintf("Failed to post to Twitter: %s", http.StatusText(resp.StatusCode))
		var result transfer.TwitterPublishResponse
		if json.Unmarshal(respBody, &result) == nil && result.Error != "" {
			reason += " (" + result.Error + ")"
		}
		return t.fail(req, resp.StatusCode, reason, nil)
	}

	return nil
}

func (t *TwitterPublisher) fail(req PublishRequest, status int, reason string, err error) error {
	return &PublishError{
		Platform:   models.PlatformTwitter,
		AccountID:  req.Account.ID.String(),
		StatusCode: status,
		Reason:     reason,
		Err:        err,
	}
}

var _ Publisher = (*TwitterPublisher)(nil)
