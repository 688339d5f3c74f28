package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/transfer"
)

const (
	instagramCarouselLimit  = 10
	instagramStatusFinished = "FINISHED"
	instagramStatusError    = "ERROR"
)

// InstagramPublisher posts through the Instagram Graph API: one media container
// per attachment, a carousel container when there are several, then media_publish.
type InstagramPublisher struct {
	client       *http.Client
	graphURL     string
	publicURL    string
	pollInterval time.Duration
	pollAttempts int
}

func NewInstagramPublisher(client *http.Client, graphURL, mediaPublicURL string) *InstagramPublisher {
	if client == nil {
		client = http.DefaultClient
	}
	return &InstagramPublisher{
		client:       client,
		graphURL:     strings.TrimRight(graphURL, "/"),
		publicURL:    mediaPublicURL,
		pollInterval: 3 * time.Second,
		pollAttempts: 20,
	}
}

func (s *InstagramPublisher) Platform() models.Platform {
	return models.PlatformInstagram
}

func (s *InstagramPublisher) Publish(ctx context.Context, req PublishRequest) error {
	switch n := len(req.MediaFiles); {
	case n == 0:
		return s.fail(req, 0, "instagram requires at least one media file", nil)
	case n > instagramCarouselLimit:
		return s.fail(req, 0, fmt.Sprintf("instagram carousels allow at most %d media files", instagramCarouselLimit), nil)
	}

	accountID := req.Account.AccountID
	token := req.Account.AccessToken

	var creationID string
	if len(req.MediaFiles) == 1 {
		container, err := s.mediaContainer(req, req.MediaFiles[0], false)
		if err != nil {
			return err
		}
		container.Caption = req.Content
		creationID, err = s.createContainer(ctx, req, accountID, container)
		if err != nil {
			return err
		}
	} else {
		children := make([]string, 0, len(req.MediaFiles))
		for _, mf := range req.MediaFiles {
			container, err := s.mediaContainer(req, mf, true)
			if err != nil {
				return err
			}
			id, err := s.createContainer(ctx, req, accountID, container)
			if err != nil {
				return err
			}
			children = append(children, id)
		}

		var err error
		creationID, err = s.createContainer(ctx, req, accountID, transfer.InstagramMediaContainer{
			MediaType:   "CAROUSEL",
			Caption:     req.Content,
			Children:    children,
			AccessToken: token,
		})
		if err != nil {
			return err
		}
	}

	return s.publishContainer(ctx, req, accountID, creationID)
}

func (s *InstagramPublisher) mediaContainer(req PublishRequest, mf models.MediaFile, carouselItem bool) (transfer.InstagramMediaContainer, error) {
	container := transfer.InstagramMediaContainer{
		IsCarouselItem: carouselItem,
		AccessToken:    req.Account.AccessToken,
	}

	switch mediaKind(mf) {
	case mediaImage:
		container.ImageURL = mediaURL(s.publicURL, mf)
	case mediaVideo:
		container.VideoURL = mediaURL(s.publicURL, mf)
		if carouselItem {
			container.MediaType = "VIDEO"
		} else {
			container.MediaType = "REELS"
		}
	default:
		return container, s.fail(req, 0, fmt.Sprintf("unsupported media type for %s", mf.Path), nil)
	}
	return container, nil
}

func (s *InstagramPublisher) createContainer(ctx context.Context, req PublishRequest, accountID string, container transfer.InstagramMediaContainer) (string, error) {
	var result transfer.InstagramIDResponse
	endpoint := fmt.Sprintf("%s/%s/media", s.graphURL, url.PathEscape(accountID))
	if err := s.post(ctx, req, endpoint, container, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", s.fail(req, 0, "no media ID returned from Instagram", nil)
	}

	if container.VideoURL != "" {
		if err := s.waitForContainer(ctx, req, result.ID); err != nil {
			return "", err
		}
	}
	return result.ID, nil
}

func (s *InstagramPublisher) publishContainer(ctx context.Context, req PublishRequest, accountID, creationID string) error {
	var result transfer.InstagramIDResponse
	endpoint := fmt.Sprintf("%s/%s/media_publish", s.graphURL, url.PathEscape(accountID))
	return s.post(ctx, req, endpoint, transfer.InstagramPublishRequest{
		CreationID:  creationID,
		AccessToken: req.Account.AccessToken,
	}, &result)
}

// waitForContainer polls a video container until Instagram has finished processing it.
func (s *InstagramPublisher) waitForContainer(ctx context.Context, req PublishRequest, containerID string) error {
	query := url.Values{}
	query.Set("fields", "status_code")
	query.Set("access_token", req.Account.AccessToken)
	endpoint := fmt.Sprintf("%s/%s?%s", s.graphURL, url.PathEscape(containerID), query.Encode())

	for attempt := 0; attempt < s.pollAttempts; attempt++ {
		var status struct {
			StatusCode string `json:"status_code"`
		}
		if err := s.do(ctx, req, http.MethodGet, endpoint, nil, &status); err != nil {
			return err
		}

		switch status.StatusCode {
		case instagramStatusFinished:
			return nil
		case instagramStatusError:
			return s.fail(req, 0, "instagram could not process the video", nil)
		}

		select {
		case <-ctx.Done():
			return s.fail(req, 0, fmt.Sprintf("instagram video processing: %v", ctx.Err()), ctx.Err())
		case <-time.After(s.pollInterval):
		}
	}
	return s.fail(req, 0, "instagram video processing timed out", nil)
}

func (s *InstagramPublisher) post(ctx context.Context, req PublishRequest, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return s.fail(req, 0, fmt.Sprintf("error marshalling payload: %v", err), err)
	}
	return s.do(ctx, req, http.MethodPost, endpoint, body, out)
}

func (s *InstagramPublisher) do(ctx context.Context, req PublishRequest, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return s.fail(req, 0, fmt.Sprintf("error creating request: %v", err), err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return s.fail(req, 0, fmt.Sprintf("HTTP request error: %v", err), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return s.fail(req, resp.StatusCode, fmt.Sprintf("error reading response body: %v", err), err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr transfer.InstagramErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return s.fail(req, resp.StatusCode, fmt.Sprintf("instagram: %s", apiErr.Error.Message), nil)
		}
		return s.fail(req, resp.StatusCode, fmt.Sprintf("unexpected status code from Instagram: %d", resp.StatusCode), nil)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return s.fail(req, resp.StatusCode, fmt.Sprintf("error parsing response: %v", err), err)
	}
	return nil
}

func (s *InstagramPublisher) fail(req PublishRequest, status int, reason string, err error) error {
	return &PublishError{
		Platform:   models.PlatformInstagram,
		AccountID:  req.Account.ID.String(),
		StatusCode: status,
		Reason:     reason,
		Err:        err,
	}
}

var _ Publisher = (*InstagramPublisher)(nil)
