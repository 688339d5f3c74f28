package publisher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const (
	youtubeTitleLimit = 100
	youtubeCategory   = "22"
	sniffLength       = 261
)

// uploadFunc inserts a video and returns its id.
type uploadFunc func(ctx context.Context, accessToken string, video *youtube.Video, media io.Reader) (string, error)

// YoutubePublisher uploads the post's video attachment from the media bucket.
type YoutubePublisher struct {
	media  storage.Storage
	upload uploadFunc
}

func NewYoutubePublisher(media storage.Storage, opts ...option.ClientOption) *YoutubePublisher {
	return &YoutubePublisher{
		media:  media,
		upload: insertVideo(opts...),
	}
}

func (y *YoutubePublisher) Platform() models.Platform {
	return models.PlatformYoutube
}

func (y *YoutubePublisher) Publish(ctx context.Context, req PublishRequest) error {
	var video *models.MediaFile
	for i := range req.MediaFiles {
		if mediaKind(req.MediaFiles[i]) == mediaVideo {
			video = &req.MediaFiles[i]
			break
		}
	}
	if video == nil {
		return y.fail(req, 0, "youtube requires a video file", nil)
	}

	rc, err := y.media.Download(ctx, video.Path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return y.fail(req, 0, fmt.Sprintf("media %s not found", video.Path), err)
		}
		return y.fail(req, 0, fmt.Sprintf("error downloading video: %v", err), err)
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, sniffLength)
	head, err := br.Peek(sniffLength)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return y.fail(req, 0, fmt.Sprintf("error reading video: %v", err), err)
	}
	if !filetype.IsVideo(head) {
		return y.fail(req, 0, fmt.Sprintf("media %s is not a video", video.Path), nil)
	}

	metadata := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       videoTitle(req.Content),
			Description: req.Content,
			CategoryId:  youtubeCategory,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	id, err := y.upload(ctx, req.Account.AccessToken, metadata, br)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return y.fail(req, apiErr.Code, fmt.Sprintf("youtube: %s", apiErr.Message), err)
		}
		return y.fail(req, 0, fmt.Sprintf("error uploading video: %v", err), err)
	}

	slog.Info("video uploaded", "account_id", req.Account.ID, "video_id", id)
	return nil
}

func insertVideo(opts ...option.ClientOption) uploadFunc {
	return func(ctx context.Context, accessToken string, video *youtube.Video, media io.Reader) (string, error) {
		client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
		service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
		if err != nil {
			return "", err
		}

		response, err := service.Videos.Insert([]string{"snippet", "status"}, video).Media(media).Context(ctx).Do()
		if err != nil {
			return "", err
		}
		return response.Id, nil
	}
}

// videoTitle uses the first line of the content, cut to the YouTube title limit.
func videoTitle(content string) string {
	title := strings.TrimSpace(content)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = strings.TrimSpace(title[:i])
	}
	if title == "" {
		return "Untitled"
	}
	if utf8.RuneCountInString(title) > youtubeTitleLimit {
		title = string([]rune(title)[:youtubeTitleLimit])
	}
	return strings.NewReplacer("<", "", ">", "").Replace(title)
}

func (y *YoutubePublisher) fail(req PublishRequest, status int, reason string, err error) error {
	return &PublishError{
		Platform:   models.PlatformYoutube,
		AccountID:  req.Account.ID.String(),
		StatusCode: status,
		Reason:     reason,
		Err:        err,
	}
}

var _ Publisher = (*YoutubePublisher)(nil)
