package publisher

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	config "github.com/maheshrc27/creatortask/configs"
	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/internal/storage"
)

type stubPublisher struct {
	platform models.Platform
}

func (s stubPublisher) Platform() models.Platform { return s.platform }

func (s stubPublisher) Publish(context.Context, PublishRequest) error { return nil }

func testAccount(platform models.Platform) *models.SocialAccount {
	return &models.SocialAccount{
		ID:          uuid.New(),
		Platform:    platform,
		AccountID:   "17841400000000000",
		AccessToken: "token-123",
	}
}

func TestRegistry(t *testing.T) {
	c := qt.New(t)
	r := NewRegistry(stubPublisher{platform: models.PlatformYoutube}, stubPublisher{platform: models.PlatformTwitter})

	p, ok := r.Lookup(models.PlatformTwitter)
	c.Assert(ok, qt.IsTrue)
	c.Assert(p.Platform(), qt.Equals, models.PlatformTwitter)

	_, ok = r.Lookup("tiktok")
	c.Assert(ok, qt.IsFalse)

	c.Assert(r.Platforms(), qt.DeepEquals, []models.Platform{models.PlatformTwitter, models.PlatformYoutube})
}

func TestFailureReasons(t *testing.T) {
	c := qt.New(t)

	err := error(UnsupportedPlatform("acct1", "tiktok"))
	c.Assert(err, qt.ErrorMatches, "unsupported platform tiktok")
	c.Assert(errors.Is(err, ErrUnsupportedPlatform), qt.IsTrue)

	err = AccountNotFound("acct2")
	c.Assert(err, qt.ErrorMatches, "account acct2 not found")
	c.Assert(errors.Is(err, ErrAccountNotFound), qt.IsTrue)
}

func TestMediaKind(t *testing.T) {
	tests := []struct {
		name string
		file models.MediaFile
		want string
	}{
		{name: "declared image", file: models.MediaFile{Path: "a", Type: "image/jpeg"}, want: mediaImage},
		{name: "declared video", file: models.MediaFile{Path: "a", Type: "video/mp4"}, want: mediaVideo},
		{name: "extension image", file: models.MediaFile{Path: "u/1/photo.PNG"}, want: mediaImage},
		{name: "extension video", file: models.MediaFile{Path: "u/1/clip.mp4"}, want: mediaVideo},
		{name: "unknown", file: models.MediaFile{Path: "notes.txt"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.New(t).Assert(mediaKind(tt.file), qt.Equals, tt.want)
		})
	}
}

func TestMediaURL(t *testing.T) {
	c := qt.New(t)
	c.Assert(mediaURL("https://media.example.com/", models.MediaFile{Path: "/u/a.png"}), qt.Equals, "https://media.example.com/u/a.png")
	c.Assert(mediaURL("https://media.example.com", models.MediaFile{Path: "u/a.png", URL: "https://cdn/x.png"}), qt.Equals, "https://cdn/x.png")
}

func TestNewPlatformRegistry(t *testing.T) {
	c := qt.New(t)

	r := NewPlatformRegistry(&config.Config{}, storage.NewMemoryStorage())
	c.Assert(r.Platforms(), qt.DeepEquals, []models.Platform{
		models.PlatformInstagram, models.PlatformTwitter, models.PlatformYoutube,
	})
}
