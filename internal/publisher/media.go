package publisher

import (
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maheshrc27/creatortask/internal/models"
)

const (
	mediaImage = "image"
	mediaVideo = "video"
)

// mediaKind classifies an attachment as image or video, from its declared
// mime type or, failing that, its file extension.
func mediaKind(mf models.MediaFile) string {
	mime := mf.Type
	if mime == "" {
		ext := strings.TrimPrefix(path.Ext(mf.Path), ".")
		mime = filetype.GetType(strings.ToLower(ext)).MIME.Value
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return mediaImage
	case strings.HasPrefix(mime, "video/"):
		return mediaVideo
	}
	return ""
}

// mediaURL returns the public URL of an attachment.
func mediaURL(publicBase string, mf models.MediaFile) string {
	if mf.URL != "" {
		return mf.URL
	}
	return strings.TrimRight(publicBase, "/") + "/" + strings.TrimLeft(mf.Path, "/")
}
