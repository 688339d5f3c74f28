package transfer

// TwitterPublishRequest is the body accepted by the app's twitter relay endpoint.
type TwitterPublishRequest struct {
	Content     string             `json:"content"`
	AccessToken string             `json:"accessToken"`
	MediaFiles  []TwitterMediaFile `json:"mediaFiles"`
}

type TwitterMediaFile struct {
	Path string `json:"path"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type TwitterPublishResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}
