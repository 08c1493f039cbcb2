package tutor

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
	"github.com/secmon-lab/wrongbook/pkg/utils/safe"
)

// maxImageBytes caps downloaded images
const maxImageBytes = 20 << 20

const downloadHint = "the image URL must be publicly readable and allow cross-origin access; check the bucket ACL and CORS settings"

// loadImage turns an image reference into an inline image. Remote URLs are
// downloaded and re-encoded, data URLs keep their media type and raw
// payloads are treated as JPEG.
func (c *Client) loadImage(ctx context.Context, ref string) (*model.InlineImage, error) {
	if ref == "" {
		return nil, goerr.Wrap(model.ErrInvalidMistake, "image is required")
	}
	if !model.IsRemoteImage(ref) {
		return model.ParseInlineImage(ref)
	}

	data, contentType, err := c.download(ctx, ref)
	if err != nil {
		return nil, goerr.Wrap(errors.Join(model.ErrImageDownloadFailed, err), "failed to download image",
			goerr.V("url", ref),
			goerr.V("hint", downloadHint),
		)
	}
	return model.NewInlineImage(contentType, data), nil
}

func (c *Client) download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", goerr.Wrap(err, "request failed")
	}
	defer safe.DrainClose(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", goerr.New("unexpected status", goerr.V("status", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to read body")
	}
	if len(data) > maxImageBytes {
		return nil, "", goerr.New("image too large", goerr.V("limit", maxImageBytes))
	}
	if len(data) == 0 {
		return nil, "", goerr.New("empty body")
	}

	return data, imageMimeType(resp.Header.Get("Content-Type"), data), nil
}

func imageMimeType(header string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(header); err == nil && strings.HasPrefix(mediaType, "image/") {
		return mediaType
	}
	if detected := http.DetectContentType(data); strings.HasPrefix(detected, "image/") {
		return detected
	}
	return model.DefaultImageMimeType
}
