// Package cloudinary uploads place photos with delivery-optimized eager
// transformations.
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Client is the slice of Cloudinary the photo service needs.
type Client interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error)
	Destroy(ctx context.Context, publicID string) error
}

const (
	ThumbWidth  = 400
	ThumbHeight = 300
	thumbEager  = "q_auto,f_auto,w_400,h_300,c_fill"
)

var eagerAsyncFalse = false

type clientImpl struct {
	cloudName string
	uploader  *uploader.API
}

// ThumbnailURL returns the delivery URL of the thumbnail transformation for
// an already uploaded public ID.
func ThumbnailURL(cloudName, publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,h_%d,c_fill/%s",
		cloudName, ThumbWidth, ThumbHeight, publicID)
}

func (c *clientImpl) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (url, thumbnailURL string, err error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      thumbEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", "", err
	}
	if result.Error.Message != "" {
		return "", "", errors.New(result.Error.Message)
	}
	url = result.SecureURL
	if len(result.Eager) > 0 {
		thumbnailURL = result.Eager[0].SecureURL
	}
	if thumbnailURL == "" {
		thumbnailURL = ThumbnailURL(c.cloudName, result.PublicID)
	}
	return url, thumbnailURL, nil
}

func (c *clientImpl) Destroy(ctx context.Context, publicID string) error {
	result, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if result.Error.Message != "" {
		return errors.New(result.Error.Message)
	}
	return nil
}

var (
	versionSegment = regexp.MustCompile(`^v\d+$`)
	transformation = regexp.MustCompile(`^[a-z]{1,3}_[^/]*$`)
)

// PublicIDFromURL recovers the public ID (folder included, extension
// stripped) from a delivery URL. It returns "" for non-Cloudinary URLs.
func PublicIDFromURL(url string) string {
	_, rest, ok := strings.Cut(url, "/upload/")
	if !ok || !strings.Contains(url, "res.cloudinary.com/") {
		return ""
	}
	segments := strings.Split(rest, "/")
	for len(segments) > 1 && (transformation.MatchString(segments[0]) || versionSegment.MatchString(segments[0])) {
		segments = segments[1:]
	}
	id := strings.Join(segments, "/")
	return strings.TrimSuffix(id, path.Ext(id))
}

// NewClientFromParams builds a Client from Cloudinary cloud name, API key, and secret.
func NewClientFromParams(cloudName, apiKey, apiSecret string) (Client, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &clientImpl{
		cloudName: cloudName,
		uploader:  up,
	}, nil
}
