package imagestore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// listPageSize is the Admin API page size for asset listings.
const listPageSize = 500

// Cloudinary stores images in a Cloudinary folder and lists them through
// the Admin API with cursor pagination.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary creates a Cloudinary-backed image store from a
// cloudinary:// credentials URL.
func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// Save uploads the encoded image under the derived public id, overwriting
// any existing asset, and returns the delivery URL.
func (s *Cloudinary) Save(ctx context.Context, encoded []byte, id int64) (string, error) {
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(encoded), uploader.UploadParams{
		PublicID:  ObjectName(id),
		Folder:    s.folder,
		Format:    "webp",
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to cloudinary: %w", err)
	}
	return res.SecureURL, nil
}

// ListPage returns one page of public ids under the configured folder.
func (s *Cloudinary) ListPage(ctx context.Context, cursor string) ([]string, string, error) {
	res, err := s.cld.Admin.Assets(ctx, admin.AssetsParams{
		AssetType:  api.Image,
		Prefix:     s.folder + "/" + namePrefix,
		MaxResults: listPageSize,
		NextCursor: cursor,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list cloudinary assets: %w", err)
	}
	names := make([]string, 0, len(res.Assets))
	for _, asset := range res.Assets {
		names = append(names, asset.PublicID)
	}
	return names, res.NextCursor, nil
}
