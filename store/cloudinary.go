package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	models "github.com/phillip/chama-tracker-go/models"
)

// rawAssets is the slice of the Cloudinary API the store needs.
type rawAssets interface {
	fetch(ctx context.Context, publicID string) ([]byte, bool, error)
	upload(ctx context.Context, publicID string, data []byte) error
	list(ctx context.Context, prefix string) ([]FileInfo, error)
}

// Cloudinary keeps data.json as a raw asset with a fixed public id, overwritten on every save.
type Cloudinary struct {
	assets   rawAssets
	publicID string
}

func NewCloudinary(cloudName, apiKey, apiSecret, publicID string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	return &Cloudinary{
		assets:   &cloudinaryAssets{cld: cld, http: http.DefaultClient},
		publicID: publicID,
	}, nil
}

func (c *Cloudinary) Name() string { return "cloudinary" }

func (c *Cloudinary) Load(ctx context.Context) (*Snapshot, error) {
	data, found, err := c.assets.fetch(ctx, c.publicID)
	if err != nil {
		return nil, err
	}
	if !found {
		return emptySnapshot(), nil
	}
	return snapshotFrom(data)
}

func (c *Cloudinary) Save(ctx context.Context, doc *models.Document, expectedSHA string) (string, error) {
	current, found, err := c.assets.fetch(ctx, c.publicID)
	if err != nil {
		return "", err
	}
	currentSHA := ""
	if found {
		currentSHA = ContentSHA(current)
	}
	if currentSHA != expectedSHA {
		return "", ErrConflict
	}

	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	if err := c.assets.upload(ctx, c.publicID, data); err != nil {
		return "", err
	}
	return ContentSHA(data), nil
}

func (c *Cloudinary) List(ctx context.Context) ([]FileInfo, error) {
	prefix := path.Dir(c.publicID)
	if prefix == "." {
		prefix = ""
	}
	return c.assets.list(ctx, prefix)
}

// ---------------- SDK ADAPTER ----------------

type cloudinaryAssets struct {
	cld  *cloudinary.Cloudinary
	http *http.Client
}

func (a *cloudinaryAssets) fetch(ctx context.Context, publicID string) ([]byte, bool, error) {
	asset, err := a.cld.Admin.Asset(ctx, admin.AssetParams{
		AssetType:    "raw",
		DeliveryType: "upload",
		PublicID:     publicID,
	})
	if err != nil {
		return nil, false, fmt.Errorf("cloudinary asset lookup: %w", err)
	}
	if msg := asset.Error.Message; msg != "" {
		if strings.Contains(strings.ToLower(msg), "not found") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cloudinary asset lookup: %s", msg)
	}

	// the versioned secure url bypasses stale CDN copies
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.SecureURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("download %s: %w", asset.SecureURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("download %s: %s", asset.SecureURL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("download %s: %w", asset.SecureURL, err)
	}
	return data, true, nil
}

func (a *cloudinaryAssets) upload(ctx context.Context, publicID string, data []byte) error {
	res, err := a.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: "raw",
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("upload error: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("upload error: %s", res.Error.Message)
	}
	return nil
}

func (a *cloudinaryAssets) list(ctx context.Context, prefix string) ([]FileInfo, error) {
	res, err := a.cld.Admin.Assets(ctx, admin.AssetsParams{
		AssetType:    "raw",
		DeliveryType: "upload",
		Prefix:       prefix,
		MaxResults:   100,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary list: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary list: %s", res.Error.Message)
	}
	files := make([]FileInfo, 0, len(res.Assets))
	for _, a := range res.Assets {
		files = append(files, FileInfo{
			Name: path.Base(a.PublicID),
			Path: a.SecureURL,
			Size: int64(a.Bytes),
		})
	}
	return files, nil
}
