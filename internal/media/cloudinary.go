// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/acm-mitb/acm-site/internal/model"
)

// cloudinaryTimeout bounds a single upload.
const cloudinaryTimeout = 60 * time.Second

// Cloudinary uploads images with an unsigned upload preset.
type Cloudinary struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	preset    string
}

// NewCloudinary creates an uploader for cloudName using the unsigned preset.
// No API key is needed for unsigned uploads.
func NewCloudinary(cloudName, preset string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, "", "")
	if err != nil {
		return nil, fmt.Errorf("creating cloudinary client: %w", err)
	}
	return &Cloudinary{cld: cld, cloudName: cloudName, preset: preset}, nil
}

// Upload implements Uploader. Images are stored as uploaded; Cloudinary
// handles resizing on delivery.
func (c *Cloudinary) Upload(ctx context.Context, u Upload) (string, error) {
	img, err := read(u)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, cloudinaryTimeout)
	defer cancel()

	res, err := c.cld.Upload.UnsignedUpload(ctx, bytes.NewReader(img.data), c.preset, uploader.UploadParams{
		Folder:       img.folder,
		PublicID:     img.publicID,
		ResourceType: "image",
	})
	if err != nil {
		return "", c.failed(fmt.Errorf("posting upload: %w", err))
	}
	if res.Error.Message != "" {
		return "", c.failed(errors.New(res.Error.Message))
	}
	if res.SecureURL == "" {
		return "", c.failed(errors.New("response has no secure_url"))
	}

	slog.Info("image uploaded", "folder", img.folder, "url", res.SecureURL)
	return res.SecureURL, nil
}

func (c *Cloudinary) failed(err error) error {
	slog.Error("cloudinary upload failed", "cloud", c.cloudName, "error", err, "category", model.LogCategoryMedia)
	return &model.Error{Kind: model.KindRemoteOperation, Op: "media.upload", Message: MsgUploadFailed, Err: err}
}
