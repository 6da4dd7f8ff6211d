// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package media stores uploaded images and returns their public URLs.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/acm-mitb/acm-site/internal/config"
	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/util"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 10 << 20

// Upload folders, one per collection that carries images.
const (
	FolderSponsors = "sponsors"
	FolderEvents   = "images/events"
	FolderStories  = "images/stories"
	FolderNews     = "images/news"
)

// Folders lists the accepted upload folders.
var Folders = []string{FolderSponsors, FolderEvents, FolderStories, FolderNews}

// User-facing upload messages.
const (
	MsgUnsupportedImage = "Only JPEG, PNG, GIF and WebP images can be uploaded."
	MsgImageTooLarge    = "Image must be 10 MB or smaller."
	MsgUnknownFolder    = "Unknown upload folder."
	MsgUploadFailed     = "Upload failed. Please try again."
)

// Upload is one image to store.
type Upload struct {
	File     io.Reader
	Filename string
	Folder   string
	// Name, when set, becomes the slugified public id of the image.
	Name string
}

// Uploader stores images and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, u Upload) (string, error)
}

// New returns the uploader selected by cfg, or Inert when the selected
// backend lacks settings.
func New(cfg *config.Config) Uploader {
	if !cfg.Backend().Storage {
		slog.Error("object storage not configured, uploads disabled",
			"backend", cfg.StorageBackend, "category", model.LogCategoryMedia)
		return Inert{}
	}

	if cfg.StorageBackend == config.StorageCloudinary {
		c, err := NewCloudinary(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset)
		if err != nil {
			slog.Error("object storage unavailable, uploads disabled",
				"backend", cfg.StorageBackend, "error", err, "category", model.LogCategoryMedia)
			return Inert{}
		}
		return c
	}
	return NewLocal(cfg.UploadsDir, cfg.UploadsURL)
}

// Inert rejects every upload with a configuration error.
type Inert struct{}

// Upload implements Uploader.
func (Inert) Upload(context.Context, Upload) (string, error) {
	return "", model.NotConfiguredError("media.upload")
}

// image is a validated upload read into memory.
type image struct {
	data     []byte
	format   string
	folder   string
	publicID string
}

// read checks the folder, size and format of u.
func read(u Upload) (*image, error) {
	if !slices.Contains(Folders, u.Folder) {
		return nil, model.ValidationError(MsgUnknownFolder)
	}

	data, err := io.ReadAll(io.LimitReader(u.File, MaxUploadSize+1))
	if err != nil {
		return nil, model.RemoteError("media.upload", fmt.Errorf("reading upload: %w", err))
	}
	if len(data) > MaxUploadSize {
		return nil, model.ValidationError(MsgImageTooLarge)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, model.ValidationError(MsgUnsupportedImage)
	}

	return &image{data: data, format: format, folder: u.Folder, publicID: publicID(u.Name)}, nil
}

// publicID returns the slug of name, or a random id when name has none.
func publicID(name string) string {
	if slug := util.Slugify(name); slug != "" {
		return slug
	}
	return uuid.NewString()
}

// detectFormat sniffs the image format. TIFF is rejected explicitly
// (CVE-2023-36308 in disintegration/imaging).
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func (img *image) reader() io.Reader { return bytes.NewReader(img.data) }
