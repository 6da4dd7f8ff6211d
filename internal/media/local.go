// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package media

import (
	"bytes"
	"context"
	"fmt"
	goimage "image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/acm-mitb/acm-site/internal/model"
	"github.com/acm-mitb/acm-site/internal/util"
)

// Local image processing limits.
const (
	DefaultMaxWidth = 2000
	jpegQuality     = 90
)

// Local stores images on disk under dir and serves them below baseURL.
// Images are auto-rotated from EXIF, scaled down to MaxWidth and
// re-encoded without metadata.
type Local struct {
	dir      string
	baseURL  string
	MaxWidth int
}

// NewLocal creates a disk uploader.
func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), MaxWidth: DefaultMaxWidth}
}

// Upload implements Uploader.
func (l *Local) Upload(ctx context.Context, u Upload) (string, error) {
	img, err := read(u)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, ext, err := l.process(img)
	if err != nil {
		return "", model.ValidationError(MsgUnsupportedImage)
	}

	name := img.publicID + ext
	if err := l.save(img.folder, name, data); err != nil {
		slog.Error("saving upload failed", "folder", img.folder, "error", err, "category", model.LogCategoryMedia)
		return "", &model.Error{Kind: model.KindRemoteOperation, Op: "media.upload", Message: MsgUploadFailed, Err: err}
	}

	slog.Info("image uploaded", "folder", img.folder, "name", name, "bytes", len(data))
	return l.baseURL + "/" + path.Join(img.folder, name), nil
}

// process returns the bytes to store and their file extension. GIFs are
// kept as uploaded so animations survive.
func (l *Local) process(img *image) ([]byte, string, error) {
	if img.format == "gif" {
		if _, err := gif.DecodeConfig(img.reader()); err != nil {
			return nil, "", fmt.Errorf("decoding gif: %w", err)
		}
		return img.data, ".gif", nil
	}

	decoded, err := imaging.Decode(img.reader())
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	decoded = applyOrientation(decoded, readExifOrientation(img.reader()))
	if l.MaxWidth > 0 && decoded.Bounds().Dx() > l.MaxWidth {
		decoded = imaging.Resize(decoded, l.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	ext := ".jpg"
	switch img.format {
	case "png":
		ext = ".png"
		err = png.Encode(&buf, decoded)
	default:
		// No pure Go WebP encoder; WebP is stored as JPEG.
		err = jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, "", fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), ext, nil
}

// save writes data to folder/name below the upload directory.
func (l *Local) save(folder, name string, data []byte) error {
	safeName, err := util.SanitizeFilename(name)
	if err != nil {
		return err
	}
	dir, err := util.SafeJoin(l.dir, filepath.FromSlash(folder))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, safeName), data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// readExifOrientation returns the EXIF orientation tag, or 1 when absent.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes the camera rotation described by an EXIF
// orientation value (2-8).
func applyOrientation(img goimage.Image, orientation int) goimage.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
