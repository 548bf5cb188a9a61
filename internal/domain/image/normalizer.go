package image

import (
	"bytes"
	"image"
	"image/color"
	stdjpeg "image/jpeg"
	"strings"

	xdraw "golang.org/x/image/draw"

	"chopchop-server-go/internal/platform/config"
	"chopchop-server-go/internal/platform/errors"
	"chopchop-server-go/internal/platform/logging"
)

// qualityLadder is tried highest first; the first encoding under the output
// cap wins.
var qualityLadder = []int{95, 90, 85, 80, 75, 70, 65, 60}

// fallbackQuality is used for the single extra-shrink attempt after the
// ladder is exhausted.
const fallbackQuality = 70

// fallbackScale shrinks each dimension once more when even quality 60 is too
// large.
const fallbackScale = 0.8

// Normalizer turns arbitrary uploaded images into bounded baseline JPEGs that
// the hosted model accepts: alpha and palettes flattened onto white, longest
// side capped, encoded size capped.
type Normalizer struct {
	config    *config.ImageConfig
	validator *Validator
	logger    *logging.Logger
}

func NewNormalizer(cfg *config.ImageConfig, logger *logging.Logger) *Normalizer {
	return &Normalizer{
		config:    cfg,
		validator: NewValidator(cfg, logger),
		logger:    logger,
	}
}

// Validator exposes the underlying payload validator.
func (n *Normalizer) Validator() *Validator {
	return n.validator
}

// Normalize validates and converts raw into a conforming JPEG. Inputs that
// already conform are returned byte for byte, so running the output through
// Normalize again is a no-op.
func (n *Normalizer) Normalize(raw []byte, declaredFormat string) (*Normalized, error) {
	const op = "image.Normalize"

	validation := n.validator.ValidateBytes(raw, declaredFormat)
	if !validation.IsValid {
		return nil, errors.Wrap(errors.KindDecode, op, "invalid image payload", validation.Error)
	}

	if n.conforms(validation, int64(len(raw))) {
		n.logger.DebugTag("IMAGE", "input already conforms, passing through: %dx%d %d bytes",
			validation.Width, validation.Height, len(raw))
		return &Normalized{
			Data:   raw,
			Format: "jpeg",
			Width:  validation.Width,
			Height: validation.Height,
		}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(errors.KindDecode, op, "decode image", err)
	}

	flattened := flattenOntoWhite(src)

	width, height := fitDimensions(flattened.Bounds().Dx(), flattened.Bounds().Dy(), n.config.MaxDimension)
	scaled := scale(flattened, width, height)

	for _, quality := range qualityLadder {
		encoded, err := encodeJPEG(scaled, quality)
		if err != nil {
			return nil, errors.Wrap(errors.KindDecode, op, "encode jpeg", err)
		}
		if int64(len(encoded)) <= n.config.MaxOutputBytes {
			n.logger.DebugTag("IMAGE", "normalized: %dx%d quality=%d size=%d",
				width, height, quality, len(encoded))
			return &Normalized{
				Data:    encoded,
				Format:  "jpeg",
				Width:   width,
				Height:  height,
				Quality: quality,
				Resized: true,
			}, nil
		}
	}

	// one extra shrink at fixed low quality before giving up
	fbWidth := max(1, int(float64(width)*fallbackScale))
	fbHeight := max(1, int(float64(height)*fallbackScale))
	shrunk := scale(scaled, fbWidth, fbHeight)

	// the fallback result is returned as is, even over the cap
	encoded, err := encodeJPEG(shrunk, fallbackQuality)
	if err != nil {
		return nil, errors.Wrap(errors.KindDecode, op, "encode fallback jpeg", err)
	}

	n.logger.WarnTag("IMAGE", "quality ladder exhausted, used fallback shrink: %dx%d size=%d",
		fbWidth, fbHeight, len(encoded))
	return &Normalized{
		Data:    encoded,
		Format:  "jpeg",
		Width:   fbWidth,
		Height:  fbHeight,
		Quality: fallbackQuality,
		Resized: true,
	}, nil
}

// conforms reports whether the payload can be forwarded untouched. Grayscale
// and CMYK JPEGs fail the color model check and get re-encoded to true color.
func (n *Normalizer) conforms(v ValidationResult, size int64) bool {
	if !strings.EqualFold(v.Format, "jpeg") {
		return false
	}
	if v.ColorModel != color.YCbCrModel {
		return false
	}
	if v.Width > n.config.MaxDimension || v.Height > n.config.MaxDimension {
		return false
	}
	return size <= n.config.MaxOutputBytes
}

// flattenOntoWhite composites the source over an opaque white canvas. JPEG
// has no alpha channel, so transparent regions must become white here rather
// than the encoder's default black.
func flattenOntoWhite(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), src, bounds.Min, xdraw.Over)
	return dst
}

// fitDimensions shrinks (w, h) proportionally so the longest side is at most
// maxDim. Images already inside the bound keep their size.
func fitDimensions(w, h, maxDim int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return w, h
	}

	ratio := float64(maxDim) / float64(longest)
	return max(1, int(float64(w)*ratio)), max(1, int(float64(h)*ratio))
}

func scale(src *image.RGBA, width, height int) *image.RGBA {
	if src.Bounds().Dx() == width && src.Bounds().Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := stdjpeg.Encode(&buf, img, &stdjpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
