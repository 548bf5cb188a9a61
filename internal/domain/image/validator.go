package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"chopchop-server-go/internal/platform/config"
	"chopchop-server-go/internal/platform/logging"
)

// Validator performs layered checks against incoming image payloads before
// they reach the normalizer.
type Validator struct {
	config *config.ImageConfig
	logger *logging.Logger
}

func NewValidator(cfg *config.ImageConfig, logger *logging.Logger) *Validator {
	return &Validator{config: cfg, logger: logger}
}

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
	"bmp":  {0x42, 0x4D},
}

// ValidateBase64 decodes and validates a base64 payload.
func (v *Validator) ValidateBase64(att Attachment) ValidationResult {
	result := ValidationResult{IsValid: false}

	if att.Data == "" {
		result.Error = fmt.Errorf("missing image payload")
		return result
	}

	raw, err := base64.StdEncoding.DecodeString(att.Data)
	if err != nil {
		result.Error = fmt.Errorf("decode base64: %w", err)
		result.SecurityRisk = "invalid base64 encoding"
		return result
	}
	return v.ValidateBytes(raw, att.Format)
}

// ValidateBytes validates raw bytes against size, format and content checks.
func (v *Validator) ValidateBytes(raw []byte, declaredFormat string) ValidationResult {
	result := ValidationResult{IsValid: false}

	if len(raw) == 0 {
		result.Error = fmt.Errorf("empty image payload")
		return result
	}

	if int64(len(raw)) > v.config.MaxUploadBytes {
		result.Error = fmt.Errorf("file size exceeds limit: %d bytes (max %d bytes)",
			len(raw), v.config.MaxUploadBytes)
		result.SecurityRisk = "file too large"
		v.logger.WarnTag("IMAGE", "oversized upload rejected: size=%d max=%d format=%s",
			len(raw), v.config.MaxUploadBytes, declaredFormat)
		return result
	}

	if declaredFormat != "" && !v.isFormatAllowed(declaredFormat) {
		result.Error = fmt.Errorf("unsupported format: %s", declaredFormat)
		result.SecurityRisk = "unapproved format"
		return result
	}

	if v.scanForMaliciousContent(raw) {
		result.Error = fmt.Errorf("potential malicious content detected")
		result.SecurityRisk = "suspicious content"
		return result
	}

	decodeResult := v.validateImageDecoding(raw)
	if !decodeResult.IsValid {
		if declaredFormat != "" && !v.matchesSignature(raw, declaredFormat) {
			header := fmt.Sprintf("%x", raw[:min(len(raw), 16)])
			v.logger.WarnTag("IMAGE", "file signature mismatch: declared=%s header=%s",
				declaredFormat, header)
		}
		return decodeResult
	}

	result = decodeResult
	result.FileSize = int64(len(raw))
	return result
}

func (v *Validator) isFormatAllowed(format string) bool {
	allowed := v.config.AllowedFormats
	if len(allowed) == 0 {
		allowed = []string{"jpeg", "jpg", "png", "webp", "gif", "bmp"}
	}

	format = strings.ToLower(format)
	for _, candidate := range allowed {
		if strings.ToLower(candidate) == format {
			return true
		}
	}
	return false
}

func (v *Validator) matchesSignature(raw []byte, format string) bool {
	signature, ok := imageSignatures[strings.ToLower(format)]
	if !ok || len(signature) == 0 {
		return true
	}
	if len(raw) < len(signature) {
		return false
	}
	return bytes.Equal(signature, raw[:len(signature)])
}

// scanForMaliciousContent rejects payloads that begin with executable or
// archive signatures regardless of their declared format.
func (v *Validator) scanForMaliciousContent(raw []byte) bool {
	suspicious := [][]byte{
		{0x4D, 0x5A},             // PE
		{0x25, 0x50, 0x44, 0x46}, // PDF
		{0x50, 0x4B, 0x03, 0x04}, // zip
		{0x1F, 0x8B, 0x08},       // gzip
	}

	for _, signature := range suspicious {
		if bytes.HasPrefix(raw, signature) {
			v.logger.WarnTag("IMAGE", "rejected payload with non-image signature: %x", signature)
			return true
		}
	}
	return false
}

func (v *Validator) validateImageDecoding(raw []byte) ValidationResult {
	result := ValidationResult{}

	cfg, actualFormat, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		result.Error = fmt.Errorf("decode image config: %w", err)
		result.SecurityRisk = "undecodable image data"
		return result
	}
	result.Format = actualFormat

	totalPixels := int64(cfg.Width) * int64(cfg.Height)
	if v.config.MaxPixels > 0 && totalPixels > v.config.MaxPixels {
		result.Error = fmt.Errorf("pixel count exceeds limit: %d (max %d)",
			totalPixels, v.config.MaxPixels)
		result.SecurityRisk = "pixel count too high"
		return result
	}

	result.IsValid = true
	result.Width = cfg.Width
	result.Height = cfg.Height
	result.ColorModel = cfg.ColorModel
	result.FileSize = int64(len(raw))

	v.logger.DebugTag("IMAGE", "validation ok: format=%s width=%d height=%d size=%d",
		result.Format, result.Width, result.Height, result.FileSize)

	return result
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
