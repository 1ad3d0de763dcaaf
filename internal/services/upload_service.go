/**
 * @description
 * Image Upload Manager backed by Cloudinary.
 * Two paths: server-side upload of a multipart file through the Cloudinary
 * SDK (used for book covers and profile pictures), and signed upload
 * parameters for clients that push directly to Cloudinary.
 *
 * @dependencies
 * - github.com/cloudinary/cloudinary-go/v2
 * - backend/internal/config
 */

package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
	"time"

	"github.com/bookclub-project/backend/internal/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// UploadService wraps Cloudinary for image storage
type UploadService struct {
	cld       *cloudinary.Cloudinary
	cfg       *config.Config
	folder    string
	apiKey    string
	apiSecret string
	cloudName string
}

// NewUploadService creates an UploadService. Returns an error when the
// Cloudinary credentials are missing or malformed.
func NewUploadService(cfg *config.Config) (*UploadService, error) {
	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.APIKey,
		cfg.Cloudinary.APISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &UploadService{
		cld:       cld,
		cfg:       cfg,
		folder:    cfg.Cloudinary.UploadFolder,
		apiKey:    cfg.Cloudinary.APIKey,
		apiSecret: cfg.Cloudinary.APISecret,
		cloudName: cfg.Cloudinary.CloudName,
	}, nil
}

// UploadResult describes one stored image
type UploadResult struct {
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	CreatedAt string `json:"created_at"`
}

// UploadImage stores a multipart file under the configured folder
func (s *UploadService) UploadImage(ctx context.Context, file *multipart.FileHeader, kind string) (*UploadResult, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	publicID := fmt.Sprintf("%s_%s", kind, uuid.New().String())
	resp, err := s.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:   s.folder,
		PublicID: publicID,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}

	return &UploadResult{
		PublicID:  resp.PublicID,
		URL:       resp.SecureURL,
		Format:    resp.Format,
		Width:     resp.Width,
		Height:    resp.Height,
		CreatedAt: resp.CreatedAt.Format(time.RFC3339),
	}, nil
}

// DeleteImage removes a previously uploaded image
func (s *UploadService) DeleteImage(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	return nil
}

// SignedUploadParams are the fields a browser needs for a direct upload
type SignedUploadParams struct {
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

// GenerateUploadParams signs a direct-to-Cloudinary upload for the client
func (s *UploadService) GenerateUploadParams() SignedUploadParams {
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	params := map[string]string{
		"timestamp": timestamp,
		"folder":    s.folder,
	}
	return SignedUploadParams{
		Timestamp: timestamp,
		Signature: s.sign(params),
		APIKey:    s.apiKey,
		CloudName: s.cloudName,
		Folder:    s.folder,
	}
}

// sign builds the Cloudinary request signature: parameters sorted by key,
// joined as k=v with &, with the API secret appended, SHA-1 hex encoded.
func (s *UploadService) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	payload := strings.Join(parts, "&") + s.apiSecret

	h := sha1.New()
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
