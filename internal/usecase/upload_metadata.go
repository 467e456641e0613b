package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/profile-factory/internal/domain"
)

// DefaultImageBreakpoints are the maximum widths every profile image is resized to
var DefaultImageBreakpoints = []int{1800, 1024, 640, 320, 180}

// VerificationMethodKeccak is recorded next to every uploaded asset hash
const VerificationMethodKeccak = "keccak256(bytes)"

var (
	imageContentTypes = map[string]string{
		"png":  "image/png",
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"gif":  "image/gif",
		"webp": "image/webp",
	}
	assetContentTypes = map[string]string{
		"glb":  "model/gltf-binary",
		"gltf": "model/gltf+json",
		"mp4":  "video/mp4",
		"webm": "video/webm",
		"svg":  "image/svg+xml",
	}
)

// UploadMetadata turns a MetadataSource into the encoded value written under the metadata key
type UploadMetadata struct {
	uploader    Uploader
	encoder     MetadataEncoder
	images      ImageProcessor
	breakpoints []int
	log         *slog.Logger
}

// NewUploadMetadata creates a new metadata stage. uploader is the process-wide default.
func NewUploadMetadata(uploader Uploader, encoder MetadataEncoder, images ImageProcessor, log *slog.Logger) *UploadMetadata {
	return &UploadMetadata{
		uploader:    uploader,
		encoder:     encoder,
		images:      images,
		breakpoints: DefaultImageBreakpoints,
		log:         log.With("component", "UploadMetadata"),
	}
}

// ErrNoUploader is returned when metadata must be uploaded but no provider is configured
var ErrNoUploader = errors.New("no upload provider configured")

// CanUpload reports whether a draft could be uploaded with override or the default uploader
func (uc *UploadMetadata) CanUpload(override Uploader) bool {
	return override != nil || uc.uploader != nil
}

// WithBreakpoints returns a copy using different image widths
func (uc *UploadMetadata) WithBreakpoints(widths []int) *UploadMetadata {
	cp := *uc
	cp.breakpoints = append([]int(nil), widths...)
	return &cp
}

// Run processes src. A nil src yields a nil result. uploader overrides the default when non-nil.
func (uc *UploadMetadata) Run(ctx context.Context, src domain.MetadataSource, uploader Uploader, emit EventEmitter) (*domain.EncodedMetadataResult, error) {
	if uploader == nil {
		uploader = uc.uploader
	}

	switch v := src.(type) {
	case nil:
		return nil, nil

	case domain.EncodedMetadataSource:
		uc.log.Debug("metadata already encoded, skipping upload")
		return &domain.EncodedMetadataResult{Encoded: v.Data}, nil

	case domain.UploadedMetadataSource:
		encoded, err := uc.encoder.Encode(v.JSON, v.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata: %w", err)
		}
		return &domain.EncodedMetadataResult{JSON: v.JSON, URL: v.URL, Encoded: encoded}, nil

	case domain.DraftMetadataSource:
		if uploader == nil {
			return nil, &domain.UploadError{Name: "metadata", Err: ErrNoUploader}
		}
		return uc.uploadDraft(ctx, v.Draft, uploader, emit)
	}
	return nil, fmt.Errorf("%w: unsupported metadata source %T", domain.ErrInvalidMetadata, src)
}

// ValidateDraft checks every asset's type. It runs before any network call.
func ValidateDraft(draft *domain.ProfileDraft) error {
	for _, img := range draft.Images() {
		if _, err := imageContentType(img.Image.AssetInput); err != nil {
			return &domain.UploadError{Name: img.Field, Err: err}
		}
	}
	for i, asset := range draft.Avatar {
		if _, err := assetContentType(asset); err != nil {
			return &domain.UploadError{Name: fmt.Sprintf("avatar[%d]", i), Err: err}
		}
	}
	return nil
}

func (uc *UploadMetadata) uploadDraft(ctx context.Context, draft *domain.ProfileDraft, uploader Uploader, emit EventEmitter) (*domain.EncodedMetadataResult, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}

	body := domain.ProfileBody{
		Name:            draft.Name,
		Description:     draft.Description,
		Links:           lo.Ternary(draft.Links == nil, []domain.Link{}, draft.Links),
		Tags:            lo.Ternary(draft.Tags == nil, []string{}, draft.Tags),
		ProfileImage:    []domain.UploadedImage{},
		BackgroundImage: []domain.UploadedImage{},
		Avatar:          []domain.UploadedAsset{},
	}

	var err error
	if draft.ProfileImage != nil {
		if body.ProfileImage, err = uc.uploadImage(ctx, "profileImage", *draft.ProfileImage, uploader, emit); err != nil {
			return nil, err
		}
	}
	if draft.BackgroundImage != nil {
		if body.BackgroundImage, err = uc.uploadImage(ctx, "backgroundImage", *draft.BackgroundImage, uploader, emit); err != nil {
			return nil, err
		}
	}
	for i, asset := range draft.Avatar {
		contentType, _ := assetContentType(asset)
		name := fmt.Sprintf("avatar[%d]", i)
		url, err := uc.upload(ctx, name, asset.Data, contentType, uploader, emit)
		if err != nil {
			return nil, err
		}
		body.Avatar = append(body.Avatar, domain.UploadedAsset{
			FileType:     contentType,
			URL:          url,
			Verification: verification(asset.Data),
		})
	}

	doc, err := json.Marshal(domain.ProfileDocument{Profile: body})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile document: %w", err)
	}
	url, err := uc.upload(ctx, "metadata.json", doc, "application/json", uploader, emit)
	if err != nil {
		return nil, err
	}
	encoded, err := uc.encoder.Encode(doc, url)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return &domain.EncodedMetadataResult{JSON: doc, URL: url, Encoded: encoded}, nil
}

func (uc *UploadMetadata) uploadImage(ctx context.Context, field string, img domain.ImageInput, uploader Uploader, emit EventEmitter) ([]domain.UploadedImage, error) {
	variants, err := uc.images.Resize(ctx, img, uc.breakpoints)
	if err != nil {
		return nil, &domain.UploadError{Name: field, Err: fmt.Errorf("failed to resize: %w", err)}
	}
	out := make([]domain.UploadedImage, 0, len(variants))
	base := strings.TrimSuffix(img.FileName, path.Ext(img.FileName))
	for _, v := range variants {
		name := fmt.Sprintf("%s-%dx%d", base, v.Width, v.Height)
		url, err := uc.upload(ctx, name, v.Data, v.ContentType, uploader, emit)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.UploadedImage{
			Width:        v.Width,
			Height:       v.Height,
			URL:          url,
			Verification: verification(v.Data),
		})
	}
	return out, nil
}

func (uc *UploadMetadata) upload(ctx context.Context, name string, data []byte, contentType string, uploader Uploader, emit EventEmitter) (string, error) {
	pending := domain.DeploymentEvent{
		Kind:         domain.EventMetadataUpload,
		ContractName: domain.ContractAccount,
		Status:       domain.StatusPending,
		FunctionName: domain.FunctionUpload,
	}
	emit.Emit(pending)

	url, err := uploader.Upload(ctx, name, data, contentType)
	if err != nil {
		return "", &domain.UploadError{Name: name, Err: err}
	}
	uc.log.Debug("uploaded", "name", name, "url", url, "bytes", len(data))

	complete := pending.Complete(nil)
	complete.URL = url
	emit.Emit(complete)
	return url, nil
}

func verification(data []byte) domain.Verification {
	return domain.Verification{
		Method: VerificationMethodKeccak,
		Data:   hexutil.Encode(crypto.Keccak256(data)),
	}
}

func imageContentType(a domain.AssetInput) (string, error) {
	if len(a.Data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrInvalidFileType, a.FileName)
	}
	if a.ContentType != "" {
		if lo.Contains(lo.Values(imageContentTypes), a.ContentType) {
			return a.ContentType, nil
		}
		return "", fmt.Errorf("%w: %s is not a supported image type", domain.ErrInvalidFileType, a.ContentType)
	}
	if ct, ok := imageContentTypes[a.Extension()]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("%w: %s is not a supported image", domain.ErrInvalidFileType, a.FileName)
}

func assetContentType(a domain.AssetInput) (string, error) {
	if ct, err := imageContentType(a); err == nil {
		return ct, nil
	}
	if len(a.Data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", domain.ErrInvalidFileType, a.FileName)
	}
	if a.ContentType != "" {
		if lo.Contains(lo.Values(assetContentTypes), a.ContentType) {
			return a.ContentType, nil
		}
		return "", fmt.Errorf("%w: %s is not a supported asset type", domain.ErrInvalidFileType, a.ContentType)
	}
	if ct, ok := assetContentTypes[a.Extension()]; ok {
		return ct, nil
	}
	return "", fmt.Errorf("%w: %s is not a supported asset", domain.ErrInvalidFileType, a.FileName)
}
