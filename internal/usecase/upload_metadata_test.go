package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/profile-factory/internal/adapters/metadata"
	"github.com/trebuchet-org/profile-factory/internal/domain"
	"github.com/trebuchet-org/profile-factory/internal/usecase"
)

// MockUploader is a mock implementation of Uploader
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, name, data, contentType)
	return args.String(0), args.Error(1)
}

// fakeImages returns one variant per width, tagging the data with the width
type fakeImages struct{}

func (fakeImages) Resize(_ context.Context, img domain.ImageInput, widths []int) ([]usecase.ResizedImage, error) {
	out := make([]usecase.ResizedImage, len(widths))
	for i, w := range widths {
		out[i] = usecase.ResizedImage{
			Width:       w,
			Height:      w / 2,
			ContentType: "image/png",
			Data:        []byte(fmt.Sprintf("%s@%d", img.Data, w)),
		}
	}
	return out, nil
}

func newUploadMetadata(uploader usecase.Uploader) *usecase.UploadMetadata {
	return usecase.NewUploadMetadata(uploader, metadata.NewJSONURLEncoder(), fakeImages{}, testLogger()).
		WithBreakpoints([]int{640, 180})
}

func TestUploadMetadata_NilSource(t *testing.T) {
	result, err := newUploadMetadata(nil).Run(context.Background(), nil, nil, usecase.NewEventStream("m"))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestUploadMetadata_EncodedPassthrough(t *testing.T) {
	uploader := &MockUploader{}
	src, err := domain.EncodedMetadata(planMetadata)
	require.NoError(t, err)

	result, err := newUploadMetadata(uploader).Run(context.Background(), src, nil, usecase.NewEventStream("m"))
	require.NoError(t, err)
	assert.Equal(t, planMetadata, result.Encoded)
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadMetadata_UploadedDocumentIsOnlyEncoded(t *testing.T) {
	doc := json.RawMessage(`{"LSP3Profile":{"name":"alice"}}`)
	src, err := domain.UploadedMetadata(doc, "ipfs://QmDoc")
	require.NoError(t, err)

	result, err := newUploadMetadata(&MockUploader{}).Run(context.Background(), src, nil, usecase.NewEventStream("m"))
	require.NoError(t, err)

	want := append(append([]byte{}, domain.JSONURLPrefix...), crypto.Keccak256(doc)...)
	want = append(want, "ipfs://QmDoc"...)
	assert.Equal(t, want, result.Encoded)
	assert.Equal(t, "ipfs://QmDoc", result.URL)
}

func TestUploadMetadata_Draft(t *testing.T) {
	uploader := &MockUploader{}
	for _, name := range []string{"me-640x320", "me-180x90", "avatar[0]", "metadata.json"} {
		uploader.On("Upload", mock.Anything, name, mock.Anything, mock.Anything).
			Return("ipfs://"+strings.NewReplacer("[", "", "]", "").Replace(name), nil).Once()
	}

	draft := &domain.ProfileDraft{
		Name:         "alice",
		Description:  "hello",
		Tags:         []string{"profile"},
		ProfileImage: &domain.ImageInput{AssetInput: domain.AssetInput{FileName: "me.png", Data: []byte("img")}},
		Avatar:       []domain.AssetInput{{FileName: "me.glb", Data: []byte("model")}},
	}
	src, err := domain.MetadataToUpload(draft)
	require.NoError(t, err)

	stream := usecase.NewEventStream("m")
	result, err := newUploadMetadata(uploader).Run(context.Background(), src, nil, stream)
	require.NoError(t, err)

	var doc domain.ProfileDocument
	require.NoError(t, json.Unmarshal(result.JSON, &doc))
	assert.Equal(t, "alice", doc.Profile.Name)
	assert.Equal(t, []string{"profile"}, doc.Profile.Tags)
	assert.Empty(t, doc.Profile.BackgroundImage)
	assert.NotNil(t, doc.Profile.Links)

	require.Len(t, doc.Profile.ProfileImage, 2)
	assert.Equal(t, 640, doc.Profile.ProfileImage[0].Width)
	assert.Equal(t, 320, doc.Profile.ProfileImage[0].Height)
	assert.Equal(t, "ipfs://me-640x320", doc.Profile.ProfileImage[0].URL)
	assert.Equal(t, usecase.VerificationMethodKeccak, doc.Profile.ProfileImage[0].Verification.Method)
	assert.Equal(t, hexutil.Encode(crypto.Keccak256([]byte("img@640"))), doc.Profile.ProfileImage[0].Verification.Data)

	require.Len(t, doc.Profile.Avatar, 1)
	assert.Equal(t, "model/gltf-binary", doc.Profile.Avatar[0].FileType)
	assert.Equal(t, "ipfs://avatar0", doc.Profile.Avatar[0].URL)

	assert.Equal(t, "ipfs://metadata.json", result.URL)
	decoded, err := metadata.NewJSONURLEncoder().Decode(result.Encoded)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256(result.JSON), decoded.Hash)

	// two image variants, one avatar, one document
	uploader.AssertNumberOfCalls(t, "Upload", 4)
	uploader.AssertCalled(t, "Upload", mock.Anything, "metadata.json", []byte(result.JSON), "application/json")

	history := stream.History()
	require.Len(t, history, 8)
	for i := 0; i < len(history); i += 2 {
		assert.Equal(t, domain.StatusPending, history[i].Status)
		assert.Equal(t, domain.StatusComplete, history[i+1].Status)
		assert.Equal(t, domain.EventMetadataUpload, history[i+1].Kind)
		assert.NotEmpty(t, history[i+1].URL)
	}
	assert.Empty(t, stream.Partial(), "uploads do not add result entries")
}

func TestUploadMetadata_PerCallUploaderOverridesDefault(t *testing.T) {
	defaultUploader := &MockUploader{}
	override := &MockUploader{}
	override.On("Upload", mock.Anything, "metadata.json", mock.Anything, "application/json").Return("ipfs://override", nil)

	src, err := domain.MetadataToUpload(&domain.ProfileDraft{Name: "bob"})
	require.NoError(t, err)

	result, err := newUploadMetadata(defaultUploader).Run(context.Background(), src, override, usecase.NewEventStream("m"))
	require.NoError(t, err)
	assert.Equal(t, "ipfs://override", result.URL)
	defaultUploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	override.AssertExpectations(t)
}

func TestUploadMetadata_InvalidFileTypeFailsBeforeUpload(t *testing.T) {
	uploader := &MockUploader{}
	src, err := domain.MetadataToUpload(&domain.ProfileDraft{
		Name:         "carol",
		ProfileImage: &domain.ImageInput{AssetInput: domain.AssetInput{FileName: "me.png", Data: []byte("img")}},
		Avatar:       []domain.AssetInput{{FileName: "notes.txt", Data: []byte("text")}},
	})
	require.NoError(t, err)

	_, err = newUploadMetadata(uploader).Run(context.Background(), src, nil, usecase.NewEventStream("m"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidFileType)

	var uploadErr *domain.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "avatar[0]", uploadErr.Name)
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadMetadata_UploaderFailure(t *testing.T) {
	uploader := &MockUploader{}
	boom := errors.New("gateway unavailable")
	uploader.On("Upload", mock.Anything, "metadata.json", mock.Anything, mock.Anything).Return("", boom)

	src, err := domain.MetadataToUpload(&domain.ProfileDraft{Name: "dave"})
	require.NoError(t, err)

	_, err = newUploadMetadata(uploader).Run(context.Background(), src, nil, usecase.NewEventStream("m"))
	var uploadErr *domain.UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "metadata.json", uploadErr.Name)
	assert.ErrorIs(t, err, boom)
}

func TestUploadMetadata_DraftWithoutUploader(t *testing.T) {
	src, err := domain.MetadataToUpload(&domain.ProfileDraft{Name: "erin"})
	require.NoError(t, err)

	_, err = newUploadMetadata(nil).Run(context.Background(), src, nil, usecase.NewEventStream("m"))
	var uploadErr *domain.UploadError
	assert.ErrorAs(t, err, &uploadErr)
	assert.ErrorIs(t, err, usecase.ErrNoUploader)
	assert.False(t, newUploadMetadata(nil).CanUpload(nil))
	assert.True(t, newUploadMetadata(nil).CanUpload(&MockUploader{}))
}

func TestValidateDraft_ReportsImagesInFieldOrder(t *testing.T) {
	draft := &domain.ProfileDraft{
		Name:            "frank",
		ProfileImage:    &domain.ImageInput{AssetInput: domain.AssetInput{FileName: "me.bmp", Data: []byte("img")}},
		BackgroundImage: &domain.ImageInput{AssetInput: domain.AssetInput{FileName: "bg.tiff", Data: []byte("img")}},
	}
	for i := 0; i < 20; i++ {
		var uploadErr *domain.UploadError
		require.ErrorAs(t, usecase.ValidateDraft(draft), &uploadErr)
		assert.Equal(t, "profileImage", uploadErr.Name)
	}

	draft.ProfileImage = nil
	var uploadErr *domain.UploadError
	require.ErrorAs(t, usecase.ValidateDraft(draft), &uploadErr)
	assert.Equal(t, "backgroundImage", uploadErr.Name)
}
