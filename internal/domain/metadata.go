package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// JSONURLPrefix marks a value already encoded in the on-chain metadata format:
// the keccak256(utf8) hash function tag. The 32 byte hash and the URL follow.
var JSONURLPrefix = []byte{0x6f, 0x35, 0x7c, 0x6a}

// HashFunctionKeccakUTF8 is the name of the only hash function the encoder emits
const HashFunctionKeccakUTF8 = "keccak256(utf8)"

// MetadataSource is the closed set of metadata inputs a deployment accepts.
// Values are built with EncodedMetadata, UploadedMetadata or MetadataToUpload.
// A nil MetadataSource means the account gets no metadata entry.
type MetadataSource interface {
	isMetadataSource()
}

// EncodedMetadataSource carries bytes already in the on-chain format
type EncodedMetadataSource struct {
	Data []byte
}

// UploadedMetadataSource carries a document that already lives at URL and only needs encoding
type UploadedMetadataSource struct {
	JSON json.RawMessage
	URL  string
}

// DraftMetadataSource carries raw inputs that must be uploaded first
type DraftMetadataSource struct {
	Draft *ProfileDraft
}

func (EncodedMetadataSource) isMetadataSource()  {}
func (UploadedMetadataSource) isMetadataSource() {}
func (DraftMetadataSource) isMetadataSource()    {}

// EncodedMetadata wraps pre-encoded bytes. The bytes must start with JSONURLPrefix.
func EncodedMetadata(data []byte) (MetadataSource, error) {
	if !IsEncodedMetadata(data) {
		return nil, fmt.Errorf("%w: value does not start with the JSONURL marker", ErrInvalidMetadata)
	}
	return EncodedMetadataSource{Data: bytes.Clone(data)}, nil
}

// UploadedMetadata wraps a document already uploaded at url
func UploadedMetadata(doc json.RawMessage, url string) (MetadataSource, error) {
	if !json.Valid(doc) {
		return nil, fmt.Errorf("%w: document is not valid JSON", ErrInvalidMetadata)
	}
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL", ErrInvalidMetadata)
	}
	return UploadedMetadataSource{JSON: bytes.Clone(doc), URL: url}, nil
}

// MetadataToUpload wraps a draft whose assets still need to be uploaded
func MetadataToUpload(draft *ProfileDraft) (MetadataSource, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: nil draft", ErrInvalidMetadata)
	}
	return DraftMetadataSource{Draft: draft}, nil
}

// IsEncodedMetadata reports whether data carries the JSONURL marker
func IsEncodedMetadata(data []byte) bool {
	return len(data) > len(JSONURLPrefix) && bytes.HasPrefix(data, JSONURLPrefix)
}

// ProfileDraft is a profile description before upload
type ProfileDraft struct {
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Tags            []string     `json:"tags,omitempty"`
	Links           []Link       `json:"links,omitempty"`
	ProfileImage    *ImageInput  `json:"-"`
	BackgroundImage *ImageInput  `json:"-"`
	Avatar          []AssetInput `json:"-"`
}

// Link is a titled URL on a profile
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AssetInput is a raw file to upload as-is
type AssetInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ImageInput is a raw image resized to every breakpoint before upload
type ImageInput struct {
	AssetInput
}

// Extension returns the lower-cased file extension without the dot
func (a AssetInput) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(a.FileName)), ".")
}

// Images returns the images set on the draft, profile image first
func (d *ProfileDraft) Images() []NamedImage {
	out := make([]NamedImage, 0, 2)
	if d.ProfileImage != nil {
		out = append(out, NamedImage{Field: "profileImage", Image: d.ProfileImage})
	}
	if d.BackgroundImage != nil {
		out = append(out, NamedImage{Field: "backgroundImage", Image: d.BackgroundImage})
	}
	return out
}

// NamedImage is a draft image with the document field it belongs to
type NamedImage struct {
	Field string
	Image *ImageInput
}

// UploadedImage is one resized variant of an image after upload
type UploadedImage struct {
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	URL          string       `json:"url"`
	Verification Verification `json:"verification"`
}

// UploadedAsset is a non-image file after upload
type UploadedAsset struct {
	FileType     string       `json:"fileType"`
	URL          string       `json:"url"`
	Verification Verification `json:"verification"`
}

// Verification records the hash of uploaded content
type Verification struct {
	Method string `json:"method"`
	Data   string `json:"data"`
}

// ProfileDocument is the canonical JSON uploaded for a profile
type ProfileDocument struct {
	Profile ProfileBody `json:"LSP3Profile"`
}

// ProfileBody is the content of a ProfileDocument
type ProfileBody struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Links           []Link          `json:"links"`
	Tags            []string        `json:"tags"`
	ProfileImage    []UploadedImage `json:"profileImage"`
	BackgroundImage []UploadedImage `json:"backgroundImage"`
	Avatar          []UploadedAsset `json:"avatar"`
}

// EncodedMetadataResult is the output of the metadata stage
type EncodedMetadataResult struct {
	JSON    json.RawMessage `json:"json,omitempty"`
	URL     string          `json:"url,omitempty"`
	Encoded []byte          `json:"encoded"`
}

// JSONURL is a decoded on-chain metadata value
type JSONURL struct {
	HashFunction string `json:"hashFunction"`
	Hash         []byte `json:"hash"`
	URL          string `json:"url"`
}
