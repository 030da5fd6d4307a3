package pds

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// offerReferenceType is the fixed reference type for offer attachments
const offerReferenceType = "ANGEBOT"

// Errors for upload validation
var (
	ErrUploadNoContent          = errors.New("pds: no file content provided")
	ErrUploadNoOfferUUID        = errors.New("pds: no offer uuid provided")
	ErrUploadNoDocumentTypeUUID = errors.New("pds: no document type uuid provided")
	ErrUploadInvalidBase64      = errors.New("pds: invalid base64 content")
)

// UploadRequest attaches one file to an offer
type UploadRequest struct {
	// Base64Content is the file content, optionally with a data-URL
	// prefix such as "data:application/pdf;base64,"
	Base64Content string
	// OfferUUID is the offer the file is attached to
	OfferUUID string
	// DocumentTypeUUID overrides the configured default type
	DocumentTypeUUID string
	// FileName is optional; a default is derived from the offer uuid
	FileName string
}

// UploadResult reports one stored attachment
type UploadResult struct {
	// DocumentUUID is the id the backend filed the attachment under
	DocumentUUID string
	// FileName is the stored file name
	FileName string
	// DocumentType is the backend's document type label
	DocumentType string
}

// UploadDocument uploads a base64 encoded file and attaches it to an
// offer as multipart form data.
func (a *Adapter) UploadDocument(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if req.Base64Content == "" {
		return nil, ErrUploadNoContent
	}
	if req.OfferUUID == "" {
		return nil, ErrUploadNoOfferUUID
	}
	typeUUID := req.DocumentTypeUUID
	if typeUUID == "" {
		typeUUID = a.config.DocumentTypeUUID
	}
	if typeUUID == "" {
		return nil, ErrUploadNoDocumentTypeUUID
	}

	// Strip a data-URL prefix before decoding
	content := req.Base64Content
	if i := strings.IndexByte(content, ','); i >= 0 {
		content = content[i+1:]
	}
	fileData, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadInvalidBase64, err)
	}

	fileName := req.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("document_%s.pdf", req.OfferUUID)
	}
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	partHeader.Set("Content-Type", contentType)
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("pds: failed to build multipart body: %w", err)
	}
	if _, err := part.Write(fileData); err != nil {
		return nil, fmt.Errorf("pds: failed to build multipart body: %w", err)
	}
	_ = writer.WriteField("dokumententypUUID", typeUUID)
	_ = writer.WriteField("referenzVorgangUUIDOpt", req.OfferUUID)
	_ = writer.WriteField("referenzVorgangtypOpt", offerReferenceType)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("pds: failed to build multipart body: %w", err)
	}

	uploadURL := a.config.BaseURL + "/api/dokument/uploaddokument"
	body, err := a.doRequest(ctx, http.MethodPost, uploadURL, &buf, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var reply struct {
		UUID         string `json:"uuid"`
		FileName     string `json:"fileName"`
		DocumentType struct {
			Label string `json:"bezeichnung"`
		} `json:"dokumententyp"`
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &reply)
	}

	a.logger.Info("document uploaded",
		zap.String("offer_uuid", req.OfferUUID),
		zap.String("document_uuid", reply.UUID),
		zap.String("file_name", fileName),
		zap.Int("bytes", len(fileData)))

	return &UploadResult{
		DocumentUUID: reply.UUID,
		FileName:     reply.FileName,
		DocumentType: reply.DocumentType.Label,
	}, nil
}
