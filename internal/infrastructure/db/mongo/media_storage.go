package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jingally/booking-system/internal/core/domain"
	"github.com/jingally/booking-system/internal/core/ports"
)

const (
	mediaBucket   = "media"
	mediaPath     = "/media/"
	uploadTimeout = 30 * time.Second
)

// MediaStorage keeps uploaded photos in a GridFS bucket and serves them back
// under PUBLIC_BASE_URL/media/<id>.
type MediaStorage struct {
	db      *mongo.Database
	baseURL string
}

func NewMediaStorage(db *mongo.Database, publicBaseURL string) *MediaStorage {
	return &MediaStorage{db: db, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// bucket returns a fresh handle; GridFS deadlines are per bucket so uploads
// running in parallel must not share one.
func (s *MediaStorage) bucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(s.db, options.GridFSBucket().SetName(mediaBucket))
}

// Upload stores the file as <folder>/<uuid> and returns its public URL.
func (s *MediaStorage) Upload(ctx context.Context, file ports.FileUpload, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := s.bucket()
	if err != nil {
		return "", fmt.Errorf("gridfs bucket: %w", err)
	}

	deadline := time.Now().Add(uploadTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := b.SetWriteDeadline(deadline); err != nil {
		return "", err
	}

	name := folder + "/" + uuid.NewString()
	opts := options.GridFSUpload().SetMetadata(bson.M{
		"content_type":  http.DetectContentType(file.Data),
		"original_name": file.Filename,
	})

	id, err := b.UploadFromStream(name, bytes.NewReader(file.Data), opts)
	if err != nil {
		return "", fmt.Errorf("gridfs upload %s: %w", file.Filename, err)
	}
	return s.URL(id.Hex()), nil
}

// Delete removes the object a URL from Upload points at.
func (s *MediaStorage) Delete(ctx context.Context, url string) error {
	oid, err := objectIDFromURL(url)
	if err != nil {
		return err
	}
	b, err := s.bucket()
	if err != nil {
		return fmt.Errorf("gridfs bucket: %w", err)
	}
	if d, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(d); err != nil {
			return err
		}
	}
	if err := b.Delete(oid); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("gridfs delete %s: %w", oid.Hex(), err)
	}
	return nil
}

func objectIDFromURL(url string) (primitive.ObjectID, error) {
	i := strings.LastIndex(url, mediaPath)
	if i < 0 {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", domain.ErrMediaNotFound, url)
	}
	oid, err := primitive.ObjectIDFromHex(url[i+len(mediaPath):])
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %s", domain.ErrMediaNotFound, url)
	}
	return oid, nil
}

// URL returns the public address of the object with the given hex id.
func (s *MediaStorage) URL(id string) string {
	return s.baseURL + mediaPath + id
}

// Open returns a stream over the stored object.
func (s *MediaStorage) Open(ctx context.Context, id string) (*ports.MediaObject, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrMediaNotFound
	}
	b, err := s.bucket()
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	if d, ok := ctx.Deadline(); ok {
		if err := b.SetReadDeadline(d); err != nil {
			return nil, err
		}
	}

	stream, err := b.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.ErrMediaNotFound
		}
		return nil, fmt.Errorf("gridfs open: %w", err)
	}

	file := stream.GetFile()
	contentType := "application/octet-stream"
	if v, ok := file.Metadata.Lookup("content_type").StringValueOK(); ok && v != "" {
		contentType = v
	}
	return &ports.MediaObject{ReadCloser: stream, ContentType: contentType, Size: file.Length}, nil
}
