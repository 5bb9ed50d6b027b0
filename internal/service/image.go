package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/eatyaar/backend/config"
)

var ErrUnsupportedImageType = errors.New("unsupported image type")

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ImageService stores listing photos in S3 and hands back public URLs.
type ImageService struct {
	s3Config *config.S3Config
}

func NewImageService(s3Config *config.S3Config) *ImageService {
	return &ImageService{s3Config: s3Config}
}

// UploadListingPhoto uploads the photo bytes under a listing-scoped key
// and returns its public URL.
func (s *ImageService) UploadListingPhoto(ctx context.Context, listingID uuid.UUID, fileName string, data []byte) (string, error) {
	ext := path.Ext(fileName)
	contentType, ok := imageContentTypes[ext]
	if !ok {
		return "", ErrUnsupportedImageType
	}

	key := fmt.Sprintf("listings/%s/%s%s", listingID, uuid.New(), ext)
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Printf("[ImageService] Uploaded listing photo: %s", publicURL)
	return publicURL, nil
}
