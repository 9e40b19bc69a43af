package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"

	"Foodgram-Backend/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	AllowImage = []string{"jpg", "jpeg", "png", "gif", "webp"}

	ErrInvalidImagePayload = errors.New("invalid base64 image payload")
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
)

type (
	AwsS3 interface {
		UploadBase64Image(fileName string, data string, dir string, allowExt ...string) (string, error)
		DeleteFile(objectKey string) error
		GetObjectKeyFromLink(link string) string
		GetPublicLinkKey(objectKey string) string
	}

	awsS3 struct {
		client *s3.Client
		bucket string
		region string
	}
)

func NewAwsS3() AwsS3 {
	region := utils.GetConfig("AWS_S3_REGION")
	cfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			utils.GetConfig("AWS_ACCESS_KEY"),
			utils.GetConfig("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		log.Fatalf("error loading AWS configuration: %v", err)
	}

	return &awsS3{
		client: s3.NewFromConfig(cfg),
		bucket: utils.GetConfig("AWS_S3_BUCKET"),
		region: region,
	}
}

// UploadBase64Image stores a data-URI encoded image ("data:image/png;base64,...")
// and returns the object key.
func (a *awsS3) UploadBase64Image(fileName string, data string, dir string, allowExt ...string) (string, error) {
	if !strings.HasPrefix(data, "data:") {
		return "", ErrInvalidImagePayload
	}
	meta, payload, found := strings.Cut(data, ";base64,")
	if !found {
		return "", ErrInvalidImagePayload
	}
	ext := strings.TrimPrefix(meta, "data:image/")
	if ext == meta || ext == "" {
		return "", ErrInvalidImagePayload
	}

	allowed := false
	for _, allow := range allowExt {
		if ext == allow {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", ErrExtensionNotAllowed
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrInvalidImagePayload
	}

	objectKey := fmt.Sprintf("%s/%s.%s", dir, fileName, ext)
	_, err = a.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(decoded),
		ContentType: aws.String("image/" + ext),
	})
	if err != nil {
		return "", err
	}

	return objectKey, nil
}

func (a *awsS3) DeleteFile(objectKey string) error {
	_, err := a.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey),
	})
	return err
}

func (a *awsS3) GetObjectKeyFromLink(link string) string {
	prefix := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/", a.bucket, a.region)
	return strings.TrimPrefix(link, prefix)
}

func (a *awsS3) GetPublicLinkKey(objectKey string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, objectKey)
}
