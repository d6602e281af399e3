// Package publish uploads rendered stacks for remote renderers.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/rotblauer/tempd/params"
	"github.com/rotblauer/tempd/raster"
)

type S3 struct {
	config   *params.S3Config
	uploader s3manageriface.UploaderAPI
	logger   *slog.Logger
}

// NewS3 uses the AWS environment and shared config for credentials.
func NewS3(config *params.S3Config) (*S3, error) {
	awsConfig := &aws.Config{}
	if config.Region != "" {
		awsConfig.Region = aws.String(config.Region)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}
	return newS3(config, s3manager.NewUploader(sess)), nil
}

func newS3(config *params.S3Config, uploader s3manageriface.UploaderAPI) *S3 {
	return &S3{
		config:   config,
		uploader: uploader,
		logger:   slog.With("d", "s3"),
	}
}

// Manifest describes an uploaded stack.
type Manifest struct {
	Name   string   `json:"name"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Level  int      `json:"level"`
	Layers []string `json:"layers"`
}

// PublishStack uploads every layer as PNG under <prefix>/<name>/ followed
// by a manifest.json listing them. It returns the manifest key.
func (p *S3) PublishStack(ctx context.Context, name string, s *raster.Stack) (string, error) {
	dir := path.Join(p.config.Prefix, name)
	m := Manifest{Name: name, Width: s.Width, Height: s.Height, Level: s.Level}
	for t := 0; t < s.Len(); t++ {
		buf := &bytes.Buffer{}
		if err := s.EncodePNG(buf, t); err != nil {
			return "", err
		}
		key := path.Join(dir, raster.LayerName(t))
		if err := p.put(ctx, key, "image/png", buf.Bytes()); err != nil {
			return "", err
		}
		m.Layers = append(m.Layers, key)
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	key := path.Join(dir, "manifest.json")
	if err := p.put(ctx, key, "application/json", b); err != nil {
		return "", err
	}
	p.logger.Info("Published stack to S3", "bucket", p.config.Bucket, "manifest", key, "layers", len(m.Layers))
	return key, nil
}

func (p *S3) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(p.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == request.CanceledErrorCode {
			p.logger.Error("AWS S3 upload canceled", "key", key, "error", err)
		} else {
			p.logger.Error("Failed to upload object", "key", key, "error", err)
		}
		return err
	}
	return nil
}
