package publish

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rotblauer/tempd/params"
	"github.com/rotblauer/tempd/raster"
	"github.com/tidwall/gjson"
)

type fakeUploader struct {
	objects map[string][]byte
	types   map[string]string
	fail    bool
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return f.UploadWithContext(context.Background(), in, opts...)
}

func (f *fakeUploader) UploadWithContext(ctx aws.Context, in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.fail {
		return nil, errors.New("boom")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = b
	f.types[*in.Key] = *in.ContentType
	return &s3manager.UploadOutput{}, nil
}

func testStack() *raster.Stack {
	return &raster.Stack{
		Width:  2,
		Height: 1,
		Layers: []*image.NRGBA{
			image.NewNRGBA(image.Rect(0, 0, 2, 1)),
			image.NewNRGBA(image.Rect(0, 0, 2, 1)),
		},
	}
}

func TestPublishStack(t *testing.T) {
	up := &fakeUploader{objects: map[string][]byte{}, types: map[string]string{}}
	p := newS3(&params.S3Config{Bucket: "b", Prefix: "tempd"}, up)
	key, err := p.PublishStack(context.Background(), "run1", testStack())
	if err != nil {
		t.Fatal(err)
	}
	if key != "tempd/run1/manifest.json" {
		t.Errorf("manifest key = %s", key)
	}
	if len(up.objects) != 3 {
		t.Errorf("uploaded %d objects, want 3", len(up.objects))
	}
	if up.types["tempd/run1/t001.png"] != "image/png" {
		t.Errorf("layer content type = %q", up.types["tempd/run1/t001.png"])
	}
	m := gjson.ParseBytes(up.objects[key])
	if m.Get("layers.#").Int() != 2 || m.Get("width").Int() != 2 {
		t.Errorf("manifest = %s", m.Raw)
	}
}

func TestPublishStackError(t *testing.T) {
	p := newS3(&params.S3Config{Bucket: "b"}, &fakeUploader{fail: true})
	if _, err := p.PublishStack(context.Background(), "x", testStack()); err == nil {
		t.Error("expected upload error")
	}
}
