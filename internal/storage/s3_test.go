package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type uploaderStub struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (u *uploaderStub) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	u.input = input
	data, _ := io.ReadAll(input.Body)
	u.body = string(data)
	if u.err != nil {
		return nil, u.err
	}
	return &manager.UploadOutput{}, nil
}

func TestS3StorageSave(t *testing.T) {
	up := &uploaderStub{}
	s := NewS3StorageWithUploader(up, "posters", "https://cdn.example.com/")

	location, err := s.Save(context.Background(), "/posters/abc.jpg", "image/jpeg", strings.NewReader("jpeg"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if location != "https://cdn.example.com/posters/abc.jpg" {
		t.Fatalf("unexpected location %q", location)
	}
	if aws.ToString(up.input.Key) != "posters/abc.jpg" || aws.ToString(up.input.Bucket) != "posters" {
		t.Fatalf("unexpected input %+v", up.input)
	}
	if aws.ToString(up.input.ContentType) != "image/jpeg" || up.body != "jpeg" {
		t.Fatalf("unexpected upload content %q %q", aws.ToString(up.input.ContentType), up.body)
	}
}

func TestS3StorageSaveWithoutBaseURL(t *testing.T) {
	s := NewS3StorageWithUploader(&uploaderStub{}, "bucket", "")
	location, err := s.Save(context.Background(), "a.png", "", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if location != "s3://bucket/a.png" {
		t.Fatalf("unexpected location %q", location)
	}
}

func TestS3StorageSaveErrors(t *testing.T) {
	s := NewS3StorageWithUploader(&uploaderStub{err: errors.New("denied")}, "bucket", "")
	if _, err := s.Save(context.Background(), "a.png", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected upload error")
	}
	if _, err := s.Save(context.Background(), "/", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected empty key error")
	}
}
