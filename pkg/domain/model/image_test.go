package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/wrongbook/pkg/domain/model"
)

func TestParseInlineImage(t *testing.T) {
	t.Run("data URL keeps media type", func(t *testing.T) {
		img, err := model.ParseInlineImage("data:image/png;base64,aGVsbG8=")
		gt.NoError(t, err).Required()
		gt.Value(t, img.MimeType).Equal("image/png")
		gt.Value(t, img.Data).Equal("aGVsbG8=")

		raw, err := img.Decode()
		gt.NoError(t, err).Required()
		gt.Value(t, string(raw)).Equal("hello")
	})

	t.Run("raw payload assumes jpeg", func(t *testing.T) {
		img, err := model.ParseInlineImage("aGVsbG8=")
		gt.NoError(t, err).Required()
		gt.Value(t, img.MimeType).Equal(model.DefaultImageMimeType)
		gt.Value(t, img.DataURL()).Equal("data:image/jpeg;base64,aGVsbG8=")
	})

	t.Run("remote reference is rejected", func(t *testing.T) {
		_, err := model.ParseInlineImage("https://example.com/a.jpg")
		gt.Error(t, err)
	})

	t.Run("non base64 reference is rejected", func(t *testing.T) {
		_, err := model.ParseInlineImage("gs://bucket/a.jpg")
		gt.Error(t, err)
	})

	t.Run("data URL without separator is rejected", func(t *testing.T) {
		_, err := model.ParseInlineImage("data:image/png;base64")
		gt.Error(t, err)
	})

	t.Run("invalid base64 fails to decode", func(t *testing.T) {
		img, err := model.ParseInlineImage("data:image/png;base64,!!!")
		gt.NoError(t, err).Required()
		_, err = img.Decode()
		gt.Error(t, err)
	})
}

func TestIsInlineImage(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want bool
	}{
		{name: "data URL", ref: "data:image/png;base64,AAAA", want: true},
		{name: "raw base64", ref: "AAAA", want: true},
		{name: "raw base64 with padding", ref: "aGVsbG8=", want: true},
		{name: "https URL", ref: "https://storage.googleapis.com/b/o.jpg", want: false},
		{name: "http URL", ref: "http://localhost/o.jpg", want: false},
		{name: "gs URL", ref: "gs://bucket/users/u/images/1_a.jpg", want: false},
		{name: "relative path", ref: "images/question.jpg", want: false},
		{name: "bad length", ref: "AAA", want: false},
		{name: "too much padding", ref: "A===", want: false},
		{name: "empty", ref: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.IsInlineImage(tt.ref)).Equal(tt.want)
		})
	}
}

func TestNewInlineImage(t *testing.T) {
	img := model.NewInlineImage("", []byte("hello"))
	gt.Value(t, img.DataURL()).Equal("data:image/jpeg;base64,aGVsbG8=")
}
