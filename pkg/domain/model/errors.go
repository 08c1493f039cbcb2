package model

import "errors"

// Sentinel errors shared by stores, blob services and the inference client.
// Wrap them with goerr and match with errors.Is.
var (
	ErrNotFound           = errors.New("mistake not found")
	ErrInvalidMistake     = errors.New("invalid mistake")
	ErrStorageUnavailable = errors.New("local storage unavailable")
	ErrDuplicateKey       = errors.New("mistake with the same id already exists")

	ErrImageDownloadFailed      = errors.New("image download failed")
	ErrImageUploadFailed        = errors.New("image upload failed")
	ErrImageTooLargeForFallback = errors.New("image too large to store inline after upload failure")

	ErrEmptyInferenceResponse = errors.New("inference provider returned no text")
	ErrMalformedResponse      = errors.New("inference provider returned malformed output")
)
