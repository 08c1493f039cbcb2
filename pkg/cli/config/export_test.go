package config

import "github.com/secmon-lab/wrongbook/pkg/service/blob"

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(client, apiKey, projectID, location, model string) *Gemini {
	return &Gemini{
		client:    client,
		apiKey:    apiKey,
		projectID: projectID,
		location:  location,
		model:     model,
	}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewLocalStoreForTest(backend, path string) *LocalStore {
	return &LocalStore{backend: backend, path: path}
}

func NewRemoteForTest(backend, projectID, mongoURI string) *Remote {
	return &Remote{backend: backend, projectID: projectID, mongoURI: mongoURI}
}

func NewBlobForTest(backend, gcsBucket string, s3 blob.S3Config) *Blob {
	return &Blob{backend: backend, gcsBucket: gcsBucket, s3: s3}
}

func NewAuthForTest(firebaseProject, noAuthnUID string) *Auth {
	return &Auth{firebaseProject: firebaseProject, noAuthnUID: noAuthnUID}
}

func NewSentryForTest(dsn string) *Sentry {
	return &Sentry{dsn: dsn}
}

var ModelName = (*Gemini).modelName
