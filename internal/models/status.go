package models

/*
Classification status constants for use throughout the codebase.
Centralizing these avoids magic strings in handlers and CLI output.
*/

type ClassificationStatus string

const (
	StatusIdle    ClassificationStatus = "idle"
	StatusLoading ClassificationStatus = "loading"
	StatusSuccess ClassificationStatus = "success"
	StatusError   ClassificationStatus = "error"
)

// Service type constants used when recording usage.
const (
	ServiceTypeClassification = "classification"
)
