package models

// GeneratedImage is the raw output of an image generation model.
type GeneratedImage struct {
	MIMEType string
	Data     []byte
}
