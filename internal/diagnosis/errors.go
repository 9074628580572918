package diagnosis

import "errors"

var (
	// ErrUnsupportedMediaType is returned for uploads that are not JPEG or PNG.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrInvalidImage is returned when the upload cannot be decoded.
	ErrInvalidImage = errors.New("invalid image file")
)
