package domain

// Document is one uploaded file handed to the AI collaborators.
type Document struct {
	Name     string
	MimeType string
	Data     []byte
}

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimePDF  = "application/pdf"
)

func SupportedMimeType(mime string) bool {
	switch mime {
	case MimeJPEG, MimePNG, MimePDF:
		return true
	default:
		return false
	}
}
