package types

// EnvelopeKind tags the payload carried by an Envelope.
type EnvelopeKind string

const (
	// EnvelopeMessage carries an armored, encrypted text message.
	EnvelopeMessage EnvelopeKind = "message"
	// EnvelopeFile carries an encrypted binary file.
	EnvelopeFile EnvelopeKind = "file"
)

// FileMetadata travels beside an encrypted file, in clear.
type FileMetadata struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MIME     string `json:"mime"`
}

// Envelope is the wire payload exchanged over a Link.
type Envelope struct {
	Kind       EnvelopeKind  `json:"kind"`
	Ciphertext []byte        `json:"ciphertext"`
	Metadata   *FileMetadata `json:"metadata,omitempty"`
}
