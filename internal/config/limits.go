package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxFolderNameLength = 255

	// MaxDocumentNameLength is the maximum length for document names.
	// Same as folder names for consistency.
	MaxDocumentNameLength = 255

	// MaxDepartmentLength is the maximum length for the department tag.
	MaxDepartmentLength = 100

	// MaxDescriptionLength caps folder descriptions.
	MaxDescriptionLength = 2000

	// MaxUploadBytes caps a single upload body. Oversize uploads are rejected
	// before hashing.
	MaxUploadBytes = 100 << 20
)
