package vfs

import "fmt"

// Kind is the closed set of entity variants.
//
// Containers (root, drive, folder) may hold children; every other kind is a
// leaf. Adding a kind means extending the switches below, which the
// exhaustive-switch linters flag at every use site.
type Kind string

const (
	KindRoot        Kind = "root"
	KindDrive       Kind = "drive"
	KindFolder      Kind = "folder"
	KindFile        Kind = "file"
	KindImage       Kind = "image"
	KindPDF         Kind = "pdf"
	KindSpreadsheet Kind = "spreadsheet"
	KindDocument    Kind = "document"
	KindVideo       Kind = "video"
	KindAudio       Kind = "audio"
	KindApp         Kind = "app"
)

// Kinds lists every valid kind in declaration order.
var Kinds = []Kind{
	KindRoot, KindDrive, KindFolder,
	KindFile, KindImage, KindPDF, KindSpreadsheet, KindDocument, KindVideo, KindAudio, KindApp,
}

// ParseKind converts a stored or user supplied kind name into a Kind.
//
// The legacy names "excel" and "word" written by older records are accepted
// as aliases of spreadsheet and document.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRoot, KindDrive, KindFolder, KindFile, KindImage, KindPDF,
		KindSpreadsheet, KindDocument, KindVideo, KindAudio, KindApp:
		return Kind(s), nil
	}

	switch s {
	case "excel":
		return KindSpreadsheet, nil
	case "word":
		return KindDocument, nil
	}

	return "", fmt.Errorf("unknown entity kind %q", s)
}

// IsContainer reports whether entities of this kind may hold children.
func (k Kind) IsContainer() bool {
	switch k {
	case KindRoot, KindDrive, KindFolder:
		return true
	case KindFile, KindImage, KindPDF, KindSpreadsheet, KindDocument, KindVideo, KindAudio, KindApp:
		return false
	default:
		return false
	}
}

// IsMedia reports whether the kind gets a session-local media handle bound
// to its payload (previewable content).
func (k Kind) IsMedia() bool {
	switch k {
	case KindImage, KindVideo, KindAudio:
		return true
	case KindRoot, KindDrive, KindFolder, KindFile, KindPDF, KindSpreadsheet, KindDocument, KindApp:
		return false
	default:
		return false
	}
}

// idPrefix is the prefix used for generated identifiers.
func (k Kind) idPrefix() string {
	switch k {
	case KindRoot:
		return "root"
	case KindDrive:
		return "drive"
	case KindFolder:
		return "folder"
	case KindApp:
		return "app"
	case KindFile, KindImage, KindPDF, KindSpreadsheet, KindDocument, KindVideo, KindAudio:
		return "file"
	default:
		return "item"
	}
}

func (k Kind) String() string { return string(k) }
