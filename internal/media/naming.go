package media

import (
	"fmt"
	"path"
	"strings"
)

var targetExtensions = map[Target]string{
	TargetJPEG: ".jpg",
	TargetPNG:  ".png",
	TargetWEBP: ".webp",
	TargetMP3:  ".mp3",
	TargetAAC:  ".m4a",
	TargetOGG:  ".ogg",
	TargetOPUS: ".opus",
	TargetWAV:  ".wav",
	TargetWEBM: ".webm",
	TargetPDF:  ".pdf",
}

// Extension returns the file extension (with dot) for a target, ".bin" when unknown.
func Extension(t Target) string {
	if ext, ok := targetExtensions[t]; ok {
		return ext
	}
	return ".bin"
}

// ReplaceExtension swaps the extension of the last path element of name for ext.
// Names without an extension get ext appended. Directory components are kept.
//
//	ReplaceExtension("a.b.heic", ".jpg")      == "a.b.jpg"
//	ReplaceExtension("dir.v2/notes", ".pdf")  == "dir.v2/notes.pdf"
func ReplaceExtension(name, ext string) string {
	dir, base := splitName(name)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return dir + base + ext
}

// OutputName is the archive name of a converted file.
func OutputName(name string, t Target) string {
	return ReplaceExtension(name, Extension(t))
}

// PageName is the archive name of page n (1-indexed) of a split document.
func PageName(name string, n int) string {
	return ReplaceExtension(name, fmt.Sprintf("-page-%d.pdf", n))
}

// CleanArchivePath normalises a name for use inside an archive: forward
// slashes only, no leading slash, no "." or ".." components.
func CleanArchivePath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	parts := strings.Split(name, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return path.Join(kept...)
}

func splitName(name string) (dir, base string) {
	i := strings.LastIndexAny(name, "/\\")
	if i < 0 {
		return "", name
	}
	return name[:i+1], name[i+1:]
}
