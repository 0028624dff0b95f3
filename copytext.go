package transclude

import "github.com/alnah/go-transclude/internal/copytext"

// CopyAttr is the attribute that overrides the text copied for an element.
const CopyAttr = copytext.Attr

// CopyText builds the clipboard text for an HTML selection. Elements carrying
// a copy attribute contribute its value instead of their content. custom
// reports whether any such element was in the selection; when it is false
// the caller should let the default copy behavior run.
func CopyText(selection string) (text string, custom bool, err error) {
	return copytext.FromSelection(selection)
}
