package services

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RootPackageID is the fixed identifier of the described binary
const RootPackageID = "SPDXRef-Package-root"

// IDCounter hands out document-unique element identifiers.
// One counter is owned by one emit call; it is never shared.
type IDCounter struct {
	next int
}

// Next returns "SPDXRef-<sanitized prefix>-<n>" with n strictly increasing
func (c *IDCounter) Next(prefix string) string {
	c.next++
	return fmt.Sprintf("SPDXRef-%s-%d", SanitizeID(prefix), c.next)
}

// Issued returns how many identifiers have been handed out
func (c *IDCounter) Issued() int {
	return c.next
}

// SanitizeID replaces every character outside [A-Za-z0-9._-] with '-'
func SanitizeID(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '.', ch == '_', ch == '-':
			b.WriteByte(ch)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

var (
	sourceExtensions = map[string]bool{
		".c": true, ".h": true, ".cc": true, ".cpp": true,
		".cxx": true, ".hpp": true, ".s": true, ".inc": true,
	}
	headerExtensions = map[string]bool{".h": true, ".hpp": true, ".inc": true}
)

// isSourceFile reports whether a path survives the file-element allow-list
func isSourceFile(path string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

func isHeaderFile(path string) bool {
	return headerExtensions[strings.ToLower(filepath.Ext(path))]
}
