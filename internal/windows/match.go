// Package windows finds open windows by WM class.
package windows

import (
	"fmt"
	"strings"

	"github.com/1broseidon/deskplace/internal/platform"
)

// CaseMode selects how class identifiers are compared.
type CaseMode int

const (
	// Exact compares class strings byte for byte.
	Exact CaseMode = iota
	// Insensitive lower-cases both sides before comparing.
	Insensitive
)

func (m CaseMode) String() string {
	if m == Insensitive {
		return "insensitive"
	}
	return "exact"
}

// Lister is the part of platform.Backend the matcher reads.
type Lister interface {
	Windows() ([]platform.Window, error)
}

// ClassOf returns the window's class identifier: the WM_CLASS instance,
// or the class name when the instance is empty.
func ClassOf(w platform.Window) string {
	if w.Instance != "" {
		return w.Instance
	}
	return w.Class
}

// Matches reports whether w belongs to classID under mode.
func Matches(w platform.Window, classID string, mode CaseMode) bool {
	return ClassEqual(ClassOf(w), classID, mode)
}

// ClassEqual compares a class identifier against classID under mode.
func ClassEqual(class, classID string, mode CaseMode) bool {
	if mode == Insensitive {
		return strings.ToLower(class) == strings.ToLower(classID)
	}
	return class == classID
}

// FindByClass returns every open window whose class matches, in the
// platform's enumeration order.
func FindByClass(src Lister, classID string, mode CaseMode) ([]platform.Window, error) {
	all, err := src.Windows()
	if err != nil {
		return nil, fmt.Errorf("query windows: %w", err)
	}
	var out []platform.Window
	for _, w := range all {
		if Matches(w, classID, mode) {
			out = append(out, w)
		}
	}
	return out, nil
}
