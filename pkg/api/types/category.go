package types

import (
	"fmt"
	"strings"
)

// Category names the scanner that produced a Finding.
type Category string

const (
	CategorySource     Category = "SOURCE"
	CategoryBinary     Category = "BINARY"
	CategoryDependency Category = "DEPENDENCY"
	CategoryPrecheck   Category = "PRECHECK"
)

// Categories lists every category in report order.
var Categories = []Category{CategorySource, CategoryBinary, CategoryDependency, CategoryPrecheck}

// ParseCategory accepts category names case-insensitively along with the
// short aliases used on the command line.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "source", "src":
		return CategorySource, nil
	case "binary", "bin":
		return CategoryBinary, nil
	case "dependency", "dep":
		return CategoryDependency, nil
	case "precheck", "prechecker", "reuse":
		return CategoryPrecheck, nil
	default:
		return "", fmt.Errorf("unknown scanner category %q", s)
	}
}

// SheetName returns the worksheet name used for the category in xlsx reports.
func (c Category) SheetName() string {
	switch c {
	case CategorySource:
		return "SRC_FL_Source"
	case CategoryBinary:
		return "BIN_FL_Binary"
	case CategoryDependency:
		return "DEP_FL_Dependency"
	case CategoryPrecheck:
		return "PRC_FL_Prechecker"
	default:
		return string(c)
	}
}

func (c Category) String() string {
	return string(c)
}
