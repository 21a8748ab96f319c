package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/exprgraph/pkg/errors"
)

// Dynamic marks the first extent of a shape whose size is only known per
// evaluation context.
const Dynamic = -1

// Shape is an ordered list of extents. An empty shape is a scalar.
type Shape []int

// String formats the shape like "(3, 2)" with "?" for a dynamic extent.
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, n := range s {
		if n == Dynamic {
			parts[i] = "?"
		} else {
			parts[i] = fmt.Sprint(n)
		}
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// ShapeInfo is the shape bookkeeping shared by every array-valued node.
// The zero value describes a scalar.
type ShapeInfo struct {
	shape Shape
}

// NewShapeInfo validates shape and returns its bookkeeping helper.
// Every extent must be non-negative, except the first which may be [Dynamic].
func NewShapeInfo(shape Shape) (ShapeInfo, error) {
	for i, n := range shape {
		if n == Dynamic && i == 0 {
			continue
		}
		if n < 0 {
			return ShapeInfo{}, errors.New(errors.ErrCodeInvalidInput, "invalid extent %d at axis %d of shape %v", n, i, shape)
		}
	}
	return ShapeInfo{shape: slices.Clone(shape)}, nil
}

// ScalarShape returns the bookkeeping for a single-element output.
func ScalarShape() ShapeInfo { return ShapeInfo{} }

// Shape returns a copy of the declared shape.
func (si ShapeInfo) Shape() Shape { return slices.Clone(si.shape) }

// Ndim returns the number of axes.
func (si ShapeInfo) Ndim() int { return len(si.shape) }

// IsScalar reports whether the shape has no axes.
func (si ShapeInfo) IsScalar() bool { return len(si.shape) == 0 }

// Dynamic reports whether the first extent is only known per state.
func (si ShapeInfo) Dynamic() bool { return len(si.shape) > 0 && si.shape[0] == Dynamic }

// FixedSize returns the number of elements, or -1 for a dynamic shape.
func (si ShapeInfo) FixedSize() int {
	if si.Dynamic() {
		return -1
	}
	n := 1
	for _, e := range si.shape {
		n *= e
	}
	return n
}

// SameShape reports whether other has exactly the same extents.
func (si ShapeInfo) SameShape(other Shape) bool { return slices.Equal(si.shape, other) }
