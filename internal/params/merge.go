package params

import "reflect"

// Merge folds src into dst field by field and returns dst. Groups merge
// recursively, so fields of dst that src does not mention survive; every other
// kind, including Null, overwrites the destination field. A group in src
// replaces a non-group field in dst.
func Merge(dst, src Group) Group {
	if dst == nil {
		dst = Group{}
	}
	for key, sv := range src {
		if sv == nil {
			dst[key] = Null{}
			continue
		}
		switch sv.Kind() {
		case KindGroup:
			if dv, ok := dst[key].(Group); ok {
				Merge(dv, sv.(Group))
			} else {
				dst[key] = Clone(sv)
			}
		case KindNull, KindScalar, KindVector:
			dst[key] = Clone(sv)
		}
	}
	return dst
}

// Equal reports whether two trees hold the same kinds and values.
func Equal(a, b Node) bool {
	return reflect.DeepEqual(a, b)
}
