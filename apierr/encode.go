package apierr

import (
	"slices"

	"github.com/bodrovis/chimpex/propbag"
)

// Encode writes p into a fresh bag. Every key is written, zero values included.
func Encode(p ProblemDetail) (*propbag.Map, error) {
	b := propbag.New()
	if err := EncodeTo(p, b); err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeTo writes detail, title, type, status, instance and errors into bag,
// in that order. Errors from bag.SetValue are returned as is.
func EncodeTo(p ProblemDetail, bag propbag.Bag) error {
	fields := []struct {
		key string
		val any
	}{
		{KeyDetail, p.Detail},
		{KeyTitle, p.Title},
		{KeyType, p.Type},
		{KeyStatus, p.Status},
		{KeyInstance, p.Instance},
		{KeyErrors, slices.Clone(p.Errors)},
	}
	for _, f := range fields {
		if err := bag.SetValue(f.key, f.val); err != nil {
			return err
		}
	}
	return nil
}
