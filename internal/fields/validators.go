package fields

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Validator checks one constraint on a typed field value. Validators skip nil
// values; emptiness is the required-flag's business.
type Validator func(v any) error

// MaxLength rejects strings longer than n characters.
func MaxLength(n int) Validator {
	return func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		if len(s) > n {
			return fmt.Errorf("must not exceed %d characters", n)
		}
		return nil
	}
}

// FileMaxSize rejects uploads larger than maxMB megabytes. The error carries
// both the observed and the allowed size. Values kept from an earlier
// submission are not re-checked.
func FileMaxSize(maxMB float64) Validator {
	return func(v any) error {
		fh, ok := v.(*multipart.FileHeader)
		if !ok {
			return nil
		}
		sizeMB := float64(fh.Size) / (1000 * 1000)
		if sizeMB > maxMB {
			return fmt.Errorf("file size of %.2fMB is not allowed, maximum allowed file size is %gMB", sizeMB, maxMB)
		}
		return nil
	}
}

// FileExtensions rejects uploads whose extension is not in the allow-list
// (compared case-insensitively, without the leading dot).
func FileExtensions(allowed []string) Validator {
	set := make(map[string]bool, len(allowed))
	for _, ext := range allowed {
		set[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return func(v any) error {
		fh, ok := v.(*multipart.FileHeader)
		if !ok {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
		if !set[ext] {
			return fmt.Errorf("file extension %q is not allowed, allowed extensions are: %s", ext, strings.Join(allowed, ", "))
		}
		return nil
	}
}

// MinPixels rejects images smaller than minW x minH. A zero bound is not
// checked, matching a "at least 100 x *" configuration.
func MinPixels(minW, minH int) Validator {
	return func(v any) error {
		fh, ok := v.(*multipart.FileHeader)
		if !ok {
			return nil
		}
		w, h, err := imageDimensions(fh)
		if err != nil {
			return fmt.Errorf("could not read image dimensions: %v", err)
		}
		if (minW > 0 && w < minW) || (minH > 0 && h < minH) {
			return fmt.Errorf("minimum image resolution is %d x %d, uploaded image resolution is %d x %d", minW, minH, w, h)
		}
		return nil
	}
}

// ExactPixels rejects images that are not exactly w x h.
func ExactPixels(width, height int) Validator {
	return func(v any) error {
		fh, ok := v.(*multipart.FileHeader)
		if !ok {
			return nil
		}
		w, h, err := imageDimensions(fh)
		if err != nil {
			return fmt.Errorf("could not read image dimensions: %v", err)
		}
		if w != width || h != height {
			return fmt.Errorf("image resolution must be %d x %d, uploaded image resolution is %d x %d", width, height, w, h)
		}
		return nil
	}
}

// ChoiceIn rejects values outside the resolved choice list. Handles both
// single values and multi-select slices.
func ChoiceIn(choices []Choice) Validator {
	set := make(map[string]bool, len(choices))
	for _, c := range choices {
		set[c.Value] = true
	}
	return func(v any) error {
		switch val := v.(type) {
		case string:
			if !set[val] {
				return fmt.Errorf("%q is not one of the available choices", val)
			}
		case []string:
			for _, s := range val {
				if !set[s] {
					return fmt.Errorf("%q is not one of the available choices", s)
				}
			}
		}
		return nil
	}
}

func imageDimensions(fh *multipart.FileHeader) (int, int, error) {
	src, err := fh.Open()
	if err != nil {
		return 0, 0, err
	}
	defer src.Close()

	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
