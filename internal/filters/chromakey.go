// Filters perform colour keying and other per-pixel operations
package filters

import (
	"fmt"

	"github.com/anas-shakeel/go-chromakey/internal/bmp"
)

// Stats describes what a ChromaKey pass did.
type Stats struct {
	Pixels   int            // Pixels visited
	Replaced int            // Pixels taken from the overlay
	ByRule   map[string]int // Replacements per rule name
	Failed   int            // Rule evaluations that could not decide a pixel
}

// failureCounter is implemented by rules that can fail to decide a pixel.
type failureCounter interface {
	Failures() int
}

// Replaces key-coloured pixels of b in-place with the pixel at the same index
// in overlay. Rules are tried in order and the first match wins; with no
// rules, DefaultRules is used. Replacement copies all three channels, there
// is no blending.
//
// Both bitmaps must declare the same pixel count and hold that many pixels,
// otherwise bmp.ErrSizeMismatch is returned and b is left untouched.
//
// Running it twice with the same overlay only changes b again where an
// overlay pixel itself matches a rule.
func ChromaKey(b, overlay *bmp.BitmapImage, rules ...Rule) (Stats, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	count := b.PixelCount()
	if count != overlay.PixelCount() {
		return Stats{}, fmt.Errorf("%w: base has %d pixels, overlay has %d", bmp.ErrSizeMismatch, count, overlay.PixelCount())
	}
	if b.Pixels.Len() < count || overlay.Pixels.Len() < count {
		return Stats{}, fmt.Errorf("%w: %d pixels declared, pixel data holds %d and %d",
			bmp.ErrSizeMismatch, count, b.Pixels.Len(), overlay.Pixels.Len())
	}

	stats := Stats{Pixels: count, ByRule: make(map[string]int, len(rules))}
	failedBefore := countFailures(rules)

	// Visit every pixel
	for i := 0; i < count; i++ {
		p, err := b.Pixels.At(i)
		if err != nil {
			return stats, err
		}

		for _, rule := range rules {
			if !rule.Match(p) {
				continue
			}

			p2, err := overlay.Pixels.At(i)
			if err != nil {
				return stats, err
			}
			if err := b.Pixels.Set(i, p2); err != nil {
				return stats, err
			}
			stats.Replaced++
			stats.ByRule[rule.Name()]++
			break
		}
	}

	stats.Failed = countFailures(rules) - failedBefore
	return stats, nil
}

func countFailures(rules []Rule) int {
	n := 0
	for _, rule := range rules {
		if fc, ok := rule.(failureCounter); ok {
			n += fc.Failures()
		}
	}
	return n
}
