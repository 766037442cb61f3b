//go:build !gocv

package imageutil

import "image"

func loadGoCV(string) (image.Image, error) {
	return nil, ErrNoGoCV
}
