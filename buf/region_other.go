//go:build !unix

package buf

func mapRegion(size int) ([]byte, func([]byte) error, error) {
	return heapRegion(size)
}
