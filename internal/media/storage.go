// Package media persists uploaded images through a narrow contract.
// Resizing and format conversion are handled outside this service.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Storage is an image byte sink.
type Storage interface {
	Save(name string, r io.Reader) error
}

// DiskStorage writes images below a root directory.
type DiskStorage struct {
	root string
}

func NewDiskStorage(root string) *DiskStorage {
	return &DiskStorage{root: root}
}

func (s *DiskStorage) Save(name string, r io.Reader) error {
	path := filepath.Join(s.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	return f.Sync()
}

// UserPhotoName builds the deterministic filename for a user photo.
func UserPhotoName(userID uuid.UUID) string {
	return filepath.Join("users", fmt.Sprintf("user-%s-%d.jpeg", userID, time.Now().UnixMilli()))
}

// TourCoverName builds the filename for a tour cover image.
func TourCoverName(tourID string) string {
	return filepath.Join("tours", fmt.Sprintf("tour-%s-%d-cover.jpeg", tourID, time.Now().UnixMilli()))
}

// TourImageName builds the filename for the i-th tour gallery image.
func TourImageName(tourID string, i int) string {
	return filepath.Join("tours", fmt.Sprintf("tour-%s-%d-%d.jpeg", tourID, time.Now().UnixMilli(), i))
}
