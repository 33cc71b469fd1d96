package service

import (
	"context"
	"errors"
	"io"
	"log"
	"path"
	"strings"

	"wayfare/internal/models"
	"wayfare/pkg/cloudinary"

	"github.com/google/uuid"
)

var ErrPhotosDisabled = errors.New("photo uploads are not configured")

type PhotoStore interface {
	ByPlace(ctx context.Context, placeID string) ([]models.PlacePhoto, error)
	GetByID(ctx context.Context, id string) (*models.PlacePhoto, error)
	Create(ctx context.Context, p *models.PlacePhoto) error
	Delete(ctx context.Context, id string) error
}

type PhotoService struct {
	photos PhotoStore
	places PlaceStore
	cloud  cloudinary.Client
	folder string
}

// NewPhotoService accepts a nil cloud client; uploads then fail with
// ErrPhotosDisabled while listing keeps working.
func NewPhotoService(photos PhotoStore, places PlaceStore, cloud cloudinary.Client, folder string) *PhotoService {
	return &PhotoService{photos: photos, places: places, cloud: cloud, folder: folder}
}

func (s *PhotoService) List(ctx context.Context, placeID string) ([]models.PlacePhoto, error) {
	if _, err := s.places.GetByID(ctx, placeID); err != nil {
		return nil, err
	}
	return s.photos.ByPlace(ctx, placeID)
}

// Upload stores the image under <folder>/places/<place id>. The asset is
// destroyed again when the row cannot be written.
func (s *PhotoService) Upload(ctx context.Context, placeID, uploaderID string, file io.Reader) (*models.PlacePhoto, error) {
	if s.cloud == nil {
		return nil, ErrPhotosDisabled
	}
	if _, err := s.places.GetByID(ctx, placeID); err != nil {
		return nil, err
	}
	folder := path.Join(s.folder, "places", placeID)
	publicID := "img_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	url, thumb, err := s.cloud.UploadImage(ctx, file, folder, publicID)
	if err != nil {
		return nil, err
	}
	photo := &models.PlacePhoto{PlaceID: placeID, UploaderID: uploaderID, URL: url, ThumbnailURL: thumb}
	if err := s.photos.Create(ctx, photo); err != nil {
		if derr := s.cloud.Destroy(ctx, path.Join(folder, publicID)); derr != nil {
			log.Printf("[PHOTOS] orphaned asset %s/%s: %v", folder, publicID, derr)
		}
		return nil, err
	}
	log.Printf("[PHOTOS] place=%s photo=%s uploaded by %s", placeID, photo.ID, uploaderID)
	return photo, nil
}

// Delete removes a photo of placeID. Only its uploader or an admin may.
func (s *PhotoService) Delete(ctx context.Context, placeID, photoID, userID string, isAdmin bool) error {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if photo.PlaceID != placeID {
		return ErrPhotoNotOfPlace
	}
	if photo.UploaderID != userID && !isAdmin {
		return ErrForbidden
	}
	if err := s.photos.Delete(ctx, photoID); err != nil {
		return err
	}
	if s.cloud != nil {
		if id := cloudinary.PublicIDFromURL(photo.URL); id != "" {
			if err := s.cloud.Destroy(ctx, id); err != nil {
				log.Printf("[PHOTOS] destroy %s: %v", id, err)
			}
		}
	}
	return nil
}
