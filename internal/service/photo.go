package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/templui/quizline/internal/model"
	"github.com/templui/quizline/internal/storage"
	"github.com/templui/quizline/internal/validation"
)

// PhotoService stores uploaded profile photos. Storage may be nil, in which
// case uploads fail with ErrStorageDisabled.
type PhotoService struct {
	userService *UserService
	storage     storage.Storage
}

func NewPhotoService(userService *UserService, storage storage.Storage) *PhotoService {
	return &PhotoService{
		userService: userService,
		storage:     storage,
	}
}

// Upload validates an image, stores it and points the profile photo at it.
// A previous photo held in the same storage is removed afterwards.
func (s *PhotoService) Upload(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*model.User, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	contentType, err := validation.ValidateFile(header, file, validation.ImageConstraints)
	if err != nil {
		return nil, validation.Errors{"photo": err.Error()}
	}

	user, err := s.userService.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	var previous string
	if user.ProfilePhotoURL != nil {
		previous = *user.ProfilePhotoURL
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	storagePath := path.Join("public", "photos", userID, uuid.New().String()+ext)

	err = s.storage.Save(ctx, storagePath, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	user, err = s.userService.setPhoto(ctx, userID, s.storage.URL(storagePath))
	if err != nil {
		// the record was not updated, so the new object is orphaned
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete photo during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, err
	}

	oldPath, ok := s.storage.Owns(previous)
	if ok {
		delErr := s.storage.Delete(ctx, oldPath)
		if delErr != nil {
			slog.Warn("failed to delete previous photo", "error", delErr, "path", oldPath)
		}
	}

	slog.Info("profile photo uploaded", "user_id", userID, "path", storagePath)
	return user, nil
}
