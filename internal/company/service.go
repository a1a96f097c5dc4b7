package company

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	_ "image/jpeg"
	_ "image/png"
)

// ErrInvalidLogo indicates the uploaded bytes are not a decodable PNG/JPEG.
var ErrInvalidLogo = errors.New("logo is not a valid PNG or JPEG image")

type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
}

func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Get returns the saved profile, falling back to the built-in defaults when
// nothing has been configured yet.
func (s *Service) Get(ctx context.Context) (Profile, error) {
	if cached, err := s.cache.Get(ctx); err == nil && cached != nil {
		return *cached, nil
	} else if err != nil {
		s.logger.Warn("company cache read failed", slog.Any("error", err))
	}

	p, err := s.repo.Get(ctx)
	if errors.Is(err, ErrNoProfile) {
		return DefaultProfile(), nil
	}
	if err != nil {
		return Profile{}, err
	}

	if err := s.cache.Set(ctx, *p); err != nil {
		s.logger.Warn("company cache write failed", slog.Any("error", err))
	}
	return *p, nil
}

// Save overwrites the profile wholesale, matching the explicit
// save-configuration action.
func (s *Service) Save(ctx context.Context, p Profile) error {
	if p.Name == "" {
		return errors.New("company name is required")
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("company cache invalidate failed", slog.Any("error", err))
	}
	return nil
}

// Logo returns the stored logo bytes, or ErrNoLogo.
func (s *Service) Logo(ctx context.Context) ([]byte, error) {
	return s.repo.Logo(ctx)
}

// SaveLogo validates and stores the uploaded image. The bytes must decode as
// PNG or JPEG; the renderer re-checks at render time and degrades to a text
// placeholder, but rejecting garbage at upload gives the user a usable error.
func (s *Service) SaveLogo(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidLogo
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}
	return s.repo.SaveLogo(ctx, data)
}
