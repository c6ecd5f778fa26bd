package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// LocalData is the wipeable local state. Implemented by [store.Store].
type LocalData interface {
	Wipe(ctx context.Context) error
}

// ImagePurger empties the picture cache. Implemented by [imagecache.Cache].
type ImagePurger interface {
	Purge() error
}

// Session owns local teardown. Logout clears everything the device holds for
// the signed-in user; it runs both when the user signs out and when the
// backend rejects the stored credentials.
type Session struct {
	data   LocalData
	images ImagePurger
	log    *slog.Logger
}

// NewSession creates a Session. images may be nil when no picture cache is
// configured.
func NewSession(data LocalData, images ImagePurger, logger *slog.Logger) *Session {
	return &Session{data: data, images: images, log: logger}
}

// Logout wipes the local database and the image cache. Both legs always run;
// a failed wipe must not leave account pictures on disk, so the purge happens
// regardless, and failures from either leg are joined into the returned
// error.
func (s *Session) Logout(ctx context.Context) error {
	var errs []error
	if err := s.data.Wipe(ctx); err != nil {
		s.log.Error("local data wipe failed", "error", err)
		errs = append(errs, err)
	}
	if s.images != nil {
		if err := s.images.Purge(); err != nil {
			s.log.Error("image cache purge failed", "error", err)
			errs = append(errs, fmt.Errorf("purging image cache: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.log.Info("local session cleared")
	return nil
}
