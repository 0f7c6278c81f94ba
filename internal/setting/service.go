package setting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/frahmantamala/bookkeeping/internal"
	settingDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/setting"
)

var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,128}$`)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*settingDatamodel.Setting, error)
	Get(ctx context.Context, key string) (*settingDatamodel.Setting, error)
	Upsert(ctx context.Context, s *settingDatamodel.Setting) error
}

type Service struct {
	repo    RepositoryAPI
	logger  *slog.Logger
	nowFunc func() time.Time
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// All returns every setting keyed by name.
func (s *Service) All(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list settings", "error", err)
		return nil, internal.NewInternalError("failed to list settings", err)
	}

	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = json.RawMessage(row.Value)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, key string) (*Setting, error) {
	row, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return nil, internal.NewNotFoundError(fmt.Sprintf("setting %s not found", key), internal.ErrCodeSettingNotFound)
		}
		s.logger.Error("failed to get setting", "key", key, "error", err)
		return nil, internal.NewInternalError("failed to get setting", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Put(ctx context.Context, key string, value json.RawMessage) (*Setting, error) {
	if !keyPattern.MatchString(key) {
		return nil, internal.NewValidationFieldError("key", "key must be 1-128 letters, digits, '.', '_' or '-'", internal.ErrCodeValidationFailed)
	}
	if len(value) == 0 || !json.Valid(value) {
		return nil, internal.NewValidationFieldError("value", "value must be valid JSON", internal.ErrCodeInvalidBody)
	}

	row := &settingDatamodel.Setting{Key: key, Value: string(value), UpdatedAt: s.nowFunc().UTC()}
	if err := s.repo.Upsert(ctx, row); err != nil {
		s.logger.Error("failed to store setting", "key", key, "error", err)
		return nil, internal.NewInternalError("failed to store setting", err)
	}

	s.logger.Info("setting updated", "key", key, "actor", internal.ActorFromContext(ctx).Username)
	return FromDataModel(row), nil
}
