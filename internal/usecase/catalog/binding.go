package catalog

import (
	"context"
	"errors"
	"log/slog"

	"konbot/internal/bootstrap/logging"
	"konbot/internal/ports"
)

var (
	// ErrAlreadyBound means this chat account already has an osu! binding.
	ErrAlreadyBound = errors.New("account already bound")
	// ErrOsuAccountTaken means the osu! account is bound to a different chat
	// account.
	ErrOsuAccountTaken  = errors.New("osu account bound to another user")
	errUsernameRequired = errors.New("osu username is required")
)

// BindUser resolves the osu! username upstream and binds it to the chat
// account. One chat account gets one binding, and one osu! account belongs
// to at most one chat account.
func (s *Service) BindUser(ctx context.Context, qqid int64, osuUsername string) (ports.UserBinding, error) {
	if osuUsername == "" {
		return ports.UserBinding{}, errUsernameRequired
	}

	user, err := s.provider.LookupUser(ctx, osuUsername)
	if err != nil {
		return ports.UserBinding{}, err
	}

	binding := ports.UserBinding{
		QQID:        qqid,
		OsuUID:      user.UID,
		OsuUsername: user.Username,
		BoundAt:     s.now(),
	}
	err = s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetBinding(txCtx, qqid); err == nil {
			return ErrAlreadyBound
		} else if !errors.Is(err, ports.ErrBindingNotFound) {
			return err
		}
		if _, err := s.repo.FindBindingByOsuUID(txCtx, user.UID); err == nil {
			return ErrOsuAccountTaken
		} else if !errors.Is(err, ports.ErrBindingNotFound) {
			return err
		}
		return s.repo.CreateBinding(txCtx, binding)
	})
	if err != nil {
		return ports.UserBinding{}, err
	}

	logging.Info(ctx, "user bound",
		slog.Int64("qqid", qqid),
		slog.Int64("osu_uid", user.UID),
		slog.String("osu_username", user.Username))
	return binding, nil
}

// UnbindUser removes the chat account's binding. It reports
// ports.ErrBindingNotFound when there was none.
func (s *Service) UnbindUser(ctx context.Context, qqid int64) error {
	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		deleted, err := s.repo.DeleteBinding(txCtx, qqid)
		if err != nil {
			return err
		}
		if !deleted {
			return ports.ErrBindingNotFound
		}
		return nil
	})
}

func (s *Service) Binding(ctx context.Context, qqid int64) (ports.UserBinding, error) {
	return s.repo.GetBinding(ctx, qqid)
}

// RecentBeatmapID resolves the bound osu! account's most recent play so a
// submitter can recommend the map they just finished without typing its id.
func (s *Service) RecentBeatmapID(ctx context.Context, qqid int64) (int64, error) {
	binding, err := s.repo.GetBinding(ctx, qqid)
	if err != nil {
		return 0, err
	}
	return s.provider.RecentBeatmapID(ctx, binding.OsuUID)
}
