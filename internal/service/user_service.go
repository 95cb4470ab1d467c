package service

import (
	"context"
	"errors"
	"strings"
	"time"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/logfilter"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/repo"
	"github.com/enriqueruelasgarcia/Users-mongo/internal/storage"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidID    = errors.New("invalid id")
	ErrNotConnected = storage.ErrNotConnected
)

// UserCache is the subset of cache.UserCache the service relies on.
type UserCache interface {
	GetUser(ctx context.Context, id string) (*dom.User, error)
	SetUser(ctx context.Context, u dom.User) error
	GetList(ctx context.Context) ([]dom.User, error)
	SetList(ctx context.Context, list []dom.User) error
	InvalidateUser(ctx context.Context, id string) error
	InvalidateList(ctx context.Context) error
}

// NewExercise is a validated request to log an exercise.
// A nil Date means today.
type NewExercise struct {
	Description string
	Duration    int
	Date        *time.Time
}

// Log is a filtered view of a user's exercises.
type Log struct {
	User      dom.User
	Exercises []dom.Exercise
}

// Count is the number of exercises in the filtered log.
func (l Log) Count() int { return len(l.Exercises) }

// UserService handles users and their exercise logs.
type UserService struct {
	repo  repo.UserRepo
	cache UserCache
	sf    singleflight.Group
	now   func() time.Time
	loc   *time.Location
}

// Option configures a UserService.
type Option func(*UserService)

// WithClock overrides the time source used for the default exercise date.
func WithClock(now func() time.Time) Option {
	return func(s *UserService) { s.now = now }
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *UserService) { s.loc = loc }
}

// NewUserService creates a UserService. If c is nil, caching is disabled.
func NewUserService(r repo.UserRepo, c UserCache, opts ...Option) *UserService {
	s := &UserService{repo: r, cache: c, now: time.Now, loc: time.UTC}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateUser registers a new user with an empty log.
func (s *UserService) CreateUser(ctx context.Context, username string) (dom.User, error) {
	u, err := s.repo.CreateUser(ctx, strings.TrimSpace(username))
	if err != nil {
		return dom.User{}, mapRepoErr(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateList(ctx)
	}
	return u, nil
}

// AddExercise appends an exercise to the user's log and returns the
// updated user together with the exercise that was stored.
func (s *UserService) AddExercise(ctx context.Context, userID string, in NewExercise) (dom.User, dom.Exercise, error) {
	ex := dom.Exercise{
		Description: in.Description,
		Duration:    in.Duration,
	}
	if in.Date != nil {
		ex.Date = dom.DateOf(*in.Date)
	} else {
		ex.Date = dom.Today(s.now(), s.loc)
	}

	u, err := s.repo.AppendExercise(ctx, userID, ex)
	if err != nil {
		return dom.User{}, dom.Exercise{}, mapRepoErr(err)
	}
	if s.cache != nil {
		_ = s.cache.InvalidateUser(ctx, userID)
	}
	return u, ex, nil
}

// GetUser returns a user with its full log.
func (s *UserService) GetUser(ctx context.Context, userID string) (dom.User, error) {
	if s.cache == nil {
		u, err := s.repo.GetUser(ctx, userID)
		return u, mapRepoErr(err)
	}
	// Waiters share this load, so it must outlive the first caller's request.
	sctx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do("user:"+userID, func() (interface{}, error) {
		if u, err := s.cache.GetUser(sctx, userID); err == nil && u != nil {
			return *u, nil
		}
		u, err := s.repo.GetUser(sctx, userID)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetUser(sctx, u)
		return u, nil
	})
	if err != nil {
		return dom.User{}, mapRepoErr(err)
	}
	return v.(dom.User), nil
}

// GetLog returns the user's exercises narrowed by q.
func (s *UserService) GetLog(ctx context.Context, userID string, q logfilter.Query) (Log, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return Log{}, err
	}
	return Log{User: u, Exercises: logfilter.Filter(u.Exercises, q)}, nil
}

// ListUsers returns all users without their exercises.
func (s *UserService) ListUsers(ctx context.Context) ([]dom.User, error) {
	if s.cache == nil {
		list, err := s.repo.ListUsers(ctx)
		return list, mapRepoErr(err)
	}
	sctx := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		if list, err := s.cache.GetList(sctx); err == nil && list != nil {
			return list, nil
		}
		list, err := s.repo.ListUsers(sctx)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetList(sctx, list)
		return list, nil
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return v.([]dom.User), nil
}

func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrInvalidID):
		return ErrInvalidID
	default:
		return err
	}
}
