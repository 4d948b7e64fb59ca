package links

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/linkcut/linkcut/codegen"
	"github.com/linkcut/linkcut/internal/errx"
)

const (
	DefaultCodeLength    = 7
	MinCodeLength        = 6
	MaxCodeLength        = 8
	MaxURLLength         = 2048
	DefaultAllocAttempts = 10
)

// codePattern is the shape every code takes, custom or generated.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

// ErrCodeSpaceExhausted is returned when code allocation runs out of attempts.
// With a 62^7 code space this signals an operational anomaly, not a caller error;
// the request is safe to retry.
var ErrCodeSpaceExhausted = errors.New("could not allocate a unique code after maximum attempts")

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	LongURL    string
	CustomCode string // Optional: if empty, a code will be generated
}

// CreateResult is the outcome of a create request. Existed reports whether an
// identical link already existed and was returned instead of a new row.
type CreateResult struct {
	Link    Link
	Existed bool
}

// Service defines the business logic operations for the link lifecycle.
type Service interface {
	Create(ctx context.Context, req CreateLinkRequest) (CreateResult, error)
	List(ctx context.Context) ([]Link, error)
	Stats(ctx context.Context, code string) (Link, error)
	Resolve(ctx context.Context, code string) (string, error)
	Delete(ctx context.Context, code string) error
}

// service implements the Service interface.
type service struct {
	repo          Repository
	codeGenerator codegen.Generator
	codeLength    int
	allocAttempts int
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	CodeGenerator codegen.Generator
	CodeLength    int
	AllocAttempts int // attempts when allocating a unique code (default: 10)
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	codeGen := config.CodeGenerator
	if codeGen == nil {
		codeGen = codegen.NewBase62()
	}

	codeLength := config.CodeLength
	if codeLength < MinCodeLength || codeLength > MaxCodeLength {
		codeLength = DefaultCodeLength
	}

	attempts := config.AllocAttempts
	if attempts <= 0 {
		attempts = DefaultAllocAttempts
	}

	return &service{
		repo:          repo,
		codeGenerator: codeGen,
		codeLength:    codeLength,
		allocAttempts: attempts,
	}
}

// Create creates a new short link with an optional custom code.
//
// Custom codes are idempotent: re-creating an existing (code, longUrl) pair
// returns the existing link instead of erroring, while the same code bound to
// a different URL is a conflict. Codes are never silently overwritten.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (CreateResult, error) {
	const op = "links.service.Create"

	if err := validateURL(req.LongURL); err != nil {
		return CreateResult{}, errx.E(op, errx.Invalid, err)
	}

	if req.CustomCode != "" {
		if err := validateCode(req.CustomCode); err != nil {
			return CreateResult{}, errx.E(op, errx.Invalid, err)
		}

		existing, err := s.repo.FindByCode(ctx, req.CustomCode)
		switch {
		case err == nil:
			if existing.LongURL == req.LongURL {
				return CreateResult{Link: existing, Existed: true}, nil
			}
			return CreateResult{}, errx.E(op, errx.Conflict,
				errors.New("code already in use for a different URL"))
		case errx.KindOf(err) != errx.NotFound:
			return CreateResult{}, errx.E(op, errx.KindOf(err), err)
		}

		created, err := s.repo.Create(ctx, Link{
			Code:    req.CustomCode,
			LongURL: req.LongURL,
		})
		if err != nil {
			// A concurrent create of the same code between the lookup and the
			// insert lands here as a conflict; the store constraint decides.
			return CreateResult{}, errx.E(op, errx.KindOf(err), err)
		}
		return CreateResult{Link: created, Existed: false}, nil
	}

	link, err := s.allocateAndCreate(ctx, req.LongURL)
	if err != nil {
		return CreateResult{}, err
	}
	return CreateResult{Link: link, Existed: false}, nil
}

// allocateAndCreate runs the unique-code allocation loop: generate a candidate,
// skip it if taken, then insert. The insert is the final authority; losing a
// race for a candidate just burns one attempt.
func (s *service) allocateAndCreate(ctx context.Context, longURL string) (Link, error) {
	const op = "links.service.allocateAndCreate"

	for range s.allocAttempts {
		code, err := s.codeGenerator.Generate(s.codeLength)
		if err != nil {
			return Link{}, errx.E(op, errx.Unavailable, err)
		}

		taken, err := s.repo.Exists(ctx, code)
		if err != nil {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
		if taken {
			continue
		}

		created, err := s.repo.Create(ctx, Link{
			Code:    code,
			LongURL: longURL,
		})
		if err == nil {
			return created, nil
		}

		// Retry on conflict, fail on other errors
		if errx.KindOf(err) != errx.Conflict {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
	}

	return Link{}, errx.E(op, errx.Internal, ErrCodeSpaceExhausted)
}

// List returns every link, newest first.
func (s *service) List(ctx context.Context) ([]Link, error) {
	const op = "links.service.List"

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	return all, nil
}

// Stats returns the link for code including its usage counters.
func (s *service) Stats(ctx context.Context, code string) (Link, error) {
	const op = "links.service.Stats"

	if code == "" {
		return Link{}, errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}
	return link, nil
}

// Resolve records a click and returns the target URL. This is the hot path:
// one store round trip, increment and read in the same statement.
func (s *service) Resolve(ctx context.Context, code string) (string, error) {
	const op = "links.service.Resolve"

	if code == "" {
		return "", errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	link, err := s.repo.IncrementClick(ctx, code)
	if err != nil {
		return "", errx.E(op, errx.KindOf(err), err)
	}
	return link.LongURL, nil
}

// Delete removes the link for code. Deletion is terminal.
func (s *service) Delete(ctx context.Context, code string) error {
	const op = "links.service.Delete"

	if code == "" {
		return errx.E(op, errx.Invalid, errors.New("code cannot be empty"))
	}

	deleted, err := s.repo.Delete(ctx, code)
	if err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	if !deleted {
		return errx.E(op, errx.NotFound, errors.New("no link with that code"))
	}
	return nil
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url cannot be empty")
	}
	if len(rawURL) > MaxURLLength {
		return errors.New("url too long (max 2048 characters)")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return errors.New("url must start with http:// or https://")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid url format")
	}
	if !parsedURL.IsAbs() || parsedURL.Host == "" {
		return errors.New("url must be absolute and include a host")
	}
	return nil
}

func validateCode(code string) error {
	if !codePattern.MatchString(code) {
		return errors.New("code must be 6-8 alphanumeric characters [A-Za-z0-9]")
	}
	return nil
}
