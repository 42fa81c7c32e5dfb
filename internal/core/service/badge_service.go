package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/airport-ops/badge-system/internal/core/domain"
	"github.com/airport-ops/badge-system/internal/core/policy"
	"github.com/airport-ops/badge-system/internal/core/ports"
)

const maxBadgeNumberLength = 64

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// BadgeService implements badge issuance and retrieval.
type BadgeService struct {
	requests  ports.BadgeRequestRepository
	badges    ports.BadgeRepository
	users     ports.UserRepository
	renderer  ports.BadgeRenderer
	artifacts ports.ArtifactStore
	tx        ports.Transactor
	gate      *policy.Gate
	logger    zerolog.Logger
	now       func() time.Time
}

func NewBadgeService(
	requests ports.BadgeRequestRepository,
	badges ports.BadgeRepository,
	users ports.UserRepository,
	renderer ports.BadgeRenderer,
	artifacts ports.ArtifactStore,
	tx ports.Transactor,
	gate *policy.Gate,
	logger zerolog.Logger,
) *BadgeService {
	return &BadgeService{
		requests:  requests,
		badges:    badges,
		users:     users,
		renderer:  renderer,
		artifacts: artifacts,
		tx:        tx,
		gate:      gate,
		logger:    logger,
		now:       time.Now,
	}
}

// Issue mints the badge for an approved request. The badge row, the rendered
// artifact and its reference are committed together or not at all.
func (s *BadgeService) Issue(ctx context.Context, caller domain.Identity, in ports.IssueBadgeInput) (*domain.Badge, error) {
	if err := s.gate.Authorize(caller, policy.ActionIssueBadge, ""); err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	if strings.TrimSpace(in.BadgeRequestID) == "" {
		verr.Add("badge_request_id", "badge_request_id is required")
	}
	number := strings.TrimSpace(in.BadgeNumber)
	switch {
	case in.BadgeNumber == "":
		number = domain.GenerateBadgeNumber(s.now())
	case number == "":
		verr.Add("badge_number", "badge_number must not be blank")
	case len(number) > maxBadgeNumberLength:
		verr.Add("badge_number", fmt.Sprintf("badge_number must be at most %d characters", maxBadgeNumberLength))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	var (
		issued    *domain.Badge
		savedPath string
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.requests.FindByID(ctx, in.BadgeRequestID)
		if err != nil {
			return err
		}
		if r.Status != domain.StatusApproved {
			return fmt.Errorf("%w: badge request is %s, not approved", domain.ErrInvalidState, r.Status)
		}

		existing, err := s.badges.FindByRequestID(ctx, r.ID)
		if err := lookupErr(err); err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: a badge was already issued for this request", domain.ErrInvalidState)
		}

		owner, err := s.users.FindByID(ctx, r.OwnerID)
		if err != nil {
			return fmt.Errorf("load badge owner: %w", err)
		}

		b := &domain.Badge{
			OwnerID:        r.OwnerID,
			BadgeRequestID: r.ID,
			BadgeNumber:    number,
			IssuedAt:       s.now().UTC(),
			ExpiresAt:      r.ValidUntil,
		}
		if err := s.badges.Create(ctx, b); err != nil {
			return err
		}

		doc, err := s.renderer.Render(ctx, ports.RenderInput{
			BadgeNumber: b.BadgeNumber,
			OwnerName:   owner.Name,
			Zones:       r.RequestedZones,
			ValidUntil:  r.ValidUntil,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
		}

		path, err := s.artifacts.Save(ctx, storedArtifactName(b.ID), doc)
		if err != nil {
			return fmt.Errorf("%w: store artifact: %v", domain.ErrRenderFailure, err)
		}
		savedPath = path

		if err := s.badges.SetArtifactPath(ctx, b.ID, path); err != nil {
			return fmt.Errorf("attach artifact: %w", err)
		}
		b.ArtifactPath = &path
		issued = b
		return nil
	})
	if err != nil {
		if savedPath != "" {
			if delErr := s.artifacts.Delete(ctx, savedPath); delErr != nil {
				s.logger.Warn().Err(delErr).Str("path", savedPath).Msg("failed to remove orphaned artifact")
			}
		}
		if errors.Is(err, domain.ErrRenderFailure) {
			s.logger.Error().Err(err).Str("request_id", in.BadgeRequestID).Msg("badge rendering failed")
		}
		return nil, err
	}

	s.logger.Info().
		Str("badge_id", issued.ID).
		Str("badge_number", issued.BadgeNumber).
		Str("request_id", issued.BadgeRequestID).
		Str("by", caller.UserID).
		Msg("badge issued")
	return issued, nil
}

// List returns every badge for admins and only owned badges otherwise.
func (s *BadgeService) List(ctx context.Context, caller domain.Identity) ([]*domain.Badge, error) {
	if err := s.gate.Authorize(caller, policy.ActionListBadges, ""); err != nil {
		return nil, err
	}
	return s.badges.List(ctx, s.gate.Scope(caller))
}

// Download opens the rendered artifact of a badge.
func (s *BadgeService) Download(ctx context.Context, caller domain.Identity, id string) (*ports.BadgeArtifact, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	b, err := s.badges.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(caller, policy.ActionViewBadge, b.OwnerID); err != nil {
		return nil, err
	}
	if b.ArtifactPath == nil {
		return nil, fmt.Errorf("%w: badge has no rendered artifact", domain.ErrNotFound)
	}

	body, err := s.artifacts.Open(ctx, *b.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return &ports.BadgeArtifact{
		Filename:    artifactName(b.BadgeNumber),
		ContentType: s.renderer.ContentType(),
		Body:        body,
	}, nil
}

// storedArtifactName names the stored document after the badge ID, which is
// unique. Sanitized badge numbers can collide.
func storedArtifactName(badgeID string) string {
	return "badge_" + unsafeFilenameChars.ReplaceAllString(badgeID, "_") + ".pdf"
}

// artifactName is the download filename derived from a badge number.
func artifactName(badgeNumber string) string {
	return "badge_" + unsafeFilenameChars.ReplaceAllString(badgeNumber, "_") + ".pdf"
}
