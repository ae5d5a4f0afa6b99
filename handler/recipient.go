package handler

import (
	"context"
	"errors"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoRecipients = errutil.ValidationError(errors.New("no recipients found for this survey"))
)

// RecipientResolver turns explicit member ids, a saved segment or a survey's audience criteria into
// the members a campaign is sent to.
type RecipientResolver interface {
	Resolve(ctx context.Context, survey *entity.Survey, memberIDs []string) ([]*entity.AudienceMember, error)
	// ResolveSegment matches every value of the segment criteria, up to the survey target.
	ResolveSegment(ctx context.Context, survey *entity.Survey, segmentID string) ([]*entity.AudienceMember, error)
}

type recipientResolver struct {
	audienceMemberRepo repo.AudienceMemberRepo
	segmentRepo        repo.AudienceSegmentRepo
}

func NewRecipientResolver(audienceMemberRepo repo.AudienceMemberRepo, segmentRepo repo.AudienceSegmentRepo) RecipientResolver {
	return &recipientResolver{
		audienceMemberRepo: audienceMemberRepo,
		segmentRepo:        segmentRepo,
	}
}

func (r *recipientResolver) Resolve(ctx context.Context, survey *entity.Survey, memberIDs []string) ([]*entity.AudienceMember, error) {
	var (
		members []*entity.AudienceMember
		err     error
	)
	if len(memberIDs) > 0 {
		members, err = r.resolveExplicit(ctx, memberIDs)
	} else {
		members, err = r.resolveCriteria(ctx, survey)
	}
	if err != nil {
		log.Ctx(ctx).Error().Msgf("resolve recipients failed: %v, survey_id: %v", err, survey.GetID())
		return nil, err
	}

	if len(members) == 0 {
		return nil, ErrNoRecipients
	}

	return members, nil
}

// resolveExplicit keeps input order, drops unknown or inactive members and repeated ids.
func (r *recipientResolver) resolveExplicit(ctx context.Context, memberIDs []string) ([]*entity.AudienceMember, error) {
	found, _, err := r.audienceMemberRepo.GetMany(ctx, &repo.AudienceMemberFilter{
		IDs: memberIDs,
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entity.AudienceMember, len(found))
	for _, m := range found {
		byID[m.GetID()] = m
	}

	members := make([]*entity.AudienceMember, 0, len(memberIDs))
	seen := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		m, ok := byID[id]
		if !ok || seen[id] || !m.GetIsActive() {
			continue
		}
		seen[id] = true
		members = append(members, m)
	}

	return members, nil
}

// resolveCriteria filters on the first value of each criterion only.
func (r *recipientResolver) resolveCriteria(ctx context.Context, survey *entity.Survey) ([]*entity.AudienceMember, error) {
	criteria := survey.GetAudienceCriteria()

	members, _, err := r.audienceMemberRepo.GetMany(ctx, &repo.AudienceMemberFilter{
		AgeGroup: goutil.FirstStr(criteria.AgeGroups),
		Gender:   goutil.FirstStr(criteria.Genders),
		Country:  goutil.FirstStr(criteria.Locations),
		Industry: goutil.FirstStr(criteria.Industries),
		IsActive: goutil.Bool(true),
		Pagination: &repo.Pagination{
			Page:  goutil.Uint32(1),
			Limit: goutil.Uint32(uint32(survey.GetTargetCount())),
		},
	})

	return members, err
}

func (r *recipientResolver) ResolveSegment(ctx context.Context, survey *entity.Survey, segmentID string) ([]*entity.AudienceMember, error) {
	segment, err := r.segmentRepo.GetByID(ctx, segmentID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get audience segment failed: %v, segment_id: %v", err, segmentID)
		return nil, err
	}

	criteria := segment.GetCriteria()

	members, _, err := r.audienceMemberRepo.GetMany(ctx, &repo.AudienceMemberFilter{
		AgeGroups:  criteria.AgeGroups,
		Genders:    criteria.Genders,
		Countries:  criteria.Locations,
		Industries: criteria.Industries,
		IsActive:   goutil.Bool(true),
		Pagination: &repo.Pagination{
			Page:  goutil.Uint32(1),
			Limit: goutil.Uint32(uint32(survey.GetTargetCount())),
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("resolve segment members failed: %v, segment_id: %v", err, segmentID)
		return nil, err
	}

	if len(members) == 0 {
		return nil, ErrNoRecipients
	}

	return members, nil
}
