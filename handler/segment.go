package handler

import (
	"context"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/validator"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type SegmentHandler interface {
	CreateAudienceSegment(ctx context.Context, req *CreateAudienceSegmentRequest, res *CreateAudienceSegmentResponse) error
	GetAudienceSegment(ctx context.Context, req *GetAudienceSegmentRequest, res *GetAudienceSegmentResponse) error
	GetAudienceSegments(ctx context.Context, req *GetAudienceSegmentsRequest, res *GetAudienceSegmentsResponse) error
}

type segmentHandler struct {
	segmentRepo        repo.AudienceSegmentRepo
	audienceMemberRepo repo.AudienceMemberRepo
}

func NewSegmentHandler(segmentRepo repo.AudienceSegmentRepo, audienceMemberRepo repo.AudienceMemberRepo) SegmentHandler {
	return &segmentHandler{
		segmentRepo:        segmentRepo,
		audienceMemberRepo: audienceMemberRepo,
	}
}

type CreateAudienceSegmentRequest struct {
	UserID      *string                  `json:"user_id,omitempty"`
	Name        *string                  `json:"name,omitempty" validate:"required,min=1,max=255"`
	Description *string                  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Criteria    *entity.AudienceCriteria `json:"criteria,omitempty" validate:"required"`
}

type CreateAudienceSegmentResponse struct {
	AudienceSegment *entity.AudienceSegment `json:"audience_segment"`
}

func (h *segmentHandler) CreateAudienceSegment(ctx context.Context, req *CreateAudienceSegmentRequest, res *CreateAudienceSegmentResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	count, err := h.audienceMemberRepo.CountByCriteria(ctx, req.Criteria)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("count segment members failed: %v", err)
		return err
	}

	now := goutil.NowUnix()
	segment := &entity.AudienceSegment{
		ID:          goutil.String(uuid.NewString()),
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		Criteria:    req.Criteria,
		MemberCount: goutil.Uint64(count),
		CreateTime:  goutil.Uint64(now),
		UpdateTime:  goutil.Uint64(now),
	}

	if err := h.segmentRepo.Create(ctx, segment); err != nil {
		log.Ctx(ctx).Error().Msgf("create audience segment failed: %v", err)
		return err
	}

	res.AudienceSegment = segment

	return nil
}

type GetAudienceSegmentRequest struct {
	SegmentID *string `schema:"segment_id" json:"segment_id,omitempty" validate:"required"`
}

type GetAudienceSegmentResponse struct {
	AudienceSegment *entity.AudienceSegment `json:"audience_segment"`
}

func (h *segmentHandler) GetAudienceSegment(ctx context.Context, req *GetAudienceSegmentRequest, res *GetAudienceSegmentResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	segment, err := h.segmentRepo.GetByID(ctx, *req.SegmentID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get audience segment failed: %v, segment_id: %v", err, *req.SegmentID)
		return err
	}

	res.AudienceSegment = segment

	return nil
}

type GetAudienceSegmentsRequest struct {
	UserID     *string          `schema:"user_id" json:"user_id,omitempty"`
	Pagination *repo.Pagination `schema:"pagination" json:"pagination,omitempty"`
}

type GetAudienceSegmentsResponse struct {
	AudienceSegments []*entity.AudienceSegment `json:"audience_segments"`
	Pagination       *repo.Pagination          `json:"pagination,omitempty"`
}

func (h *segmentHandler) GetAudienceSegments(ctx context.Context, req *GetAudienceSegmentsRequest, res *GetAudienceSegmentsResponse) error {
	segments, pagination, err := h.segmentRepo.GetMany(ctx, &repo.AudienceSegmentFilter{
		UserID:     goutil.NilIfEmpty(req.UserID),
		Pagination: req.Pagination,
	})
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get audience segments failed: %v", err)
		return err
	}

	res.AudienceSegments = segments
	res.Pagination = pagination

	return nil
}
