package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"gorm.io/gorm"
)

var (
	ErrAudienceSegmentNotFound = errutil.NotFoundError(errors.New("audience segment not found"))
)

type AudienceSegment struct {
	ID          *string `gorm:"primaryKey;size:36"`
	UserID      *string `gorm:"size:36;index"`
	Name        *string `gorm:"size:255"`
	Description *string `gorm:"type:text"`
	Criteria    *string `gorm:"type:text"`
	MemberCount *uint64
	CreateTime  *uint64 `gorm:"index"`
	UpdateTime  *uint64
}

func (m *AudienceSegment) TableName() string {
	return "audience_segment_tab"
}

type AudienceSegmentFilter struct {
	UserID     *string
	Pagination *Pagination
}

type AudienceSegmentRepo interface {
	Create(ctx context.Context, segment *entity.AudienceSegment) error
	GetByID(ctx context.Context, segmentID string) (*entity.AudienceSegment, error)
	GetMany(ctx context.Context, f *AudienceSegmentFilter) ([]*entity.AudienceSegment, *Pagination, error)
}

type audienceSegmentRepo struct {
	baseRepo BaseRepo
}

func NewAudienceSegmentRepo(_ context.Context, baseRepo BaseRepo) AudienceSegmentRepo {
	return &audienceSegmentRepo{
		baseRepo: baseRepo,
	}
}

func (r *audienceSegmentRepo) Create(ctx context.Context, segment *entity.AudienceSegment) error {
	segmentModel, err := ToAudienceSegmentModel(segment)
	if err != nil {
		return err
	}
	return r.baseRepo.Create(ctx, segmentModel)
}

func (r *audienceSegmentRepo) GetByID(ctx context.Context, segmentID string) (*entity.AudienceSegment, error) {
	segmentModel := new(AudienceSegment)
	if err := r.baseRepo.Get(ctx, segmentModel, &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Op:    OpEq,
				Value: segmentID,
			},
		},
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAudienceSegmentNotFound
		}
		return nil, err
	}
	return ToAudienceSegment(segmentModel)
}

func (r *audienceSegmentRepo) GetMany(ctx context.Context, f *AudienceSegmentFilter) ([]*entity.AudienceSegment, *Pagination, error) {
	res, pagination, err := r.baseRepo.GetMany(ctx, new(AudienceSegment), &Filter{
		Conditions: []*Condition{
			{
				Field: "user_id",
				Op:    OpEq,
				Value: f.UserID,
			},
		},
		Pagination: f.Pagination,
	})
	if err != nil {
		return nil, nil, err
	}

	segments := make([]*entity.AudienceSegment, 0, len(res))
	for _, m := range res {
		segment, err := ToAudienceSegment(m.(*AudienceSegment))
		if err != nil {
			return nil, nil, err
		}
		segments = append(segments, segment)
	}

	return segments, pagination, nil
}

func ToAudienceSegment(segment *AudienceSegment) (*entity.AudienceSegment, error) {
	var criteria *entity.AudienceCriteria
	if err := fromJsonColumn(segment.Criteria, &criteria); err != nil {
		return nil, fmt.Errorf("decode segment criteria: %w", err)
	}

	return &entity.AudienceSegment{
		ID:          segment.ID,
		UserID:      segment.UserID,
		Name:        segment.Name,
		Description: segment.Description,
		Criteria:    criteria,
		MemberCount: segment.MemberCount,
		CreateTime:  segment.CreateTime,
		UpdateTime:  segment.UpdateTime,
	}, nil
}

func ToAudienceSegmentModel(segment *entity.AudienceSegment) (*AudienceSegment, error) {
	criteria, err := toJsonColumn(segment.Criteria)
	if err != nil {
		return nil, err
	}

	return &AudienceSegment{
		ID:          segment.ID,
		UserID:      segment.UserID,
		Name:        segment.Name,
		Description: segment.Description,
		Criteria:    criteria,
		MemberCount: segment.MemberCount,
		CreateTime:  segment.CreateTime,
		UpdateTime:  segment.UpdateTime,
	}, nil
}
