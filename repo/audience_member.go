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
	ErrAudienceMemberNotFound = errutil.NotFoundError(errors.New("audience member not found"))
)

type AudienceMember struct {
	ID           *string `gorm:"primaryKey;size:36"`
	UserID       *string `gorm:"size:36;index"`
	FirstName    *string `gorm:"size:128"`
	LastName     *string `gorm:"size:128"`
	Email        *string `gorm:"size:255;uniqueIndex"`
	Phone        *string `gorm:"size:64"`
	AgeGroup     *string `gorm:"size:32;index"`
	Gender       *string `gorm:"size:32;index"`
	City         *string `gorm:"size:128"`
	State        *string `gorm:"size:128"`
	Country      *string `gorm:"size:128;index"`
	Industry     *string `gorm:"size:128;index"`
	JobTitle     *string `gorm:"size:128"`
	Education    *string `gorm:"size:128"`
	Income       *string `gorm:"size:64"`
	IsActive     *bool   `gorm:"default:true;index"`
	Tags         *string `gorm:"type:text"`
	LastActivity *uint64
	CreateTime   *uint64 `gorm:"index"`
	UpdateTime   *uint64
}

func (m *AudienceMember) TableName() string {
	return "audience_member_tab"
}

type AudienceMemberFilter struct {
	Keyword  *string
	AgeGroup *string
	Gender   *string
	Country  *string
	Industry *string
	IsActive *bool
	// IDs restricts the result to the given members when non-nil.
	IDs []string
	// AgeGroups, Genders, Countries and Industries match any of their values. Empty lists are ignored.
	AgeGroups  []string
	Genders    []string
	Countries  []string
	Industries []string
	Pagination *Pagination
}

// topGroupLimit caps the country and industry breakdowns of the audience stats.
const topGroupLimit = 5

type AudienceMemberRepo interface {
	Create(ctx context.Context, member *entity.AudienceMember) error
	CreateMany(ctx context.Context, members []*entity.AudienceMember) error
	GetByID(ctx context.Context, memberID string) (*entity.AudienceMember, error)
	GetByEmail(ctx context.Context, email string) (*entity.AudienceMember, error)
	GetMany(ctx context.Context, f *AudienceMemberFilter) ([]*entity.AudienceMember, *Pagination, error)
	Update(ctx context.Context, member *entity.AudienceMember) error
	// CountByCriteria counts active members matching any value of every non-empty criterion.
	CountByCriteria(ctx context.Context, criteria *entity.AudienceCriteria) (uint64, error)
	GetStats(ctx context.Context) (*entity.AudienceStats, error)
}

type audienceMemberRepo struct {
	baseRepo BaseRepo
}

func NewAudienceMemberRepo(_ context.Context, baseRepo BaseRepo) AudienceMemberRepo {
	return &audienceMemberRepo{
		baseRepo: baseRepo,
	}
}

func (r *audienceMemberRepo) Create(ctx context.Context, member *entity.AudienceMember) error {
	memberModel, err := ToAudienceMemberModel(member)
	if err != nil {
		return err
	}
	return r.baseRepo.Create(ctx, memberModel)
}

func (r *audienceMemberRepo) CreateMany(ctx context.Context, members []*entity.AudienceMember) error {
	if len(members) == 0 {
		return nil
	}

	memberModels := make([]*AudienceMember, 0, len(members))
	for _, member := range members {
		memberModel, err := ToAudienceMemberModel(member)
		if err != nil {
			return err
		}
		memberModels = append(memberModels, memberModel)
	}

	return r.baseRepo.CreateMany(ctx, new(AudienceMember), memberModels)
}

func (r *audienceMemberRepo) GetByID(ctx context.Context, memberID string) (*entity.AudienceMember, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "id",
			Op:    OpEq,
			Value: memberID,
		},
	})
}

func (r *audienceMemberRepo) GetByEmail(ctx context.Context, email string) (*entity.AudienceMember, error) {
	return r.get(ctx, []*Condition{
		{
			Field: "email",
			Op:    OpEq,
			Value: email,
		},
	})
}

func (r *audienceMemberRepo) get(ctx context.Context, conditions []*Condition) (*entity.AudienceMember, error) {
	memberModel := new(AudienceMember)
	if err := r.baseRepo.Get(ctx, memberModel, &Filter{
		Conditions: conditions,
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAudienceMemberNotFound
		}
		return nil, err
	}

	return ToAudienceMember(memberModel)
}

func (r *audienceMemberRepo) GetMany(ctx context.Context, f *AudienceMemberFilter) ([]*entity.AudienceMember, *Pagination, error) {
	var keyword *string
	if f.Keyword != nil {
		keyword = likePattern(*f.Keyword)
	}

	var ids interface{}
	if f.IDs != nil {
		ids = f.IDs
	}

	res, pagination, err := r.baseRepo.GetMany(ctx, new(AudienceMember), &Filter{
		Conditions: []*Condition{
			{
				Field: "id",
				Op:    OpIn,
				Value: ids,
			},
			{
				Field: "age_group",
				Op:    OpEq,
				Value: f.AgeGroup,
			},
			{
				Field: "gender",
				Op:    OpEq,
				Value: f.Gender,
			},
			{
				Field: "country",
				Op:    OpEq,
				Value: f.Country,
			},
			{
				Field: "industry",
				Op:    OpEq,
				Value: f.Industry,
			},
			{
				Field: "is_active",
				Op:    OpEq,
				Value: f.IsActive,
			},
			{
				Field: "age_group",
				Op:    OpIn,
				Value: anyOf(f.AgeGroups),
			},
			{
				Field: "gender",
				Op:    OpIn,
				Value: anyOf(f.Genders),
			},
			{
				Field: "country",
				Op:    OpIn,
				Value: anyOf(f.Countries),
			},
			{
				Field: "industry",
				Op:    OpIn,
				Value: anyOf(f.Industries),
			},
			{
				Group: []*Condition{
					{
						Field:         "first_name",
						Op:            OpLike,
						Value:         keyword,
						NextLogicalOp: Or,
					},
					{
						Field:         "last_name",
						Op:            OpLike,
						Value:         keyword,
						NextLogicalOp: Or,
					},
					{
						Field: "email",
						Op:    OpLike,
						Value: keyword,
					},
				},
			},
		},
		Pagination: f.Pagination,
	})
	if err != nil {
		return nil, nil, err
	}

	members := make([]*entity.AudienceMember, 0, len(res))
	for _, m := range res {
		member, err := ToAudienceMember(m.(*AudienceMember))
		if err != nil {
			return nil, nil, err
		}
		members = append(members, member)
	}

	return members, pagination, nil
}

func (r *audienceMemberRepo) Update(ctx context.Context, member *entity.AudienceMember) error {
	memberModel, err := ToAudienceMemberModel(member)
	if err != nil {
		return err
	}
	return r.baseRepo.Update(ctx, memberModel)
}

func (r *audienceMemberRepo) CountByCriteria(ctx context.Context, criteria *entity.AudienceCriteria) (uint64, error) {
	return r.baseRepo.Count(ctx, new(AudienceMember), &Filter{
		Conditions: []*Condition{
			{
				Field: "is_active",
				Op:    OpEq,
				Value: true,
			},
			{
				Field: "age_group",
				Op:    OpIn,
				Value: anyOf(criteria.AgeGroups),
			},
			{
				Field: "gender",
				Op:    OpIn,
				Value: anyOf(criteria.Genders),
			},
			{
				Field: "country",
				Op:    OpIn,
				Value: anyOf(criteria.Locations),
			},
			{
				Field: "industry",
				Op:    OpIn,
				Value: anyOf(criteria.Industries),
			},
		},
	})
}

func (r *audienceMemberRepo) GetStats(ctx context.Context) (*entity.AudienceStats, error) {
	total, err := r.baseRepo.Count(ctx, new(AudienceMember), nil)
	if err != nil {
		return nil, err
	}

	active, err := r.baseRepo.Count(ctx, new(AudienceMember), &Filter{
		Conditions: []*Condition{
			{
				Field: "is_active",
				Op:    OpEq,
				Value: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	stats := &entity.AudienceStats{
		Total:  total,
		Active: active,
	}

	for _, breakdown := range []struct {
		field string
		limit int
		dst   *map[string]uint64
	}{
		{"age_group", 0, &stats.ByAgeGroup},
		{"gender", 0, &stats.ByGender},
		{"country", topGroupLimit, &stats.ByCountry},
		{"industry", topGroupLimit, &stats.ByIndustry},
	} {
		groups, err := r.baseRepo.GroupCount(ctx, new(AudienceMember), breakdown.field, nil, breakdown.limit)
		if err != nil {
			return nil, err
		}

		counts := make(map[string]uint64, len(groups))
		for _, g := range groups {
			counts[g.Value] = g.Count
		}
		*breakdown.dst = counts
	}

	return stats, nil
}

// anyOf keeps an empty list out of an IN condition.
func anyOf(values []string) interface{} {
	if len(values) == 0 {
		return nil
	}
	return values
}

func ToAudienceMember(member *AudienceMember) (*entity.AudienceMember, error) {
	var tags []string
	if err := fromJsonColumn(member.Tags, &tags); err != nil {
		return nil, fmt.Errorf("decode audience member tags: %w", err)
	}

	return &entity.AudienceMember{
		ID:           member.ID,
		UserID:       member.UserID,
		FirstName:    member.FirstName,
		LastName:     member.LastName,
		Email:        member.Email,
		Phone:        member.Phone,
		AgeGroup:     member.AgeGroup,
		Gender:       member.Gender,
		City:         member.City,
		State:        member.State,
		Country:      member.Country,
		Industry:     member.Industry,
		JobTitle:     member.JobTitle,
		Education:    member.Education,
		Income:       member.Income,
		IsActive:     member.IsActive,
		Tags:         tags,
		LastActivity: member.LastActivity,
		CreateTime:   member.CreateTime,
		UpdateTime:   member.UpdateTime,
	}, nil
}

func ToAudienceMemberModel(member *entity.AudienceMember) (*AudienceMember, error) {
	tags, err := toJsonColumn(member.Tags)
	if err != nil {
		return nil, err
	}

	return &AudienceMember{
		ID:           member.ID,
		UserID:       member.UserID,
		FirstName:    member.FirstName,
		LastName:     member.LastName,
		Email:        member.Email,
		Phone:        member.Phone,
		AgeGroup:     member.AgeGroup,
		Gender:       member.Gender,
		City:         member.City,
		State:        member.State,
		Country:      member.Country,
		Industry:     member.Industry,
		JobTitle:     member.JobTitle,
		Education:    member.Education,
		Income:       member.Income,
		IsActive:     member.IsActive,
		Tags:         tags,
		LastActivity: member.LastActivity,
		CreateTime:   member.CreateTime,
		UpdateTime:   member.UpdateTime,
	}, nil
}
