package handler

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ayushbirla71/survey-backend/dep"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/repo"
)

// memStore backs every fake repo so handlers see one consistent state.
type memStore struct {
	mu         sync.Mutex
	surveys    map[string]*entity.Survey
	campaigns  map[string]*entity.Campaign
	recipients map[string]*entity.Recipient
	members    map[string]*entity.AudienceMember
	segments   map[string]*entity.AudienceSegment
	events     []*entity.TrackingEvent
	responses  []*entity.SurveyResponse
}

func newMemStore() *memStore {
	return &memStore{
		surveys:    make(map[string]*entity.Survey),
		campaigns:  make(map[string]*entity.Campaign),
		recipients: make(map[string]*entity.Recipient),
		members:    make(map[string]*entity.AudienceMember),
		segments:   make(map[string]*entity.AudienceSegment),
	}
}

func (s *memStore) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) survey(id string) *entity.Survey {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.surveys[id]
	return &c
}

func (s *memStore) campaign(id string) *entity.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.campaigns[id]
	return &c
}

func (s *memStore) campaignRecipients(campaignID string) []*entity.Recipient {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*entity.Recipient, 0)
	for _, r := range s.recipients {
		if r.GetCampaignID() == campaignID {
			c := *r
			res = append(res, &c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetEmail() < res[j].GetEmail() })
	return res
}

func (s *memStore) eventCount(t entity.TrackingEventType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.EventType == t {
			n++
		}
	}
	return n
}

func addUint64(p *uint64, n uint64) *uint64 {
	var v uint64
	if p != nil {
		v = *p
	}
	return goutil.Uint64(v + n)
}

type fakeSurveyRepo struct{ *memStore }

func (r fakeSurveyRepo) Create(_ context.Context, survey *entity.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *survey
	r.surveys[survey.GetID()] = &c
	return nil
}

func (r fakeSurveyRepo) GetByID(_ context.Context, surveyID string) (*entity.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[surveyID]
	if !ok {
		return nil, repo.ErrSurveyNotFound
	}
	c := *s
	return &c, nil
}

func (r fakeSurveyRepo) GetMany(_ context.Context, f *repo.SurveyFilter) ([]*entity.Survey, *repo.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*entity.Survey, 0)
	for _, s := range r.surveys {
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		c := *s
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetCreateTime() > res[j].GetCreateTime() })
	if limit := f.Pagination.GetLimit(); limit > 0 && uint32(len(res)) > limit {
		res = res[:limit]
	}
	return res, new(repo.Pagination), nil
}

func (r fakeSurveyRepo) GetTotals(_ context.Context) (*repo.SurveyTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := &repo.SurveyTotals{Surveys: uint64(len(r.surveys))}
	for _, s := range r.surveys {
		if s.TargetCount != nil {
			totals.TargetCount += *s.TargetCount
		}
		totals.EmailsSent += s.GetEmailsSent()
		totals.EmailsOpened += s.GetEmailsOpened()
	}
	return totals, nil
}

func (r fakeSurveyRepo) Update(_ context.Context, survey *entity.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[survey.GetID()]; !ok {
		return repo.ErrSurveyNotFound
	}
	c := *survey
	r.surveys[survey.GetID()] = &c
	return nil
}

func (r fakeSurveyRepo) IncrStats(_ context.Context, surveyID string, delta repo.SurveyStatsDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[surveyID]
	if !ok {
		return repo.ErrSurveyNotFound
	}
	s.EmailsSent = addUint64(s.EmailsSent, delta.EmailsSent)
	s.EmailsOpened = addUint64(s.EmailsOpened, delta.EmailsOpened)
	s.ResponseCount = addUint64(s.ResponseCount, delta.ResponseCount)
	return nil
}

func (r fakeSurveyRepo) Delete(_ context.Context, surveyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.surveys[surveyID]; !ok {
		return repo.ErrSurveyNotFound
	}
	delete(r.surveys, surveyID)
	return nil
}

type fakeCampaignRepo struct{ *memStore }

func (r fakeCampaignRepo) CreateWithRecipients(_ context.Context, campaign *entity.Campaign, recipients []*entity.Recipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *campaign
	r.campaigns[campaign.GetID()] = &c
	for _, rec := range recipients {
		rc := *rec
		r.recipients[rec.GetID()] = &rc
	}
	return nil
}

func (r fakeCampaignRepo) GetByID(_ context.Context, campaignID string) (*entity.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok {
		return nil, repo.ErrCampaignNotFound
	}
	cc := *c
	return &cc, nil
}

func (r fakeCampaignRepo) GetMany(_ context.Context, f *repo.CampaignFilter) ([]*entity.Campaign, *repo.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*entity.Campaign, 0)
	for _, c := range r.campaigns {
		if f.SurveyID != nil && c.GetSurveyID() != *f.SurveyID {
			continue
		}
		if f.Status != nil && c.Status != *f.Status {
			continue
		}
		cc := *c
		res = append(res, &cc)
	}
	return res, new(repo.Pagination), nil
}

func (r fakeCampaignRepo) Transition(_ context.Context, campaignID string, to entity.CampaignStatus, fields *entity.Campaign) (bool, error) {
	if to.From() == entity.CampaignStatusUnknown {
		return false, errutil.BadRequestError(errors.New("illegal campaign transition"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok || c.Status != to.From() {
		return false, nil
	}
	c.Status = to
	if fields != nil {
		if fields.SentCount != nil {
			c.SentCount = fields.SentCount
		}
		if fields.FailedCount != nil {
			c.FailedCount = fields.FailedCount
		}
		if fields.SentAt != nil {
			c.SentAt = fields.SentAt
		}
	}
	return true, nil
}

func (r fakeCampaignRepo) IncrCounters(_ context.Context, campaignID string, delta repo.CampaignCountersDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[campaignID]
	if !ok {
		return repo.ErrCampaignNotFound
	}
	c.SentCount = addUint64(c.SentCount, delta.SentCount)
	c.FailedCount = addUint64(c.FailedCount, delta.FailedCount)
	c.OpenedCount = addUint64(c.OpenedCount, delta.OpenedCount)
	c.RespondedCount = addUint64(c.RespondedCount, delta.RespondedCount)
	return nil
}

type fakeRecipientRepo struct{ *memStore }

func (r fakeRecipientRepo) GetByTrackingID(_ context.Context, trackingID string) (*entity.Recipient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recipients {
		if rec.GetTrackingID() == trackingID {
			c := *rec
			return &c, nil
		}
	}
	return nil, repo.ErrRecipientNotFound
}

func (r fakeRecipientRepo) GetMany(_ context.Context, f *repo.RecipientFilter) ([]*entity.Recipient, *repo.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*entity.Recipient, 0)
	for _, rec := range r.recipients {
		if f.CampaignID != nil && rec.GetCampaignID() != *f.CampaignID {
			continue
		}
		if f.Status != nil && rec.Status != *f.Status {
			continue
		}
		c := *rec
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetEmail() < res[j].GetEmail() })
	return res, new(repo.Pagination), nil
}

func (r fakeRecipientRepo) transition(match func(*entity.Recipient) bool, to entity.RecipientStatus, errMsg string) (bool, error) {
	if to.From() == entity.RecipientStatusUnknown {
		return false, errutil.BadRequestError(errors.New("illegal recipient transition"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.recipients {
		if !match(rec) {
			continue
		}
		if rec.Status != to.From() {
			return false, nil
		}
		rec.Status = to
		now := goutil.Uint64(goutil.NowUnix())
		switch to {
		case entity.RecipientStatusSent:
			rec.SentAt = now
		case entity.RecipientStatusFailed:
			rec.ErrorMessage = goutil.String(errMsg)
		case entity.RecipientStatusOpened:
			rec.OpenedAt = now
		case entity.RecipientStatusResponded:
			rec.RespondedAt = now
		}
		return true, nil
	}
	return false, nil
}

func (r fakeRecipientRepo) TransitionByID(_ context.Context, recipientID string, to entity.RecipientStatus, errMsg string) (bool, error) {
	return r.transition(func(rec *entity.Recipient) bool { return rec.GetID() == recipientID }, to, errMsg)
}

func (r fakeRecipientRepo) TransitionByTrackingID(_ context.Context, trackingID string, to entity.RecipientStatus) (bool, error) {
	return r.transition(func(rec *entity.Recipient) bool { return rec.GetTrackingID() == trackingID }, to, "")
}

type fakeAudienceMemberRepo struct{ *memStore }

func (r fakeAudienceMemberRepo) Create(_ context.Context, member *entity.AudienceMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *member
	r.members[member.GetID()] = &c
	return nil
}

func (r fakeAudienceMemberRepo) CreateMany(ctx context.Context, members []*entity.AudienceMember) error {
	for _, m := range members {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r fakeAudienceMemberRepo) GetByID(_ context.Context, memberID string) (*entity.AudienceMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[memberID]
	if !ok {
		return nil, repo.ErrAudienceMemberNotFound
	}
	c := *m
	return &c, nil
}

func (r fakeAudienceMemberRepo) GetByEmail(_ context.Context, email string) (*entity.AudienceMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.GetEmail() == email {
			c := *m
			return &c, nil
		}
	}
	return nil, repo.ErrAudienceMemberNotFound
}

func (r fakeAudienceMemberRepo) GetMany(_ context.Context, f *repo.AudienceMemberFilter) ([]*entity.AudienceMember, *repo.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eq := func(want *string, got string) bool {
		return want == nil || *want == got
	}

	res := make([]*entity.AudienceMember, 0)
	for _, m := range r.members {
		if f.IDs != nil && !goutil.ContainsStr(f.IDs, m.GetID()) {
			continue
		}
		if !eq(f.AgeGroup, m.GetAgeGroup()) || !eq(f.Gender, m.GetGender()) ||
			!eq(f.Country, m.GetCountry()) || !eq(f.Industry, m.GetIndustry()) {
			continue
		}
		if !anyOf(f.AgeGroups, m.GetAgeGroup()) || !anyOf(f.Genders, m.GetGender()) ||
			!anyOf(f.Countries, m.GetCountry()) || !anyOf(f.Industries, m.GetIndustry()) {
			continue
		}
		if f.IsActive != nil && m.GetIsActive() != *f.IsActive {
			continue
		}
		c := *m
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetID() < res[j].GetID() })

	if limit := f.Pagination.GetLimit(); limit > 0 && uint32(len(res)) > limit {
		res = res[:limit]
	}

	return res, new(repo.Pagination), nil
}

func (r fakeAudienceMemberRepo) Update(_ context.Context, member *entity.AudienceMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *member
	r.members[member.GetID()] = &c
	return nil
}

func (r fakeAudienceMemberRepo) CountByCriteria(ctx context.Context, criteria *entity.AudienceCriteria) (uint64, error) {
	members, _, err := r.GetMany(ctx, &repo.AudienceMemberFilter{
		AgeGroups:  criteria.AgeGroups,
		Genders:    criteria.Genders,
		Countries:  criteria.Locations,
		Industries: criteria.Industries,
		IsActive:   goutil.Bool(true),
	})
	return uint64(len(members)), err
}

func (r fakeAudienceMemberRepo) GetStats(_ context.Context) (*entity.AudienceStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &entity.AudienceStats{
		ByAgeGroup: make(map[string]uint64),
		ByGender:   make(map[string]uint64),
		ByCountry:  make(map[string]uint64),
		ByIndustry: make(map[string]uint64),
	}
	inc := func(dst map[string]uint64, v *string) {
		if v != nil {
			dst[*v]++
		}
	}
	for _, m := range r.members {
		stats.Total++
		if m.GetIsActive() {
			stats.Active++
		}
		inc(stats.ByAgeGroup, m.AgeGroup)
		inc(stats.ByGender, m.Gender)
		inc(stats.ByCountry, m.Country)
		inc(stats.ByIndustry, m.Industry)
	}
	return stats, nil
}

// anyOf matches everything when values is empty.
func anyOf(values []string, v string) bool {
	return len(values) == 0 || goutil.ContainsStr(values, v)
}

type fakeSegmentRepo struct{ *memStore }

func (r fakeSegmentRepo) Create(_ context.Context, segment *entity.AudienceSegment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *segment
	r.segments[segment.GetID()] = &c
	return nil
}

func (r fakeSegmentRepo) GetByID(_ context.Context, segmentID string) (*entity.AudienceSegment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.segments[segmentID]
	if !ok {
		return nil, repo.ErrAudienceSegmentNotFound
	}
	c := *s
	return &c, nil
}

func (r fakeSegmentRepo) GetMany(_ context.Context, f *repo.AudienceSegmentFilter) ([]*entity.AudienceSegment, *repo.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*entity.AudienceSegment, 0)
	for _, s := range r.segments {
		if f.UserID != nil && s.GetUserID() != *f.UserID {
			continue
		}
		c := *s
		res = append(res, &c)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetName() < res[j].GetName() })
	return res, new(repo.Pagination), nil
}

type fakeTrackingEventRepo struct{ *memStore }

func (r fakeTrackingEventRepo) Create(_ context.Context, event *entity.TrackingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r fakeTrackingEventRepo) Count(_ context.Context, surveyID string, eventType entity.TrackingEventType) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n uint64
	for _, e := range r.events {
		if e.EventType == eventType && e.SurveyID != nil && *e.SurveyID == surveyID {
			n++
		}
	}
	return n, nil
}

type fakeSurveyResponseRepo struct{ *memStore }

func (r fakeSurveyResponseRepo) Create(_ context.Context, response *entity.SurveyResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, response)
	return nil
}

func (r fakeSurveyResponseRepo) GetMany(_ context.Context, f *repo.SurveyResponseFilter) ([]*entity.SurveyResponse, *repo.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*entity.SurveyResponse, 0)
	for _, resp := range r.responses {
		if f.SurveyID != nil && resp.SurveyID != nil && *resp.SurveyID != *f.SurveyID {
			continue
		}
		res = append(res, resp)
	}
	return res, new(repo.Pagination), nil
}

func (r fakeSurveyResponseRepo) Count(ctx context.Context, f *repo.SurveyResponseFilter) (uint64, error) {
	res, _, err := r.GetMany(ctx, f)
	return uint64(len(res)), err
}

func (r fakeSurveyResponseRepo) AvgCompletionTime(_ context.Context, surveyID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum, n uint64
	for _, resp := range r.responses {
		if surveyID != "" && resp.GetSurveyID() != surveyID {
			continue
		}
		if resp.CompletionTime != nil {
			sum += *resp.CompletionTime
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

// fakeMailService fails the addresses in failures with the mapped error.
type fakeMailService struct {
	mu       sync.Mutex
	sent     []*dep.Email
	failures map[string]error
}

func (s *fakeMailService) SendEmail(_ context.Context, email *dep.Email) error {
	if err, ok := s.failures[email.To]; ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, email)
	return nil
}

func (s *fakeMailService) Provider() string {
	return "fake"
}

func (s *fakeMailService) Close(_ context.Context) error {
	return nil
}
