package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockBaseRepo(t *testing.T) (BaseRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	orm, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewBaseRepoWithDB(orm), mock
}

func TestRecipientTransitionByTrackingID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		rowsAffected int64
		want         bool
	}{
		{
			name:         "recipient still sent",
			rowsAffected: 1,
			want:         true,
		},
		{
			name:         "recipient already opened",
			rowsAffected: 0,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseRepo, mock := newMockBaseRepo(t)
			recipientRepo := NewRecipientRepo(ctx, baseRepo)

			mock.ExpectExec(regexp.QuoteMeta("UPDATE `recipient_tab` SET")).
				WithArgs(sqlmock.AnyArg(), uint32(entity.RecipientStatusOpened), "tok-1", uint32(entity.RecipientStatusSent)).
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			ok, err := recipientRepo.TransitionByTrackingID(ctx, "tok-1", entity.RecipientStatusOpened)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecipientTransitionRejectsIllegalTarget(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	recipientRepo := NewRecipientRepo(ctx, baseRepo)

	ok, err := recipientRepo.TransitionByID(ctx, "r-1", entity.RecipientStatusPending, "")
	assert.False(t, ok)
	code, _ := errutil.ParseHttpError(err)
	assert.Equal(t, 400, code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignTransition(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	campaignRepo := NewCampaignRepo(ctx, baseRepo)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `campaign_tab` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := campaignRepo.Transition(ctx, "c-1", entity.CampaignStatusPartiallyFailed, &entity.Campaign{
		SentCount:   goutil.Uint64(2),
		FailedCount: goutil.Uint64(1),
		SentAt:      goutil.Uint64(100),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `campaign_tab` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = campaignRepo.Transition(ctx, "c-1", entity.CampaignStatusSending, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignCreateWithRecipients(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	campaignRepo := NewCampaignRepo(ctx, baseRepo)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `campaign_tab`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `recipient_tab`")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := campaignRepo.CreateWithRecipients(ctx, &entity.Campaign{
		ID:       goutil.String("c-1"),
		SurveyID: goutil.String("s-1"),
		Status:   entity.CampaignStatusDraft,
	}, []*entity.Recipient{
		{ID: goutil.String("r-1"), CampaignID: goutil.String("c-1"), TrackingID: goutil.String("t-1"), Status: entity.RecipientStatusPending},
		{ID: goutil.String("r-2"), CampaignID: goutil.String("c-1"), TrackingID: goutil.String("t-2"), Status: entity.RecipientStatusPending},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignCreateWithRecipientsRollsBack(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	campaignRepo := NewCampaignRepo(ctx, baseRepo)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `campaign_tab`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `recipient_tab`")).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := campaignRepo.CreateWithRecipients(ctx, &entity.Campaign{ID: goutil.String("c-1")}, []*entity.Recipient{
		{ID: goutil.String("r-1"), TrackingID: goutil.String("t-1")},
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyDeleteCascades(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	surveyRepo := NewSurveyRepo(ctx, baseRepo, NewBaseCache(ctx))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `survey_tab`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("s-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `campaign_tab`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `campaign_tab`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "survey_id"}).AddRow("c-1", "s-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `survey_response_tab`")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `tracking_event_tab`")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `recipient_tab`")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `campaign_tab`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `survey_tab`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, surveyRepo.Delete(ctx, "s-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	surveyRepo := NewSurveyRepo(ctx, baseRepo, NewBaseCache(ctx))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `survey_tab`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := surveyRepo.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrSurveyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyGetByIDUsesCache(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	surveyRepo := NewSurveyRepo(ctx, baseRepo, NewBaseCache(ctx))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `survey_tab`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "questions"}).
			AddRow("s-1", "Quarterly pulse", int64(entity.SurveyStatusActive), `[{"id":"q1","type":"text","question":"How?"}]`))

	survey, err := surveyRepo.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly pulse", survey.GetTitle())
	assert.Equal(t, entity.SurveyStatusActive, survey.GetStatus())
	require.Len(t, survey.Questions, 1)
	assert.Equal(t, "q1", survey.Questions[0].GetID())

	// second read takes the definition from the cache and only the counters from the db
	mock.ExpectQuery("SELECT .*emails_opened.* FROM `survey_tab`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "emails_sent", "emails_opened", "response_count"}).
			AddRow("s-1", int64(3), int64(2), int64(1)))

	survey, err = surveyRepo.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Quarterly pulse", survey.GetTitle())
	require.Len(t, survey.Questions, 1)
	assert.Equal(t, uint64(3), survey.GetEmailsSent())
	assert.Equal(t, uint64(2), survey.GetEmailsOpened())
	assert.Equal(t, uint64(1), survey.GetResponseCount())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyGetByIDSeesCommittedCounters(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	surveyRepo := NewSurveyRepo(ctx, baseRepo, NewBaseCache(ctx))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `survey_tab`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status", "emails_opened"}).
			AddRow("s-1", "Quarterly pulse", int64(entity.SurveyStatusActive), int64(0)))

	survey, err := surveyRepo.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), survey.GetEmailsOpened())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `survey_tab` SET .*emails_opened`=emails_opened \\+ \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, baseRepo.RunTx(ctx, func(ctx context.Context) error {
		return surveyRepo.IncrStats(ctx, "s-1", SurveyStatsDelta{EmailsOpened: 1})
	}))

	mock.ExpectQuery("SELECT .*emails_opened.* FROM `survey_tab`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "emails_sent", "emails_opened", "response_count"}).
			AddRow("s-1", int64(1), int64(1), int64(0)))

	survey, err = surveyRepo.GetByID(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), survey.GetEmailsOpened())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyUpdateEvictsCacheAfterCommit(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	cache := NewBaseCache(ctx)
	surveyRepo := NewSurveyRepo(ctx, baseRepo, cache)

	stale := &entity.Survey{ID: goutil.String("s-1"), Title: goutil.String("Old title")}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `survey_tab` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, baseRepo.RunTx(ctx, func(ctx context.Context) error {
		if err := surveyRepo.Update(ctx, &entity.Survey{
			ID:    goutil.String("s-1"),
			Title: goutil.String("New title"),
		}); err != nil {
			return err
		}

		// a reader outside the transaction still sees the old row and caches it
		cache.Set(ctx, surveyCachePrefix, "s-1", stale)

		_, ok := cache.Get(ctx, surveyCachePrefix, "s-1")
		assert.True(t, ok)

		return nil
	}))

	_, ok := cache.Get(ctx, surveyCachePrefix, "s-1")
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAfterCommitDroppedOnRollback(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	var ran bool
	err := baseRepo.RunTx(ctx, func(ctx context.Context) error {
		baseRepo.AfterCommit(ctx, func(_ context.Context) { ran = true })
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.False(t, ran)

	baseRepo.AfterCommit(ctx, func(_ context.Context) { ran = true })
	assert.True(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSurveyResponseAvgCompletionTimeEmpty(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	responseRepo := NewSurveyResponseRepo(ctx, baseRepo)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT avg(completion_time) FROM `survey_response_tab`")).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err := responseRepo.AvgCompletionTime(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, float64(0), avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWithoutConditionsRefused(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)

	_, err := baseRepo.Delete(ctx, new(Survey), &Filter{})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAudienceMemberGetStats(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	memberRepo := NewAudienceMemberRepo(ctx, baseRepo)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `audience_member_tab`")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(10)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `audience_member_tab` WHERE is_active = ?")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(8)))

	for _, group := range []struct {
		field string
		rows  *sqlmock.Rows
	}{
		{"age_group", sqlmock.NewRows([]string{"value", "count"}).AddRow("25-34", int64(6)).AddRow("35-44", int64(3))},
		{"gender", sqlmock.NewRows([]string{"value", "count"}).AddRow("female", int64(5))},
		{"country", sqlmock.NewRows([]string{"value", "count"}).AddRow("India", int64(7))},
		{"industry", sqlmock.NewRows([]string{"value", "count"})},
	} {
		mock.ExpectQuery("SELECT " + group.field + " AS value, count\\(\\*\\) AS count FROM `audience_member_tab` " +
			"WHERE " + group.field + " IS NOT NULL GROUP BY .*" + group.field + ".* ORDER BY count DESC").
			WillReturnRows(group.rows)
	}

	stats, err := memberRepo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), stats.Total)
	assert.Equal(t, uint64(8), stats.Active)
	assert.Equal(t, map[string]uint64{"25-34": 6, "35-44": 3}, stats.ByAgeGroup)
	assert.Equal(t, map[string]uint64{"female": 5}, stats.ByGender)
	assert.Equal(t, map[string]uint64{"India": 7}, stats.ByCountry)
	assert.Empty(t, stats.ByIndustry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAudienceMemberCountByCriteria(t *testing.T) {
	ctx := context.Background()
	baseRepo, mock := newMockBaseRepo(t)
	memberRepo := NewAudienceMemberRepo(ctx, baseRepo)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `audience_member_tab` WHERE is_active = ? AND gender IN (?,?) AND country IN (?)")).
		WithArgs(true, "female", "male", "India").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))

	count, err := memberRepo.CountByCriteria(ctx, &entity.AudienceCriteria{
		Genders:   []string{"female", "male"},
		Locations: []string{"India"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
