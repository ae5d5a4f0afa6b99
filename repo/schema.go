package repo

import "context"

// Models lists every table owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		new(Survey),
		new(AudienceMember),
		new(AudienceSegment),
		new(Campaign),
		new(Recipient),
		new(TrackingEvent),
		new(SurveyResponse),
	}
}

func Migrate(ctx context.Context, baseRepo BaseRepo) error {
	return baseRepo.AutoMigrate(ctx, Models()...)
}
