package config

const (
	PathHealthCheck = "/"
	PathMetrics     = "/metrics"

	// survey
	PathCreateSurvey       = "/create_survey"
	PathGetSurvey          = "/get_survey"
	PathGetSurveys         = "/get_surveys"
	PathUpdateSurvey       = "/update_survey"
	PathDeleteSurvey       = "/delete_survey"
	PathDuplicateSurvey    = "/duplicate_survey"
	PathCreateSurveyHtml   = "/create_survey_html"
	PathGetSurveyDetails   = "/get_survey_details"
	PathGetSurveyResults   = "/get_survey_results"
	PathGetSurveyResponses = "/get_survey_responses"
	PathGetCategories      = "/get_categories"
	PathGetDashboardStats  = "/get_dashboard_stats"
	PathGetRecentSurveys   = "/get_recent_surveys"

	// audience
	PathCreateAudienceMember  = "/create_audience_member"
	PathGetAudienceMember     = "/get_audience_member"
	PathGetAudienceMembers    = "/get_audience_members"
	PathUpdateAudienceMember  = "/update_audience_member"
	PathImportAudienceMembers = "/import_audience_members"
	PathExportAudienceMembers = "/export_audience_members"
	PathGetAudienceStats      = "/get_audience_stats"
	PathCreateAudienceSegment = "/create_audience_segment"
	PathGetAudienceSegment    = "/get_audience_segment"
	PathGetAudienceSegments   = "/get_audience_segments"

	// campaign
	PathSendSurvey           = "/send_survey"
	PathGetCampaigns         = "/get_campaigns"
	PathGetCampaign          = "/get_campaign"
	PathGetCampaignAnalytics = "/get_campaign_analytics"

	// public
	PathSubmitSurveyResponse = "/submit_survey_response"
	PathOnEmailOpen          = "/track/open/{tracking_id}"
	PathSurveyPage           = "/survey/{survey_id}"
)

const (
	DefaultPort   = 9090
	LogLevelDebug = "DEBUG"
)

const (
	MailProviderSMTP  = "smtp"
	MailProviderBrevo = "brevo"
	MailProviderSES   = "ses"
	MailProviderLog   = "log"
)
