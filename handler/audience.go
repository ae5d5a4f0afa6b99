package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ayushbirla71/survey-backend/config"
	"github.com/ayushbirla71/survey-backend/entity"
	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/goutil"
	"github.com/ayushbirla71/survey-backend/pkg/httputil"
	"github.com/ayushbirla71/survey-backend/pkg/router"
	"github.com/ayushbirla71/survey-backend/pkg/validator"
	"github.com/ayushbirla71/survey-backend/repo"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

var (
	ErrDuplicateEmail     = errutil.ConflictError(errors.New("audience member email already exists"))
	ErrUnsupportedFile    = errutil.ValidationError(errors.New("only csv and xlsx files are supported"))
	ErrMissingEmailColumn = errutil.ValidationError(errors.New("email column is required"))
	ErrEmptyFile          = errutil.ValidationError(errors.New("file has no rows"))
)

const (
	fileFormatCsv  = "csv"
	fileFormatXlsx = "xlsx"

	contentTypeCsv  = "text/csv"
	contentTypeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	tagSeparator = ";"
)

// audienceColumns is the column order used for export. Imports match headers by name.
var audienceColumns = []string{
	"first_name", "last_name", "email", "phone", "age_group", "gender", "city",
	"state", "country", "industry", "job_title", "education", "income", "tags", "is_active",
}

type AudienceHandler interface {
	CreateAudienceMember(ctx context.Context, req *CreateAudienceMemberRequest, res *CreateAudienceMemberResponse) error
	GetAudienceMember(ctx context.Context, req *GetAudienceMemberRequest, res *GetAudienceMemberResponse) error
	GetAudienceMembers(ctx context.Context, req *GetAudienceMembersRequest, res *GetAudienceMembersResponse) error
	UpdateAudienceMember(ctx context.Context, req *UpdateAudienceMemberRequest, res *UpdateAudienceMemberResponse) error
	ImportAudienceMembers(ctx context.Context, req *ImportAudienceMembersRequest, res *ImportAudienceMembersResponse) error
	GetAudienceStats(ctx context.Context, req *GetAudienceStatsRequest, res *GetAudienceStatsResponse) error
	ServeExport(w http.ResponseWriter, r *http.Request)
}

type audienceHandler struct {
	cfg                config.Campaign
	audienceMemberRepo repo.AudienceMemberRepo
}

func NewAudienceHandler(cfg config.Campaign, audienceMemberRepo repo.AudienceMemberRepo) AudienceHandler {
	return &audienceHandler{
		cfg:                cfg,
		audienceMemberRepo: audienceMemberRepo,
	}
}

type AudienceMemberFields struct {
	FirstName *string  `json:"first_name,omitempty" validate:"omitempty,max=128"`
	LastName  *string  `json:"last_name,omitempty" validate:"omitempty,max=128"`
	Phone     *string  `json:"phone,omitempty" validate:"omitempty,max=64"`
	AgeGroup  *string  `json:"age_group,omitempty"`
	Gender    *string  `json:"gender,omitempty"`
	City      *string  `json:"city,omitempty"`
	State     *string  `json:"state,omitempty"`
	Country   *string  `json:"country,omitempty"`
	Industry  *string  `json:"industry,omitempty"`
	JobTitle  *string  `json:"job_title,omitempty"`
	Education *string  `json:"education,omitempty"`
	Income    *string  `json:"income,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func (f AudienceMemberFields) toAudienceMember() *entity.AudienceMember {
	return &entity.AudienceMember{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Phone:     f.Phone,
		AgeGroup:  f.AgeGroup,
		Gender:    f.Gender,
		City:      f.City,
		State:     f.State,
		Country:   f.Country,
		Industry:  f.Industry,
		JobTitle:  f.JobTitle,
		Education: f.Education,
		Income:    f.Income,
		Tags:      f.Tags,
	}
}

type CreateAudienceMemberRequest struct {
	AudienceMemberFields
	UserID *string `json:"user_id,omitempty"`
	Email  *string `json:"email,omitempty" validate:"required,email,max=255"`
}

type CreateAudienceMemberResponse struct {
	AudienceMember *entity.AudienceMember `json:"audience_member"`
}

func (h *audienceHandler) CreateAudienceMember(ctx context.Context, req *CreateAudienceMemberRequest, res *CreateAudienceMemberResponse) error {
	if req.Email != nil {
		req.Email = goutil.String(normalizeEmail(*req.Email))
	}
	if err := validator.Validate(req); err != nil {
		return err
	}

	email := *req.Email
	if err := h.checkEmailFree(ctx, email); err != nil {
		return err
	}

	member := req.toAudienceMember()
	h.fillNew(member, req.UserID, email)

	if err := h.audienceMemberRepo.Create(ctx, member); err != nil {
		log.Ctx(ctx).Error().Msgf("create audience member failed: %v, email: %v", err, email)
		return err
	}

	res.AudienceMember = member

	return nil
}

func (h *audienceHandler) checkEmailFree(ctx context.Context, email string) error {
	_, err := h.audienceMemberRepo.GetByEmail(ctx, email)
	if err == nil {
		return ErrDuplicateEmail
	}
	if !errors.Is(err, repo.ErrAudienceMemberNotFound) {
		log.Ctx(ctx).Error().Msgf("get audience member by email failed: %v, email: %v", err, email)
		return err
	}
	return nil
}

func (h *audienceHandler) fillNew(member *entity.AudienceMember, userID *string, email string) {
	userID = goutil.NilIfEmpty(userID)
	if userID == nil {
		userID = goutil.String(h.cfg.DefaultUserID)
	}

	now := goutil.NowUnix()
	member.ID = goutil.String(uuid.NewString())
	member.UserID = userID
	member.Email = goutil.String(email)
	if member.IsActive == nil {
		member.IsActive = goutil.Bool(true)
	}
	member.CreateTime = goutil.Uint64(now)
	member.UpdateTime = goutil.Uint64(now)
}

type GetAudienceMemberRequest struct {
	AudienceMemberID *string `schema:"audience_member_id" json:"audience_member_id,omitempty" validate:"required"`
}

type GetAudienceMemberResponse struct {
	AudienceMember *entity.AudienceMember `json:"audience_member"`
}

func (h *audienceHandler) GetAudienceMember(ctx context.Context, req *GetAudienceMemberRequest, res *GetAudienceMemberResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	member, err := h.audienceMemberRepo.GetByID(ctx, *req.AudienceMemberID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get audience member failed: %v, audience_member_id: %v", err, *req.AudienceMemberID)
		return err
	}

	res.AudienceMember = member

	return nil
}

type GetAudienceMembersRequest struct {
	Keyword    *string          `schema:"keyword" json:"keyword,omitempty"`
	AgeGroup   *string          `schema:"age_group" json:"age_group,omitempty"`
	Gender     *string          `schema:"gender" json:"gender,omitempty"`
	Country    *string          `schema:"country" json:"country,omitempty"`
	Industry   *string          `schema:"industry" json:"industry,omitempty"`
	IsActive   *bool            `schema:"is_active" json:"is_active,omitempty"`
	Pagination *repo.Pagination `schema:"pagination" json:"pagination,omitempty"`
}

func (req *GetAudienceMembersRequest) toFilter() *repo.AudienceMemberFilter {
	return &repo.AudienceMemberFilter{
		Keyword:    goutil.NilIfEmpty(req.Keyword),
		AgeGroup:   goutil.NilIfEmpty(req.AgeGroup),
		Gender:     goutil.NilIfEmpty(req.Gender),
		Country:    goutil.NilIfEmpty(req.Country),
		Industry:   goutil.NilIfEmpty(req.Industry),
		IsActive:   req.IsActive,
		Pagination: req.Pagination,
	}
}

type GetAudienceMembersResponse struct {
	AudienceMembers []*entity.AudienceMember `json:"audience_members"`
	Pagination      *repo.Pagination         `json:"pagination,omitempty"`
}

func (h *audienceHandler) GetAudienceMembers(ctx context.Context, req *GetAudienceMembersRequest, res *GetAudienceMembersResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	members, pagination, err := h.audienceMemberRepo.GetMany(ctx, req.toFilter())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get audience members failed: %v", err)
		return err
	}

	res.AudienceMembers = members
	res.Pagination = pagination

	return nil
}

type UpdateAudienceMemberRequest struct {
	AudienceMemberFields
	AudienceMemberID *string `json:"audience_member_id,omitempty" validate:"required"`
	IsActive         *bool   `json:"is_active,omitempty"`
}

type UpdateAudienceMemberResponse struct {
	AudienceMember *entity.AudienceMember `json:"audience_member"`
}

// UpdateAudienceMember also deactivates a member when is_active is false.
func (h *audienceHandler) UpdateAudienceMember(ctx context.Context, req *UpdateAudienceMemberRequest, res *UpdateAudienceMemberResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	member, err := h.audienceMemberRepo.GetByID(ctx, *req.AudienceMemberID)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get audience member failed: %v, audience_member_id: %v", err, *req.AudienceMemberID)
		return err
	}

	u := req.toAudienceMember()
	u.IsActive = req.IsActive
	u.UpdateTime = goutil.Uint64(goutil.NowUnix())
	member.Update(u)

	if err := h.audienceMemberRepo.Update(ctx, member); err != nil {
		log.Ctx(ctx).Error().Msgf("update audience member failed: %v, audience_member_id: %v", err, *req.AudienceMemberID)
		return err
	}

	res.AudienceMember = member

	return nil
}

type ImportAudienceMembersRequest struct {
	UserID   *string          `schema:"user_id" json:"user_id,omitempty"`
	FileMeta *router.FileMeta `schema:"-" json:"-" validate:"required"`
}

type ImportAudienceMembersResponse struct {
	Total    uint64   `json:"total"`
	Imported uint64   `json:"imported"`
	Skipped  uint64   `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ImportAudienceMembers loads a csv or xlsx file whose first row names the columns.
// Rows whose email already exists, in the store or earlier in the file, are skipped.
func (h *audienceHandler) ImportAudienceMembers(ctx context.Context, req *ImportAudienceMembersRequest, res *ImportAudienceMembersResponse) error {
	if err := validator.Validate(req); err != nil {
		return err
	}

	rows, err := readRows(req.FileMeta)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("read import file failed: %v, file: %v", err, req.FileMeta.Name)
		return err
	}
	if len(rows) < 1 {
		return ErrEmptyFile
	}

	header := make(map[string]int)
	for i, col := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := header["email"]; !ok {
		return ErrMissingEmailColumn
	}

	res.Errors = make([]string, 0)

	seen := make(map[string]bool)
	members := make([]*entity.AudienceMember, 0)
	for i, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		res.Total++

		line := i + 2
		member := rowToAudienceMember(header, row)

		email := normalizeEmail(member.GetEmail())
		if err := validator.Validate(&importRow{Email: email}); err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
			continue
		}

		if seen[email] {
			res.Skipped++
			continue
		}
		seen[email] = true

		if err := h.checkEmailFree(ctx, email); err != nil {
			if errors.Is(err, ErrDuplicateEmail) {
				res.Skipped++
				continue
			}
			return err
		}

		h.fillNew(member, req.UserID, email)
		members = append(members, member)
	}

	if len(members) > 0 {
		if err := h.audienceMemberRepo.CreateMany(ctx, members); err != nil {
			log.Ctx(ctx).Error().Msgf("create audience members failed: %v, count: %v", err, len(members))
			return err
		}
	}
	res.Imported = uint64(len(members))

	log.Ctx(ctx).Info().Msgf("audience import done, file: %v, total: %v, imported: %v, skipped: %v",
		req.FileMeta.Name, res.Total, res.Imported, res.Skipped)

	return nil
}

type importRow struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

func readRows(fm *router.FileMeta) ([][]string, error) {
	switch fileFormat(fm.Name) {
	case fileFormatCsv:
		r := csv.NewReader(bytes.NewReader(fm.Content))
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		return r.ReadAll()
	case fileFormatXlsx:
		f, err := excelize.OpenReader(bytes.NewReader(fm.Content))
		if err != nil {
			return nil, errutil.ValidationError(err)
		}
		defer func() {
			_ = f.Close()
		}()
		return f.GetRows(f.GetSheetName(0))
	default:
		return nil, ErrUnsupportedFile
	}
}

func fileFormat(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func rowToAudienceMember(header map[string]int, row []string) *entity.AudienceMember {
	cell := func(col string) *string {
		i, ok := header[col]
		if !ok || i >= len(row) {
			return nil
		}
		v := strings.TrimSpace(row[i])
		if v == "" {
			return nil
		}
		return goutil.String(v)
	}

	member := &entity.AudienceMember{
		FirstName: cell("first_name"),
		LastName:  cell("last_name"),
		Email:     cell("email"),
		Phone:     cell("phone"),
		AgeGroup:  cell("age_group"),
		Gender:    cell("gender"),
		City:      cell("city"),
		State:     cell("state"),
		Country:   cell("country"),
		Industry:  cell("industry"),
		JobTitle:  cell("job_title"),
		Education: cell("education"),
		Income:    cell("income"),
	}

	if tags := cell("tags"); tags != nil {
		for _, tag := range strings.Split(*tags, tagSeparator) {
			if tag = strings.TrimSpace(tag); tag != "" {
				member.Tags = append(member.Tags, tag)
			}
		}
	}
	if active := cell("is_active"); active != nil {
		member.IsActive = goutil.Bool(!strings.EqualFold(*active, "false"))
	}

	return member
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ServeExport writes every audience member matching the query filters as a csv or xlsx download.
func (h *audienceHandler) ServeExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = fileFormatCsv
	}

	req := new(GetAudienceMembersRequest)
	if err := router.DecodeQuery(req, r.URL.Query()); err != nil {
		httputil.ReturnServerResponse(w, nil, errutil.BadRequestError(err))
		return
	}
	// export ignores pagination
	req.Pagination = nil

	members, _, err := h.audienceMemberRepo.GetMany(ctx, req.toFilter())
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get audience members for export failed: %v", err)
		httputil.ReturnServerResponse(w, nil, err)
		return
	}

	b, contentType, err := exportAudienceMembers(members, format)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("export audience members failed: %v, format: %v", err, format)
		httputil.ReturnServerResponse(w, nil, err)
		return
	}

	httputil.ReturnFile(w, fmt.Sprintf("audience_members.%s", format), contentType, b)
}

func exportAudienceMembers(members []*entity.AudienceMember, format string) ([]byte, string, error) {
	records := make([][]string, 0, len(members)+1)
	records = append(records, audienceColumns)
	for _, m := range members {
		records = append(records, audienceMemberRecord(m))
	}

	switch format {
	case fileFormatCsv:
		buf := new(bytes.Buffer)
		if err := writeCsv(buf, records); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), contentTypeCsv, nil
	case fileFormatXlsx:
		b, err := writeXlsx(records)
		if err != nil {
			return nil, "", err
		}
		return b, contentTypeXlsx, nil
	default:
		return nil, "", ErrUnsupportedFile
	}
}

func audienceMemberRecord(m *entity.AudienceMember) []string {
	s := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return []string{
		s(m.FirstName), s(m.LastName), m.GetEmail(), s(m.Phone), s(m.AgeGroup), s(m.Gender), s(m.City),
		s(m.State), s(m.Country), s(m.Industry), s(m.JobTitle), s(m.Education), s(m.Income),
		strings.Join(m.Tags, tagSeparator), fmt.Sprint(m.GetIsActive()),
	}
}

func writeCsv(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}

func writeXlsx(records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := "Audience"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, record := range records {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		row := record
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type GetAudienceStatsRequest struct{}

type GetAudienceStatsResponse struct {
	Stats *entity.AudienceStats `json:"stats"`
}

func (h *audienceHandler) GetAudienceStats(ctx context.Context, _ *GetAudienceStatsRequest, res *GetAudienceStatsResponse) error {
	stats, err := h.audienceMemberRepo.GetStats(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Msgf("get audience stats failed: %v", err)
		return err
	}

	res.Stats = stats

	return nil
}
