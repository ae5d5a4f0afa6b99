package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/ayushbirla71/survey-backend/pkg/httputil"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"
)

const (
	appBasePath    = "/api/v1"
	publicBasePath = "/api/public/v1"
)

type FileMeta struct {
	Name        string
	ContentType string
	Size        int64
	Content     []byte
}

type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type clientInfoKey struct{}

func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func GetClientInfo(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

// to decode url params and path vars
var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// DecodeQuery fills dst from url params with the same rules as registered routes.
func DecodeQuery(dst interface{}, params map[string][]string) error {
	return decoder.Decode(dst, params)
}

var (
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrCannotSetFileInfo      = errors.New("cannot set file info")
	ErrCannotDecodeUrlParams  = errors.New("cannot decode url params")
)

type Middleware interface {
	Handle(http.Handler) http.Handler
}

type Handler struct {
	Req        interface{}
	Res        interface{}
	HandleFunc func(ctx context.Context, req interface{}, res interface{}) error

	reqT  reflect.Type
	respT reflect.Type
}

type HttpRoute struct {
	Method      string
	Path        string
	Handler     Handler
	Middlewares []Middleware
	IsPublic    bool
}

type HttpRouter struct {
	*mux.Router
}

func (r *HttpRouter) RegisterHttpRoute(hr *HttpRoute) {
	// save req and res type
	hr.Handler.reqT = reflect.TypeOf(hr.Handler.Req).Elem()
	hr.Handler.respT = reflect.TypeOf(hr.Handler.Res).Elem()

	basePath := appBasePath
	if hr.IsPublic {
		basePath = publicBasePath
	}

	r.Methods(hr.Method).Path(fmt.Sprintf("%s%s", basePath, hr.Path)).Handler(wrap(hr.Handler, hr.Middlewares))
}

// RegisterRawRoute mounts a handler that writes its own response at an absolute path.
// Used for pixels, pages and downloads that cannot use the JSON envelope.
func (r *HttpRouter) RegisterRawRoute(method, path string, h http.HandlerFunc, middlewares ...Middleware) {
	r.Methods(method).Path(path).Handler(wrap(withClientInfo(h), middlewares))
}

func wrap(h http.Handler, middlewares []Middleware) http.Handler {
	chain := h
	// wrap middlewares from right to left
	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Handle(chain)
	}
	return chain
}

func withClientInfo(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClientInfo(r.Context(), ClientInfo{
			IPAddress: httputil.ClientIP(r),
			UserAgent: r.UserAgent(),
		})
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := WithClientInfo(r.Context(), ClientInfo{
		IPAddress: httputil.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	req := reflect.New(h.reqT).Interface()
	res := reflect.New(h.respT).Interface()

	params := r.URL.Query()
	for k, v := range mux.Vars(r) {
		params.Set(k, v)
	}

	if err := decoder.Decode(req, params); err != nil {
		log.Ctx(ctx).Error().Msgf("decode url query params error: %v", err)
		httputil.ReturnServerResponse(w, nil, errutil.BadRequestError(ErrCannotDecodeUrlParams))
		return
	}

	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		if hasContentType(r, "application/json") {
			if err := httputil.ReadJsonBody(r, req); err != nil {
				log.Ctx(ctx).Error().Msgf("read json body error: %v", err)
				httputil.ReturnServerResponse(w, nil, errutil.BadRequestError(err))
				return
			}
		} else if hasContentType(r, "multipart/form-data") {
			fileMeta, err := getFileMeta(r)
			if err != nil {
				log.Ctx(ctx).Error().Msgf("get file meta error: %v", err)
				httputil.ReturnServerResponse(w, nil, errutil.BadRequestError(err))
				return
			}

			// set to FileMeta field in request struct
			reqVal := reflect.ValueOf(req).Elem()
			if _, ok := reqVal.Type().FieldByName("FileMeta"); ok {
				fv := reqVal.FieldByName("FileMeta")
				if !fv.CanSet() {
					log.Ctx(ctx).Error().Msg("file meta field can not be set")
					httputil.ReturnServerResponse(w, nil, ErrCannotSetFileInfo)
					return
				}
				fv.Set(reflect.ValueOf(fileMeta))
			}

			// non-file form fields are decoded like query params
			if err := decoder.Decode(req, r.MultipartForm.Value); err != nil {
				log.Ctx(ctx).Error().Msgf("decode form values error: %v", err)
				httputil.ReturnServerResponse(w, nil, errutil.BadRequestError(ErrCannotDecodeUrlParams))
				return
			}
		} else {
			httputil.ReturnServerResponse(w, nil, errutil.BadRequestError(ErrUnsupportedContentType))
			return
		}
	}

	err := h.HandleFunc(ctx, req, res)
	httputil.ReturnServerResponse(w, res, err)
}

// getFileMeta reads the "file" form part fully, so the request can be released before the handler runs.
func getFileMeta(r *http.Request) (*FileMeta, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, httputil.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(httputil.MaxFileSize); err != nil {
		return nil, err
	}

	f, fh, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &FileMeta{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     b,
	}, nil
}

func hasContentType(r *http.Request, mimetype string) bool {
	contentType := r.Header.Get("Content-type")
	if contentType == "" {
		return mimetype == "application/octet-stream"
	}

	for _, v := range strings.Split(contentType, ",") {
		t, _, err := mime.ParseMediaType(v)
		if err != nil {
			break
		}
		if t == mimetype {
			return true
		}
	}
	return false
}
