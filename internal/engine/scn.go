package engine

import (
	"context"
	"errors"
	"fmt"
	"freqgrabber/internal/assert"
	"freqgrabber/internal/telemetry"
	"io"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	SCNName = "SCN"

	scnDefaultBaseUrl = "http://scn.jkn21.com"
	scnQueryPath      = "/~perc04/cgi-bin/pat8.cgi"
	scnLoginPath      = "/~perc04/cgi-bin/login1.cgi"
)

type sessionState int

const (
	stateUnauthenticated sessionState = iota
	stateAuthenticated
	// the service rejected the credentials, nothing is sent after this
	stateRejected
)

func (s sessionState) String() string {
	switch s {
	case stateUnauthenticated:
		return "unauthenticated"
	case stateAuthenticated:
		return "authenticated"
	case stateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// SCN queries the SCN corpus, which requires a session login.
//
// Sessions time out silently on the server, so SCN only logs in when a
// query page asks it to, and then retries that query once.
type SCN struct {
	baseUrl  string
	http     *resty.Client
	username string
	password string
	tel      telemetry.API
	debug    bool
	out      io.Writer

	state     sessionState
	rejection error
}

func NewSCN(opts Options) (*SCN, error) {
	assert.NotEmptyStr(opts.Username)
	assert.NotEmptyStr(opts.Password)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = scnDefaultBaseUrl
	}
	baseUrl = strings.TrimSuffix(baseUrl, "/")
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("scn: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("scn: base url %q must be absolute", baseUrl)
	}

	httpClient, err := newHttpClient(SCNName, parsed, opts, true)
	if err != nil {
		return nil, fmt.Errorf("scn: %w", err)
	}

	return &SCN{
		baseUrl:  baseUrl,
		http:     httpClient,
		username: opts.Username,
		password: opts.Password,
		tel:      telemetry.NewScopedAPI("engine", opts.telemetry()),
		debug:    opts.Debug,
		out:      opts.out(),
	}, nil
}

func (s *SCN) Name() string {
	return SCNName
}

func (s *SCN) Query(ctx context.Context, word string) (Record, error) {
	ctx, span := tracer.Start(ctx, "scn:Query", trace.WithAttributes(
		attribute.String("word", word),
	))
	defer span.End()

	record, err := s.queryWithLogin(ctx, word)
	span.SetAttributes(attribute.String("session", s.state.String()))
	recordOutcome(ctx, span, SCNName, err)
	return record, err
}

func (s *SCN) queryWithLogin(ctx context.Context, word string) (Record, error) {
	if s.state == stateRejected {
		return Record{}, s.rejection
	}

	record, err := s.query(ctx, word)
	if !errors.Is(err, errSessionExpired) {
		return record, err
	}

	s.state = stateUnauthenticated
	if s.debug {
		fmt.Fprintln(s.out, "Logging in to SCN..")
	}
	err = s.login(ctx)
	if err != nil {
		return Record{}, err
	}

	// retried once only
	record, err = s.query(ctx, word)
	if errors.Is(err, errSessionExpired) {
		s.state = stateUnauthenticated
		s.tel.ReportBroken(
			report_scn_query,
			fmt.Errorf("session expired right after login: %w", err),
			word,
		)
		return Record{}, authError(
			SCNName,
			"SCN session expired again right after logging in",
			DebugInfo(err),
			err,
		)
	}
	return record, err
}

func (s *SCN) login(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "scn:login")
	defer span.End()

	loginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("engine", SCNName)))

	loginUrl := s.baseUrl + scnLoginPath
	res, err := s.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": s.username,
			"password": s.password,
			"ui_lang":  "e",
			"func":     "login",
			"lang":     "eng",
		}).
		Post(loginUrl)
	if err != nil {
		s.tel.ReportBroken(report_scn_login, fmt.Errorf("login request: %w", err))
		return transportError(SCNName, loginUrl, err)
	}
	body := readPage(res, s.tel, report_scn_login)
	if res.IsError() {
		s.tel.ReportBroken(report_scn_login, fmt.Errorf("login request: %s", res.Status()))
		return statusError(SCNName, res, body.raw)
	}

	err = scnLoginStatus(body.text)
	switch {
	case errors.Is(err, errBadCredentials):
		s.state = stateRejected
		s.rejection = authError(SCNName, "couldn't login to SCN", body.raw, err)
		s.tel.ReportWarning(report_scn_login, err, s.username)
		return s.rejection
	case err != nil:
		s.tel.ReportBroken(report_scn_login, err, s.username)
		return authError(SCNName, describePage("couldn't login to SCN", body.text), body.raw, err)
	}

	s.state = stateAuthenticated
	return nil
}

// query runs the word through the query form and follows the result frame.
func (s *SCN) query(ctx context.Context, word string) (Record, error) {
	queryUrl := s.baseUrl + scnQueryPath
	res, err := s.http.R().
		SetContext(ctx).
		SetFormData(scnQueryForm(s.username, word)).
		Post(queryUrl)
	if err != nil {
		s.tel.ReportBroken(report_scn_query, fmt.Errorf("query request: %w", err), word)
		return Record{}, transportError(SCNName, queryUrl, err)
	}
	body := readPage(res, s.tel, report_scn_query)
	if res.IsError() {
		s.tel.ReportBroken(report_scn_query, fmt.Errorf("query request: %s", res.Status()), word)
		return Record{}, statusError(SCNName, res, body.raw)
	}

	frameUrl, err := scnResultFrameUrl(body.text)
	switch {
	case errors.Is(err, errSessionExpired):
		s.tel.ReportDebug("SCN session expired", word)
		return Record{}, authError(SCNName, "SCN login timeout", body.raw, err)
	case err != nil:
		s.tel.ReportBroken(report_scn_query, fmt.Errorf("find result frame: %w", err), word)
		return Record{}, parseError(SCNName, describePage("can't get SCN result page URL", body.text), body.raw, err)
	}

	resultUrl := s.baseUrl + frameUrl
	res, err = s.http.R().
		SetContext(ctx).
		Get(resultUrl)
	if err != nil {
		s.tel.ReportBroken(report_scn_query, fmt.Errorf("result request: %w", err), word)
		return Record{}, transportError(SCNName, resultUrl, err)
	}
	body = readPage(res, s.tel, report_scn_query)
	if res.IsError() {
		s.tel.ReportBroken(report_scn_query, fmt.Errorf("result request: %s", res.Status()), word)
		return Record{}, statusError(SCNName, res, body.raw)
	}

	hitCount, perMillion, err := scnHitCount(body.text)
	if err != nil {
		s.tel.ReportBroken(report_scn_query, fmt.Errorf("find hit count: %w", err), word)
		return Record{}, parseError(SCNName, describePage("can't get SCN results", body.text), body.raw, err)
	}

	return Record{
		Word:       word,
		HitCount:   hitCount,
		PerMillion: perMillion,
	}, nil
}

// scnQueryForm is the form the SCN search page submits, only `swd` and
// `username` vary.
func scnQueryForm(username, word string) map[string]string {
	return map[string]string{
		"username":     username,
		"swd":          word,
		"sort":         "0",
		"matchclass":   "0",
		"pagenum":      "0",
		"Winwidth":     "1000",
		"Sclass":       "PH",
		"Winposy":      "4",
		"Winposx":      "4",
		"char":         "",
		"sortdet3":     "",
		"Dwnldwnum":    "0",
		"pagewid":      "120",
		"sortdet4":     "",
		"WinName":      "perc040607rw",
		"sortkeyw":     "w",
		"sortdet1":     "",
		"sortdet5":     "",
		"lang":         "eng",
		"prdetp":       "",
		"sortkeyp":     "",
		"WinID":        "A",
		"phlm":         "0",
		"prdetw":       "1",
		"prdetl":       "",
		"pagewidcl":    "p",
		"Winheight":    "720",
		"pagelensaved": "34",
		"maxrow":       "3000",
		"range":        "1",
		"sortdet2":     "",
		"subc":         "1111111111111111111111",
		"pagelen":      "34",
		"pagedest":     "1",
		"sortkeyl":     "",
	}
}
