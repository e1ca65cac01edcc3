package engine

import (
	"context"
	"fmt"
	"freqgrabber/internal/assert"
	"freqgrabber/internal/telemetry"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	BNCName = "BNC"

	bncDefaultBaseUrl = "http://bncweb.lancs.ac.uk"
	bncQueryPath      = "/cgi-binbncXML/processQuery.pl"
)

// BNC queries BNCweb, which authenticates every request with basic auth.
// There is no session, so a rejected request is never retried.
type BNC struct {
	queryUrl string
	http     *resty.Client
	username string
	password string
	tel      telemetry.API
}

func NewBNC(opts Options) (*BNC, error) {
	assert.NotEmptyStr(opts.Username)
	assert.NotEmptyStr(opts.Password)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = bncDefaultBaseUrl
	}
	baseUrl = strings.TrimSuffix(baseUrl, "/")
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("bnc: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("bnc: base url %q must be absolute", baseUrl)
	}

	httpClient, err := newHttpClient(BNCName, parsed, opts, false)
	if err != nil {
		return nil, fmt.Errorf("bnc: %w", err)
	}

	return &BNC{
		queryUrl: baseUrl + bncQueryPath,
		http:     httpClient,
		username: opts.Username,
		password: opts.Password,
		tel:      telemetry.NewScopedAPI("engine", opts.telemetry()),
	}, nil
}

func (b *BNC) Name() string {
	return BNCName
}

func (b *BNC) Query(ctx context.Context, word string) (Record, error) {
	ctx, span := tracer.Start(ctx, "bnc:Query", trace.WithAttributes(
		attribute.String("word", word),
	))
	defer span.End()

	record, err := b.query(ctx, word)
	recordOutcome(ctx, span, BNCName, err)
	return record, err
}

func (b *BNC) query(ctx context.Context, word string) (Record, error) {
	res, err := b.http.R().
		SetContext(ctx).
		SetBasicAuth(b.username, b.password).
		SetQueryParamsFromValues(bncQueryParams(word)).
		Get(b.queryUrl)
	if err != nil {
		b.tel.ReportBroken(report_bnc_query, fmt.Errorf("query request: %w", err), word)
		return Record{}, transportError(BNCName, b.queryUrl, err)
	}
	body := readPage(res, b.tel, report_bnc_query)

	if res.StatusCode() == http.StatusUnauthorized ||
		(res.IsError() && strings.Contains(body.text, bncAuthRequired)) {
		b.tel.ReportWarning(report_bnc_query, errBadCredentials, b.username)
		return Record{}, authError(
			BNCName,
			"couldn't login to BNC",
			body.raw,
			fmt.Errorf("%w (%s)", errBadCredentials, res.Status()),
		)
	}
	if res.IsError() {
		b.tel.ReportBroken(report_bnc_query, fmt.Errorf("query request: %s", res.Status()), word)
		return Record{}, statusError(BNCName, res, body.raw)
	}

	hitCount, perMillion, err := bncHitCount(body.text)
	if err != nil {
		b.tel.ReportBroken(report_bnc_query, fmt.Errorf("find hit count: %w", err), word)
		return Record{}, parseError(BNCName, describePage("can't get BNC results", body.text), body.raw, err)
	}

	return Record{
		Word:       word,
		HitCount:   hitCount,
		PerMillion: perMillion,
	}, nil
}

// bncQueryParams is what the "count hits" simple query form sends.
func bncQueryParams(word string) url.Values {
	params := url.Values{}
	params.Set("theData", word)
	params.Set("chunk", "1")
	params.Set("queryType", "CQL")
	params.Set("qMode", "Simple query (ignore case)")
	params.Set("inst", "count hits")
	params.Set("max", "INIT")
	params.Set("qname", "INIT")
	params.Set("thMode", "INIT")
	params.Set("thin", "0")
	params.Set("qtype", "0")
	params.Set("view", "list")
	params.Set("theAction", "Start Query")
	params.Set("urlTest", "yes")
	return params
}
