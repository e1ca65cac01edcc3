package engine

import (
	"fmt"
	"freqgrabber/internal/telemetry"
	"freqgrabber/lib/htmlutil"
	"freqgrabber/lib/restyutil"
	libtelemetry "freqgrabber/lib/telemetry"
	"io"
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	defaultTimeout   = time.Second * 30
)

// Options is everything an engine constructor needs.
type Options struct {
	Username string
	Password string
	// Debug prints what the engine is doing to Out.
	Debug bool
	// Out receives the debug mode messages, defaults to stdout.
	Out io.Writer

	// BaseUrl overrides the service's address, leave empty for the real service.
	BaseUrl   string
	Timeout   time.Duration
	UserAgent string
	// BrowserTransport makes the TLS handshake and default headers look like a browser's.
	BrowserTransport bool

	Telemetry telemetry.API
	// HttpDump receives every HTTP exchange when set.
	HttpDump restyutil.InstrumentOutput
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return defaultTimeout
	}
	return o.Timeout
}

func (o Options) userAgent() string {
	if o.UserAgent == "" {
		return defaultUserAgent
	}
	return o.UserAgent
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

func (o Options) telemetry() telemetry.API {
	if o.Telemetry == nil {
		return telemetry.SlogAPI{}
	}
	return o.Telemetry
}

// newHttpClient builds the resty client shared by all requests of one engine.
// Session engines pass withJar so that the login cookie sticks.
func newHttpClient(name string, baseUrl *url.URL, opts Options, withJar bool) (*resty.Client, error) {
	httpClient := resty.New()
	httpClient.SetLogger(restyutil.SlogLogger{})
	// BNCweb only serves basic auth over plain http
	httpClient.SetDisableWarn(true)
	if withJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.SetCookieJar(jar)
	}
	if opts.BrowserTransport {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	// the user-agent must always be set, otherwise the browser transport picks a random one
	httpClient.SetHeader("user-agent", opts.userAgent())
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(opts.timeout())

	libtelemetry.InstrumentResty(httpClient, fmt.Sprintf("freqgrabber/engine/%s/http", name))
	restyutil.InstrumentClient(httpClient, name, opts.HttpDump)

	return httpClient, nil
}

// page is a response body in the two forms the engines need.
type page struct {
	// text is decoded to UTF-8 and used for scraping.
	text string
	// raw is the body byte for byte, it becomes the debug info of a failure.
	raw string
}

// readPage decodes the response body, falling back to the raw bytes if the
// charset is unknown.
func readPage(res *resty.Response, tel telemetry.API, reportId string) page {
	raw := string(res.Body())
	text, err := htmlutil.Decode(res.Body(), res.Header().Get("Content-Type"))
	if err != nil {
		tel.ReportWarning(reportId, fmt.Errorf("decode response: %w", err), res.Request.URL)
		text = raw
	}
	return page{text: text, raw: raw}
}

// describePage returns `message` with the page title attached, so that
// an unexpected page can be recognized without turning on debug mode.
func describePage(message, body string) string {
	title := htmlutil.Title(body)
	if title == "" {
		return message
	}
	return fmt.Sprintf("%s (page title: %q)", message, title)
}
