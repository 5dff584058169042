package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"tagscraper/pkg/config"
	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/session"
)

// Client talks to the Instagram web API through one authenticated session.
// It performs exactly one network attempt per call; pacing and retries live
// in the request executor.
type Client struct {
	http    *resty.Client
	baseURL *url.URL
	logger  logger.Logger
}

// NewClient creates a new Instagram API client
func NewClient(cfg *config.InstagramConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.RequestTimeout)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseURL.Hostname()))

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	client.SetCookieJar(jar)

	// Smooth over browser-fingerprint checks on the edge
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	if cfg.ProxyURL != "" {
		client.SetProxy(cfg.ProxyURL)
		log.Info("proxy configured")
	}

	client.SetHeaders(map[string]string{
		"User-Agent":       cfg.UserAgent,
		"Accept":           "*/*",
		"Accept-Language":  "en-US,en;q=0.9",
		"X-IG-App-ID":      WebAppID,
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          BaseURL + "/",
	})

	return &Client{
		http:    client,
		baseURL: baseURL,
		logger:  log,
	}, nil
}

// sessionRequest builds a request carrying the session's credential material
func (c *Client) sessionRequest(ctx context.Context, sess *session.Session) *resty.Request {
	req := c.http.R().SetContext(ctx)

	if sess != nil {
		var cookies []string
		for name, value := range sess.Cookies {
			cookies = append(cookies, fmt.Sprintf("%s=%s", name, value))
		}
		if len(cookies) > 0 {
			req.SetHeader("Cookie", strings.Join(cookies, "; "))
		}
		if token := sess.CSRFToken(); token != "" {
			req.SetHeader("X-CSRFToken", token)
		}
		if sess.UserAgent != "" {
			req.SetHeader("User-Agent", sess.UserAgent)
		}
	}

	return req
}

// classify turns a transport error or HTTP response into the error taxonomy.
// A nil return means the response is worth parsing.
func (c *Client) classify(resp *resty.Response, err error) error {
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0)
	}

	code := resp.StatusCode()
	switch {
	case code == http.StatusOK:
		return c.classifyBody(resp)
	case code == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": code,
			"url":    resp.Request.URL,
		})
		return errs.New(errs.ErrorTypeRateLimit, "rate limit exceeded", code)
	default:
		return c.classifyFailure(resp)
	}
}

func (c *Client) classifyFailure(resp *resty.Response) error {
	code := resp.StatusCode()

	// Instagram reports auth verdicts inside a JSON envelope even on 4xx
	var envelope apiStatus
	_ = json.Unmarshal(resp.Body(), &envelope)

	switch {
	case envelope.Message == "login_required" || code == http.StatusUnauthorized || code == http.StatusForbidden:
		c.logger.WarnWithFields("session rejected by service", map[string]interface{}{
			"status":  code,
			"message": envelope.Message,
		})
		return errs.New(errs.ErrorTypeSessionExpired, "session expired or revoked", code)
	case envelope.Message == "challenge_required" || envelope.Message == "checkpoint_required":
		return errs.NewAuthFailed(errs.ReasonChallengeRequired, "verification challenge required", code)
	case strings.Contains(strings.ToLower(envelope.Message), "wait a few minutes"):
		c.logger.WarnWithFields("soft throttle from service", map[string]interface{}{
			"status":  code,
			"message": envelope.Message,
		})
		return errs.New(errs.ErrorTypeRateLimit, envelope.Message, code)
	case code >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": code,
		})
		return errs.New(errs.ErrorTypeServerError, "server error", code)
	default:
		return errs.New(errs.ErrorTypeProtocol, fmt.Sprintf("unexpected status code: %d", code), code)
	}
}

// classifyBody inspects a 200 response for service verdicts hidden in the envelope
func (c *Client) classifyBody(resp *resty.Response) error {
	var envelope apiStatus
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		bodyPreview := string(resp.Body())
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL,
			"body_preview": bodyPreview,
		})
		return errs.New(errs.ErrorTypeProtocol, fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode())
	}

	if envelope.Status == "fail" {
		msg := strings.ToLower(envelope.Message)
		switch {
		case strings.Contains(msg, "login_required"):
			return errs.New(errs.ErrorTypeSessionExpired, "session expired or revoked", resp.StatusCode())
		case strings.Contains(msg, "wait"):
			return errs.New(errs.ErrorTypeRateLimit, envelope.Message, resp.StatusCode())
		default:
			return errs.New(errs.ErrorTypeProtocol, fmt.Sprintf("service reported failure: %s", envelope.Message), resp.StatusCode())
		}
	}

	return nil
}

// decode parses a response body into target, surfacing a protocol error on
// a shape mismatch. Parsing mismatches are never retried.
func (c *Client) decode(resp *resty.Response, target interface{}) error {
	if err := json.Unmarshal(resp.Body(), target); err != nil {
		bodyPreview := string(resp.Body())
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"body_preview": bodyPreview,
		})
		return errs.New(errs.ErrorTypeProtocol, fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode())
	}
	return nil
}

// FetchPage fetches one page of hashtag-indexed posts. One network attempt,
// classified per the error taxonomy.
func (c *Client) FetchPage(ctx context.Context, sess *session.Session, req PageRequest) (*Page, error) {
	form := map[string]string{
		"tab":                req.Tab,
		"include_persistent": "0",
	}
	if req.Cursor != "" {
		form["max_id"] = req.Cursor
	}
	if sess != nil && sess.DeviceID != "" {
		form["_uuid"] = sess.DeviceID
	}

	c.logger.DebugWithFields("fetching hashtag page", map[string]interface{}{
		"hashtag": req.Hashtag,
		"tab":     req.Tab,
		"cursor":  req.Cursor,
	})

	start := time.Now()
	resp, err := c.sessionRequest(ctx, sess).
		SetFormData(form).
		Post(GetHashtagSectionsURL(req.Hashtag))
	if cerr := c.classify(resp, err); cerr != nil {
		return nil, cerr
	}

	var sections SectionsResponse
	if err := c.decode(resp, &sections); err != nil {
		return nil, err
	}

	page := sections.ToPage()

	c.logger.DebugWithFields("hashtag page fetched", map[string]interface{}{
		"hashtag":     req.Hashtag,
		"items":       len(page.Items),
		"next_cursor": page.NextCursor != "",
		"duration":    time.Since(start),
	})

	return page, nil
}

// FetchHashtagInfo fetches hashtag metadata
func (c *Client) FetchHashtagInfo(ctx context.Context, sess *session.Session, tag string) (*HashtagInfo, error) {
	c.logger.DebugWithFields("fetching hashtag info", map[string]interface{}{
		"hashtag": NormalizeHashtag(tag),
	})

	resp, err := c.sessionRequest(ctx, sess).Get(GetHashtagInfoURL(tag))
	if cerr := c.classify(resp, err); cerr != nil {
		return nil, cerr
	}

	var info HashtagInfoResponse
	if err := c.decode(resp, &info); err != nil {
		return nil, err
	}

	return &info.Data, nil
}

// Probe performs a cheap authenticated call to verify the session is still
// accepted. It consumes no scrape budget.
func (c *Client) Probe(ctx context.Context, sess *session.Session) error {
	resp, err := c.sessionRequest(ctx, sess).Get(CurrentUserEndpoint)
	if cerr := c.classify(resp, err); cerr != nil {
		return cerr
	}

	var current CurrentUserResponse
	if err := c.decode(resp, &current); err != nil {
		return err
	}

	c.logger.DebugWithFields("session probe succeeded", map[string]interface{}{
		"username": current.User.Username,
	})

	return nil
}

// FetchTimeline fetches one page of the authenticated timeline feed. Only
// the warm-up browsing behavior uses this.
func (c *Client) FetchTimeline(ctx context.Context, sess *session.Session) (*TimelineResponse, error) {
	form := map[string]string{}
	if sess != nil && sess.DeviceID != "" {
		form["device_id"] = sess.DeviceID
	}

	resp, err := c.sessionRequest(ctx, sess).
		SetFormData(form).
		Post(TimelineEndpoint)
	if cerr := c.classify(resp, err); cerr != nil {
		return nil, cerr
	}

	var timeline TimelineResponse
	if err := c.decode(resp, &timeline); err != nil {
		return nil, err
	}

	return &timeline, nil
}

var csrfTokenRegex = regexp.MustCompile(`"csrf_token":"([^"]+)"`)

// fetchCSRFToken loads the login page and extracts the CSRF token, from the
// response cookies when present, otherwise from the inline config scripts
func (c *Client) fetchCSRFToken(ctx context.Context) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(LoginPageEndpoint)
	if err != nil {
		return "", errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0)
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == session.CookieCSRFToken && cookie.Value != "" {
			return cookie.Value, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(resp.Body())))
	if err != nil {
		return "", errs.New(errs.ErrorTypeProtocol, "failed to parse login page", resp.StatusCode())
	}

	var token string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if groups := csrfTokenRegex.FindStringSubmatch(s.Text()); len(groups) == 2 {
			token = groups[1]
			return false
		}
		return true
	})

	if token == "" {
		return "", errs.New(errs.ErrorTypeProtocol, "login page carried no CSRF token", resp.StatusCode())
	}
	return token, nil
}

// Login performs the full authentication handshake and returns a new session
func (c *Client) Login(ctx context.Context, username, password string) (*session.Session, error) {
	token, err := c.fetchCSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	// The web client wraps the password with a timestamped envelope
	encPassword := fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password)

	resp, rerr := c.http.R().
		SetContext(ctx).
		SetHeader("X-CSRFToken", token).
		SetFormData(map[string]string{
			"username":     username,
			"enc_password": encPassword,
		}).
		Post(LoginEndpoint)
	if cerr := c.classify(resp, rerr); cerr != nil {
		return nil, cerr
	}

	var login LoginResponse
	if err := c.decode(resp, &login); err != nil {
		return nil, err
	}

	if login.TwoFactorRequired || login.CheckpointURL != "" {
		return nil, errs.NewAuthFailed(errs.ReasonChallengeRequired, "verification challenge required", resp.StatusCode())
	}
	if !login.Authenticated {
		return nil, errs.NewAuthFailed(errs.ReasonBadCredentials, "username or password rejected", resp.StatusCode())
	}

	sess := session.New(username, c.http.Header.Get("User-Agent"))
	sess.UserID = login.UserID
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case session.CookieSessionID, session.CookieCSRFToken, session.CookieUserID, session.CookieMachineID:
			sess.Cookies[cookie.Name] = cookie.Value
		}
	}
	if sess.Cookies[session.CookieCSRFToken] == "" {
		sess.Cookies[session.CookieCSRFToken] = token
	}
	if sess.SessionID() == "" {
		return nil, errs.New(errs.ErrorTypeProtocol, "login response carried no session cookie", resp.StatusCode())
	}

	c.logger.InfoWithFields("authentication handshake completed", map[string]interface{}{
		"username": username,
		"user_id":  sess.UserID,
	})

	return sess, nil
}

// Logout asks the service to revoke the session
func (c *Client) Logout(ctx context.Context, sess *session.Session) error {
	resp, err := c.sessionRequest(ctx, sess).
		SetFormData(map[string]string{"one_tap_app_login": "0"}).
		Post(LogoutEndpoint)
	if cerr := c.classify(resp, err); cerr != nil {
		return cerr
	}
	return nil
}
