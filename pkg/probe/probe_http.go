package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mittwald/mittsmoke/internal/config"
	"github.com/mittwald/mittsmoke/internal/helper"
	log "github.com/sirupsen/logrus"
)

const (
	defaultExpectStatus = `(1|2|3)\d\d\s`
	maxBodyBytes        = 1 << 20
	bodySnippetBytes    = 1024
)

var statusCodeOnly = regexp.MustCompile(`^\d{3}$`)

type httpProbe struct {
	method       string
	url          string
	payload      string
	headers      map[string]string
	status       *regexp.Regexp
	expectJSON   map[string]string
	bodyContains string
	client       *http.Client
}

func NewHttpProbe(cfg *config.HTTP, r *config.Resolver) (*httpProbe, error) {
	method, scheme, hostname, port, path, rawURL := cfg.Method, cfg.Scheme, cfg.Hostname, cfg.Port, cfg.Path, cfg.URL
	payload, expectStatus, bodyContains := cfg.Payload, cfg.ExpectStatus, cfg.BodyContains
	if err := resolveStrings(r, &method, &scheme, &hostname, &port, &path, &rawURL, &payload, &expectStatus, &bodyContains); err != nil {
		return nil, err
	}

	headers, err := r.ResolveMap(cfg.Headers)
	if err != nil {
		return nil, err
	}

	expectJSON, err := r.ResolveMap(cfg.ExpectJSON)
	if err != nil {
		return nil, err
	}

	method = strings.ToUpper(helper.SetDefaultStringIfEmpty(method, http.MethodGet, "method", "http"))
	scheme = helper.SetDefaultStringIfEmpty(scheme, "http", "scheme", "http")
	expectStatus = helper.SetDefaultStringIfEmpty(expectStatus, defaultExpectStatus, "expectStatus", "http")

	if rawURL == "" {
		if hostname == "" {
			return nil, fmt.Errorf("either url or hostname must be set")
		}

		host := hostname
		if port != "" {
			host = net.JoinHostPort(hostname, port)
		}

		u := url.URL{Scheme: scheme, Host: host, Path: path}
		rawURL = u.String()
	} else if _, err := url.Parse(rawURL); err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	if statusCodeOnly.MatchString(expectStatus) {
		expectStatus = "^" + expectStatus + `(\s|$)`
	}

	status, err := regexp.Compile(expectStatus)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP status line regexp: %w", err)
	}

	return &httpProbe{
		method:       method,
		url:          rawURL,
		payload:      payload,
		headers:      headers,
		status:       status,
		expectJSON:   expectJSON,
		bodyContains: bodyContains,
		client:       &http.Client{},
	}, nil
}

func (h *httpProbe) Exec(ctx context.Context) (string, error) {
	var body io.Reader
	if h.payload != "" {
		body = strings.NewReader(h.payload)
	}

	req, err := http.NewRequestWithContext(ctx, h.method, h.url, body)
	if err != nil {
		return "", &NetworkError{Address: h.url, Err: err}
	}

	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	res, err := h.client.Do(req)
	if err != nil {
		return "", &NetworkError{Address: h.url, Err: err}
	}
	defer res.Body.Close()

	content, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", &NetworkError{Address: h.url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if !h.status.MatchString(res.Status) {
		return "", &NetworkError{
			Address: h.url,
			Err:     fmt.Errorf("returned status %q: %s", res.Status, snippet(content)),
		}
	}

	if h.bodyContains != "" && !bytes.Contains(content, []byte(h.bodyContains)) {
		return "", &NetworkError{
			Address: h.url,
			Err:     fmt.Errorf("response body does not contain %q: %s", h.bodyContains, snippet(content)),
		}
	}

	if len(h.expectJSON) > 0 {
		if err := matchJSON(content, h.expectJSON); err != nil {
			return "", &NetworkError{Address: h.url, Err: fmt.Errorf("%s: %s", err, snippet(content))}
		}
	}

	log.WithFields(log.Fields{"kind": "probe", "name": "http", "status": "alive", "host": h.url}).Debug()

	return fmt.Sprintf("%s %s", res.Status, snippet(content)), nil
}

func (h *httpProbe) String() string {
	return h.method + " " + h.url
}

// matchJSON decodes body and compares the value at each dotted path with the
// expected value. An expected value of "*" only requires the path to exist.
func matchJSON(body []byte, expect map[string]string) error {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("response body is not valid JSON: %w", err)
	}

	paths := make([]string, 0, len(expect))
	for p := range expect {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		v, ok := lookupJSONPath(doc, p)
		if !ok {
			return fmt.Errorf("JSON path %q not found", p)
		}

		want := expect[p]
		if want == "*" {
			continue
		}

		if got := jsonValueString(v); got != want {
			return fmt.Errorf("JSON path %q is %q, expected %q", p, got, want)
		}
	}

	return nil
}

func lookupJSONPath(doc interface{}, path string) (interface{}, bool) {
	current := doc
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			v, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = v
		case []interface{}:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

func jsonValueString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]interface{}, []interface{}:
		out, _ := json.Marshal(t)
		return string(out)
	default:
		return fmt.Sprint(t)
	}
}

func snippet(content []byte) string {
	s := strings.TrimSpace(string(content))
	if len(s) > bodySnippetBytes {
		cut := bodySnippetBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
