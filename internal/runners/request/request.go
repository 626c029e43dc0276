// Package request implements the HTTP step runner (spec §4.7.1).
package request

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/plugin"
	"github.com/alexisbeaulieu97/streamy/internal/template"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// Runner performs the HTTP method against the rendered URL with headers,
// query parameters, and body. Body shape is inferred from Content-Type.
type Runner struct {
	Client *http.Client
}

// New builds a Runner with a default client (no global timeout — the
// engine lifecycle applies the step's effective timeout via context).
func New() *Runner {
	return &Runner{Client: &http.Client{}}
}

func (r *Runner) Type() string { return "request" }

func (r *Runner) Run(ctx context.Context, step config.Step, vars *variables.Manager, _ plugin.StepRunner) (map[string]any, error) {
	req := step.Request
	if req == nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("request step has no request configuration"))
	}

	env := vars.All()

	renderedURL, err := template.Render(req.URL, env)
	if err != nil {
		return nil, err
	}
	renderedMethod, err := template.Render(req.Method, env)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	for k, v := range req.Headers {
		rv, err := template.Render(v, env)
		if err != nil {
			return nil, err
		}
		headers.Set(k, rv)
	}

	query := url.Values{}
	for k, v := range req.Params {
		rv, err := template.Render(v, env)
		if err != nil {
			return nil, err
		}
		query.Set(k, rv)
	}

	reqURL, err := url.Parse(renderedURL)
	if err != nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("invalid url %q: %w", renderedURL, err))
	}
	if len(query) > 0 {
		existing := reqURL.Query()
		for k, v := range query {
			existing[k] = v
		}
		reqURL.RawQuery = existing.Encode()
	}

	contentType := headers.Get("Content-Type")
	body, err := buildBody(req.Body, contentType, env)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(renderedMethod), reqURL.String(), body.reader)
	if err != nil {
		return nil, streamyerrors.NewExecutionError(step.Name, err)
	}
	httpReq.Header = headers
	if body.contentType != "" {
		httpReq.Header.Set("Content-Type", body.contentType)
	}

	var trace timingTrace
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), trace.clientTrace()))

	start := time.Now()
	resp, err := r.Client.Do(httpReq)
	total := time.Since(start)
	if err != nil {
		return nil, streamyerrors.NewExecutionError(step.Name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, streamyerrors.NewExecutionError(step.Name, err)
	}
	if !trace.firstByte.IsZero() {
		trace.download = time.Since(trace.firstByte)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	cookies := make(map[string]string, len(resp.Cookies()))
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c.Value
	}

	var decodedBody any = string(raw)
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") && len(raw) > 0 {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			decodedBody = parsed
		}
	}

	envelope := map[string]any{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
		"cookies":     cookies,
		"url":         reqURL.String(),
		"body":        decodedBody,
		"performance": map[string]any{
			"total_time":    total.Seconds() * 1000,
			"dns_time":      trace.dns.Seconds() * 1000,
			"tcp_time":      trace.connect.Seconds() * 1000,
			"tls_time":      trace.tls.Seconds() * 1000,
			"server_time":   trace.server.Seconds() * 1000,
			"download_time": trace.download.Seconds() * 1000,
			"size":          int64(len(raw)),
		},
	}

	return envelope, nil
}

type renderedBody struct {
	reader      io.Reader
	contentType string
}

func buildBody(body any, contentType string, env map[string]any) (renderedBody, error) {
	if body == nil {
		return renderedBody{}, nil
	}

	switch {
	case strings.Contains(contentType, "multipart/form-data"):
		return buildMultipartBody(body, env)
	case strings.Contains(contentType, "application/json"):
		rendered, err := template.RenderDict(body, env)
		if err != nil {
			return renderedBody{}, err
		}
		encoded, err := json.Marshal(rendered)
		if err != nil {
			return renderedBody{}, streamyerrors.NewExecutionError("", err)
		}
		return renderedBody{reader: bytes.NewReader(encoded), contentType: "application/json"}, nil
	default:
		rendered, err := template.RenderDict(body, env)
		if err != nil {
			return renderedBody{}, err
		}
		fields, ok := rendered.(map[string]any)
		if !ok {
			encoded, err := json.Marshal(rendered)
			if err != nil {
				return renderedBody{}, streamyerrors.NewExecutionError("", err)
			}
			return renderedBody{reader: bytes.NewReader(encoded), contentType: "application/json"}, nil
		}
		form := url.Values{}
		for k, v := range fields {
			form.Set(k, fmt.Sprintf("%v", v))
		}
		return renderedBody{
			reader:      strings.NewReader(form.Encode()),
			contentType: "application/x-www-form-urlencoded",
		}, nil
	}
}

func buildMultipartBody(body any, env map[string]any) (renderedBody, error) {
	fields, ok := body.(map[string]any)
	if !ok {
		return renderedBody{}, streamyerrors.NewExecutionError("", fmt.Errorf("multipart body must be a map of field names to values"))
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		rendered, err := template.RenderDict(v, env)
		if err != nil {
			return renderedBody{}, err
		}
		if err := writer.WriteField(k, fmt.Sprintf("%v", rendered)); err != nil {
			return renderedBody{}, streamyerrors.NewExecutionError("", err)
		}
	}
	if err := writer.Close(); err != nil {
		return renderedBody{}, streamyerrors.NewExecutionError("", err)
	}
	return renderedBody{reader: &buf, contentType: writer.FormDataContentType()}, nil
}

// timingTrace captures the sub-phase durations an httptrace.ClientTrace can
// observe. Phases the transport doesn't expose are left at zero (spec
// §4.7.1 forbids fabricating fractional estimates).
type timingTrace struct {
	start, dnsStart, connectStart, tlsStart, wroteRequest, firstByte time.Time
	dns, connect, tls, server, download                             time.Duration
}

func (t *timingTrace) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) { t.dnsStart = time.Now() },
		DNSDone: func(httptrace.DNSDoneInfo) {
			if !t.dnsStart.IsZero() {
				t.dns = time.Since(t.dnsStart)
			}
		},
		ConnectStart: func(string, string) { t.connectStart = time.Now() },
		ConnectDone: func(string, string, error) {
			if !t.connectStart.IsZero() {
				t.connect = time.Since(t.connectStart)
			}
		},
		TLSHandshakeStart: func() { t.tlsStart = time.Now() },
		TLSHandshakeDone: func(_ tls.ConnectionState, _ error) {
			if !t.tlsStart.IsZero() {
				t.tls = time.Since(t.tlsStart)
			}
		},
		WroteRequest: func(httptrace.WroteRequestInfo) { t.wroteRequest = time.Now() },
		GotFirstResponseByte: func() {
			t.firstByte = time.Now()
			if !t.wroteRequest.IsZero() {
				t.server = time.Since(t.wroteRequest)
			}
		},
	}
}
