package dbchatctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("dbchatctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "dbchat API base URL")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	base := strings.TrimRight(*baseURL, "/")
	command := strings.TrimSpace(fs.Arg(0))
	rest := fs.Args()[1:]

	method := ""
	path := ""
	var body []byte
	switch command {
	case "health":
		method, path = http.MethodGet, "/v1/health"
	case "ready":
		method, path = http.MethodGet, "/v1/ready"
	case "connect":
		params, code := parseConnectArgs(rest, stderr)
		if code != 0 {
			return code
		}
		method, path = http.MethodPost, "/v1/sessions"
		body, _ = json.Marshal(params)
	case "ask":
		sessionID, question, code := parseAskArgs(rest, stderr)
		if code != 0 {
			return code
		}
		method, path = http.MethodPost, "/v1/sessions/"+sessionID+"/messages"
		body, _ = json.Marshal(map[string]string{"question": question})
	case "history":
		sessionID, code := parseSessionArg("history", rest, stderr)
		if code != 0 {
			return code
		}
		method, path = http.MethodGet, "/v1/sessions/"+sessionID
	case "schema":
		sessionID, code := parseSessionArg("schema", rest, stderr)
		if code != 0 {
			return code
		}
		method, path = http.MethodGet, "/v1/sessions/"+sessionID+"/schema"
	case "disconnect":
		sessionID, code := parseSessionArg("disconnect", rest, stderr)
		if code != 0 {
			return code
		}
		method, path = http.MethodDelete, "/v1/sessions/"+sessionID
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}

	responseCode, responseBody, err := doRequest(ctx, client, method, base+path, body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if responseCode >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", responseCode, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func parseConnectArgs(args []string, stderr io.Writer) (map[string]string, int) {
	fs := flag.NewFlagSet("dbchatctl connect", flag.ContinueOnError)
	fs.SetOutput(stderr)

	driver := fs.String("driver", "postgres", "database driver (postgres or duckdb)")
	host := fs.String("host", "localhost", "database host")
	port := fs.String("port", "", "database port")
	user := fs.String("user", "", "database user")
	password := fs.String("password", "", "database password")
	database := fs.String("database", "", "database name (or file path for duckdb)")

	if err := fs.Parse(args); err != nil {
		return nil, 2
	}
	if strings.TrimSpace(*database) == "" {
		_, _ = fmt.Fprintln(stderr, "connect: -database is required")
		return nil, 2
	}
	return map[string]string{
		"driver":   *driver,
		"host":     *host,
		"port":     *port,
		"user":     *user,
		"password": *password,
		"database": *database,
	}, 0
}

func parseAskArgs(args []string, stderr io.Writer) (string, string, int) {
	fs := flag.NewFlagSet("dbchatctl ask", flag.ContinueOnError)
	fs.SetOutput(stderr)

	sessionID := fs.String("session", "", "session ID returned by connect")

	if err := fs.Parse(args); err != nil {
		return "", "", 2
	}
	if strings.TrimSpace(*sessionID) == "" {
		_, _ = fmt.Fprintln(stderr, "ask: -session is required")
		return "", "", 2
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		_, _ = fmt.Fprintln(stderr, "ask: a question is required")
		return "", "", 2
	}
	return strings.TrimSpace(*sessionID), question, 0
}

func parseSessionArg(command string, args []string, stderr io.Writer) (string, int) {
	fs := flag.NewFlagSet("dbchatctl "+command, flag.ContinueOnError)
	fs.SetOutput(stderr)

	sessionID := fs.String("session", "", "session ID returned by connect")

	if err := fs.Parse(args); err != nil {
		return "", 2
	}
	if strings.TrimSpace(*sessionID) == "" {
		_, _ = fmt.Fprintf(stderr, "%s: -session is required\n", command)
		return "", 2
	}
	return strings.TrimSpace(*sessionID), 0
}

func doRequest(ctx context.Context, client *http.Client, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, responseBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: dbchatctl [flags] <command> [command flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                         GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                          GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  connect -database <name>       POST /v1/sessions")
	_, _ = fmt.Fprintln(w, "  ask -session <id> <question>   POST /v1/sessions/{id}/messages")
	_, _ = fmt.Fprintln(w, "  history -session <id>          GET /v1/sessions/{id}")
	_, _ = fmt.Fprintln(w, "  schema -session <id>           GET /v1/sessions/{id}/schema")
	_, _ = fmt.Fprintln(w, "  disconnect -session <id>       DELETE /v1/sessions/{id}")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
