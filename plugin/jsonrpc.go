// Package plugin speaks the launcher's JSON-RPC v1 plugin protocol.
//
// The host starts the plugin once per request and passes a single JSON
// object:
//
//	{"method": "query", "parameters": ["en>zh hello"], "settings": {...}}
//
// Query responses are written to stdout:
//
//	{"result": [{"Title": "...", "SubTitle": "...", "IcoPath": "...",
//	             "JsonRPCAction": {"method": "copy", "parameters": ["..."]}}]}
//
// Selecting an item sends its JsonRPCAction back as a new request, except
// for host methods such as Flow.Launcher.ChangeQuery which the host
// executes itself.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/minios-linux/flowtrans/i18n"
	"github.com/minios-linux/flowtrans/query"
	"github.com/minios-linux/flowtrans/settings"
)

// Plugin methods.
const (
	MethodQuery = "query"
	MethodCopy  = query.MethodCopy
)

// ErrEmptyRequest is returned for a request without any payload.
var ErrEmptyRequest = errors.New("empty request")

// Request is one call from the host.
type Request struct {
	Method     string         `json:"method"`
	Parameters []any          `json:"parameters"`
	Settings   map[string]any `json:"settings,omitempty"`
}

// Response is the reply to a query.
type Response struct {
	Result []Item `json:"result"`
}

// Item is a result item in host format.
type Item struct {
	Title         string     `json:"Title"`
	SubTitle      string     `json:"SubTitle"`
	IcoPath       string     `json:"IcoPath"`
	JsonRPCAction *RPCAction `json:"JsonRPCAction,omitempty"`
}

// RPCAction is the action the host performs or sends back on selection.
type RPCAction struct {
	Method              string `json:"method"`
	Parameters          []any  `json:"parameters"`
	DontHideAfterAction bool   `json:"dontHideAfterAction,omitempty"`
}

// Server routes host requests.
type Server struct {
	Handler *query.Handler
	// Clipboard receives copy actions. Defaults to SystemClipboard.
	Clipboard Clipboard
	// Logger may be nil.
	Logger *zap.Logger
}

// ParseRequest decodes one host request.
func ParseRequest(raw []byte) (*Request, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyRequest
	}
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if req.Method == "" {
		return nil, errors.New("request has no method")
	}
	return &req, nil
}

// Serve handles one raw request and writes the response, if any, to w.
func (s *Server) Serve(ctx context.Context, raw []byte, w io.Writer) error {
	req, err := ParseRequest(raw)
	if err != nil {
		return err
	}
	log := s.logger().With(zap.String("method", req.Method))

	switch req.Method {
	case MethodQuery:
		start := time.Now()
		results := s.query(ctx, req)
		log.Debug("query answered",
			zap.Int("results", len(results)),
			zap.Duration("elapsed", time.Since(start)))
		return WriteResults(w, results)

	case MethodCopy:
		text, err := stringParam(req, 0)
		if err != nil {
			return err
		}
		if err := s.clipboard().Copy(text); err != nil {
			log.Error("copy failed", zap.Error(err))
			return err
		}
		return nil

	default:
		return fmt.Errorf("unknown method %q", req.Method)
	}
}

func (s *Server) query(ctx context.Context, req *Request) []query.Result {
	q, _ := stringParam(req, 0)

	st, err := settings.FromRaw(req.Settings)
	if err != nil {
		s.logger().Warn("invalid settings", zap.Error(err))
		loc := i18n.New(interfaceLanguage(req.Settings))
		return []query.Result{{
			Title:    loc.T("Invalid settings"),
			SubTitle: err.Error(),
			IcoPath:  query.IconApp,
		}}
	}
	return s.Handler.Handle(ctx, q, st)
}

// WriteResults encodes results as a query response.
func WriteResults(w io.Writer, results []query.Result) error {
	resp := Response{Result: make([]Item, 0, len(results))}
	for _, r := range results {
		resp.Result = append(resp.Result, toItem(r))
	}
	enc := json.NewEncoder(w)
	// Language pairs like "en>zh" must reach the host unescaped.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	return nil
}

func toItem(r query.Result) Item {
	item := Item{Title: r.Title, SubTitle: r.SubTitle, IcoPath: r.IcoPath}
	if r.Action != nil {
		params := r.Action.Parameters
		if params == nil {
			params = []any{}
		}
		item.JsonRPCAction = &RPCAction{
			Method:              r.Action.Method,
			Parameters:          params,
			DontHideAfterAction: r.Action.DontHide,
		}
	}
	return item
}

func stringParam(req *Request, i int) (string, error) {
	if i >= len(req.Parameters) {
		return "", fmt.Errorf("%s: missing parameter %d", req.Method, i)
	}
	s, ok := req.Parameters[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: parameter %d is not a string", req.Method, i)
	}
	return s, nil
}

// interfaceLanguage picks the interface language out of settings that
// failed validation, so the error notice is still localized.
func interfaceLanguage(raw map[string]any) string {
	if lang, ok := raw["interfaceLanguage"].(string); ok {
		return lang
	}
	return settings.DefaultInterfaceLanguage
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Server) clipboard() Clipboard {
	if s.Clipboard == nil {
		return SystemClipboard{}
	}
	return s.Clipboard
}
