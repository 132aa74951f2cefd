package plugin

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/atotto/clipboard"
	"github.com/goccy/go-json"

	"github.com/minios-linux/flowtrans/query"
	"github.com/minios-linux/flowtrans/service"
	"github.com/minios-linux/flowtrans/settings"
)

type upperService struct{}

func (upperService) Name() string { return "upper" }

func (upperService) Languages() map[string]string {
	return map[string]string{"auto": "auto", "en": "en", "de": "de", "zh": "zh"}
}

func (upperService) Translate(_ context.Context, text, _, _ string, _ *http.Client, _ *settings.Settings) (string, error) {
	return strings.ToUpper(text), nil
}

type recordingClipboard struct {
	copied []string
	err    error
}

func (c *recordingClipboard) Copy(text string) error {
	c.copied = append(c.copied, text)
	return c.err
}

func newTestServer(t *testing.T) (*Server, *recordingClipboard) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	reg := service.NewRegistry()
	reg.Register(upperService{}, map[string]string{"en": "Upper"})
	clip := &recordingClipboard{}
	return &Server{
		Handler: &query.Handler{
			Registry: reg,
			Client:   func(*settings.Settings) *http.Client { return http.DefaultClient },
		},
		Clipboard: clip,
	}, clip
}

func serve(t *testing.T, srv *Server, req string) Response {
	t.Helper()
	var buf bytes.Buffer
	if err := srv.Serve(context.Background(), []byte(req), &buf); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response %q: %v", buf.String(), err)
	}
	return resp
}

func TestServeQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := serve(t, srv, `{
		"method": "query",
		"parameters": ["en>de hello"],
		"settings": {"services": "upper", "translateDelay": "0"}
	}`)

	if len(resp.Result) != 1 {
		t.Fatalf("results = %#v", resp.Result)
	}
	item := resp.Result[0]
	if item.Title != "HELLO" || item.SubTitle != "English → German [Upper]" || item.IcoPath != "images/upper.png" {
		t.Fatalf("item = %#v", item)
	}
	if item.JsonRPCAction == nil || item.JsonRPCAction.Method != MethodCopy {
		t.Fatalf("action = %#v", item.JsonRPCAction)
	}
	if got := item.JsonRPCAction.Parameters; len(got) != 1 || got[0] != "HELLO" {
		t.Fatalf("parameters = %#v", got)
	}
}

func TestServeQuickSelectWireFormat(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	req := `{"method":"query","parameters":["en>zh"],"settings":{"services":"upper","languagePairs":["de>en"]}}`
	if err := srv.Serve(context.Background(), []byte(req), &buf); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`"method":"Flow.Launcher.ChangeQuery"`,
		`"parameters":["tr en>zh ",true]`,
		`"dontHideAfterAction":true`,
		`"parameters":["tr de>en ",true]`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("response missing %s:\n%s", want, out)
		}
	}
}

func TestServeNoticeHasNoAction(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	if err := srv.Serve(context.Background(), []byte(`{"method":"query","parameters":["hello"]}`), &buf); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if strings.Contains(buf.String(), "JsonRPCAction") {
		t.Fatalf("notice should not carry an action: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "No translation service configured") {
		t.Fatalf("unexpected response: %s", buf.String())
	}
}

func TestServeInvalidSettings(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := serve(t, srv, `{
		"method": "query",
		"parameters": ["hello"],
		"settings": {"interfaceLanguage": "zh", "translateDelay": 60000}
	}`)
	if len(resp.Result) != 1 || resp.Result[0].Title != "设置无效" {
		t.Fatalf("results = %#v", resp.Result)
	}
	if !strings.Contains(resp.Result[0].SubTitle, "TranslateDelay") {
		t.Fatalf("subtitle = %q", resp.Result[0].SubTitle)
	}
}

func TestServeCopy(t *testing.T) {
	srv, clip := newTestServer(t)

	var buf bytes.Buffer
	if err := srv.Serve(context.Background(), []byte(`{"method":"copy","parameters":["Hallo Welt"]}`), &buf); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if len(clip.copied) != 1 || clip.copied[0] != "Hallo Welt" {
		t.Fatalf("copied = %#v", clip.copied)
	}
	if buf.Len() != 0 {
		t.Fatalf("copy should not write a response, got %q", buf.String())
	}

	clip.err = errors.New("no display")
	if err := srv.Serve(context.Background(), []byte(`{"method":"copy","parameters":["x"]}`), &buf); err == nil {
		t.Fatalf("expected clipboard error")
	}
}

func TestServeBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		req  string
		want string
	}{
		{name: "empty", req: "", want: "empty request"},
		{name: "not json", req: "{", want: "decoding request"},
		{name: "no method", req: `{"parameters":[]}`, want: "no method"},
		{name: "unknown method", req: `{"method":"open_url","parameters":[]}`, want: `unknown method "open_url"`},
		{name: "copy without text", req: `{"method":"copy","parameters":[]}`, want: "missing parameter"},
		{name: "copy with number", req: `{"method":"copy","parameters":[42]}`, want: "not a string"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := srv.Serve(context.Background(), []byte(tc.req), &buf)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Clipboard
// ---------------------------------------------------------------------------

func TestServerDefaultsToSystemClipboard(t *testing.T) {
	s := &Server{}
	if _, ok := s.clipboard().(SystemClipboard); !ok {
		t.Fatalf("default clipboard = %T, want SystemClipboard", s.clipboard())
	}
}

func TestSystemClipboardUnsupported(t *testing.T) {
	prev := clipboard.Unsupported
	clipboard.Unsupported = true
	t.Cleanup(func() { clipboard.Unsupported = prev })

	if err := (SystemClipboard{}).Copy("你好"); !errors.Is(err, ErrNoClipboard) {
		t.Fatalf("err = %v, want ErrNoClipboard", err)
	}
}
