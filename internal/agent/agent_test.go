package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"paypromise/internal/ai"
	"paypromise/internal/convlog"
	"paypromise/internal/ledger"
	"paypromise/internal/session"
)

type memStore struct {
	mu   sync.Mutex
	rows []ledger.Customer
}

func (m *memStore) Load(ctx context.Context) ([]ledger.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		return nil, ledger.ErrUninitialized
	}
	return append([]ledger.Customer(nil), m.rows...), nil
}

func (m *memStore) Save(ctx context.Context, rows []ledger.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append([]ledger.Customer(nil), rows...)
	return nil
}

type fakeModel struct {
	reply      ModelReply
	err        error
	advice     string
	adviceErr  error
	transcript string
	prompts    []string
	audioCalls int
}

func (f *fakeModel) Negotiate(ctx context.Context, prompt string) (ModelReply, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	return f.advice, f.adviceErr
}

func (f *fakeModel) Transcribe(ctx context.Context, audio []byte, mimeType, prompt string) (string, error) {
	f.audioCalls++
	return f.transcript, f.err
}

type fakeSpeaker struct{ err error }

func (f fakeSpeaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3:" + text), nil
}

type fakeNotifier struct{ alerts []string }

func (f *fakeNotifier) HighRisk(ctx context.Context, c ledger.Customer, amount decimal.Decimal, date string) error {
	f.alerts = append(f.alerts, c.Name+" "+amount.String()+" "+date)
	return nil
}

type fakeTranscript struct{ lines []string }

func (f *fakeTranscript) Log(role, customer, message string) error {
	f.lines = append(f.lines, role+"|"+customer+"|"+message)
	return nil
}

var fixedNow = func() time.Time { return time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC) }

func setup(t *testing.T, model *fakeModel, opts ...Option) (*Agent, *ledger.Ledger, *session.Session) {
	t.Helper()
	l := ledger.New(&memStore{})
	c, err := l.CreateCustomer(context.Background(), "Ana Torres", decimal.NewFromInt(1000))
	if err != nil {
		t.Fatal(err)
	}
	sess := session.NewStore().Open(c)
	opts = append([]Option{WithClock(fixedNow)}, opts...)
	return New(l, model, opts...), l, sess
}

func promiseCall(monto any, fecha any) ToolCall {
	args := map[string]any{}
	if monto != nil {
		args[ai.ArgAmount] = monto
	}
	if fecha != nil {
		args[ai.ArgDate] = fecha
	}
	return ToolCall{Name: ai.PromiseToolName, Args: args}
}

func TestHandleTurnRecordsPromise(t *testing.T) {
	model := &fakeModel{
		reply:  ModelReply{Calls: []ToolCall{promiseCall(float64(400), "24/10/2026")}},
		advice: "Excelente compromiso.",
	}
	notifier := &fakeNotifier{}
	tr := &fakeTranscript{}
	a, l, sess := setup(t, model, WithNotifier(notifier), WithTranscript(tr))

	reply, err := a.HandleTurn(context.Background(), sess, "pago 400 el viernes")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	want := "Registro exitoso: $400 para el 24/10/2026. Riesgo: Baja. Excelente compromiso."
	if reply.Text != want {
		t.Errorf("reply = %q, want %q", reply.Text, want)
	}
	if reply.Risk != ledger.RiskLow || reply.Promise == nil || reply.Promise.Date != "24/10/2026" {
		t.Errorf("unexpected reply metadata: %+v", reply)
	}
	if len(notifier.alerts) != 0 {
		t.Errorf("low risk promise should not alert, got %v", notifier.alerts)
	}

	c, err := l.Get(context.Background(), sess.CustomerID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.PromisedAmount.Equal(decimal.NewFromInt(400)) || c.PromiseDate != "24/10/2026" || c.Risk != ledger.RiskLow {
		t.Errorf("ledger row not updated: %+v", c)
	}

	if len(tr.lines) != 2 ||
		tr.lines[0] != convlog.RoleCustomer+"|Ana Torres|pago 400 el viernes" ||
		!strings.HasPrefix(tr.lines[1], convlog.RoleAgent+"|Ana Torres|Registro exitoso") {
		t.Errorf("transcript = %v", tr.lines)
	}

	msgs := sess.Messages()
	if len(msgs) != 3 || msgs[2].Role != session.RoleAssistant || msgs[2].Content != want {
		t.Errorf("session history = %+v", msgs)
	}
}

func TestHandleTurnHighRiskAlerts(t *testing.T) {
	model := &fakeModel{
		reply:  ModelReply{Calls: []ToolCall{promiseCall("$100", "fin de año")}},
		advice: "Plazo demasiado largo.",
	}
	notifier := &fakeNotifier{}
	a, _, sess := setup(t, model, WithNotifier(notifier))

	reply, err := a.HandleTurn(context.Background(), sess, "solo 100")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Risk != ledger.RiskHigh {
		t.Errorf("risk = %v, want %v", reply.Risk, ledger.RiskHigh)
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0] != "Ana Torres 100 fin de año" {
		t.Errorf("alerts = %v", notifier.alerts)
	}
}

func TestHandleTurnPlainText(t *testing.T) {
	model := &fakeModel{reply: ModelReply{Text: "  ¿Qué monto puede pagar?  "}}
	a, _, sess := setup(t, model, WithSpeaker(fakeSpeaker{}))

	reply, err := a.HandleTurn(context.Background(), sess, "no sé")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Text != "¿Qué monto puede pagar?" {
		t.Errorf("reply = %q", reply.Text)
	}
	if string(reply.Audio) != "mp3:¿Qué monto puede pagar?" {
		t.Errorf("audio = %q", reply.Audio)
	}
	if reply.Promise != nil {
		t.Error("plain text reply should not carry a promise")
	}
}

func TestHandleTurnSpeechFailureKeepsText(t *testing.T) {
	model := &fakeModel{reply: ModelReply{Text: "Entendido"}}
	a, _, sess := setup(t, model, WithSpeaker(fakeSpeaker{err: errors.New("quota")}))

	reply, err := a.HandleTurn(context.Background(), sess, "hola")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Text != "Entendido" || reply.Audio != nil {
		t.Errorf("reply = %+v", reply)
	}
}

func TestHandleTurnAdviceFailure(t *testing.T) {
	model := &fakeModel{
		reply:     ModelReply{Calls: []ToolCall{promiseCall(float64(500), "01/11/2026")}},
		adviceErr: errors.New("timeout"),
	}
	a, _, sess := setup(t, model)

	reply, err := a.HandleTurn(context.Background(), sess, "500 el 1 de noviembre")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if reply.Text != "Registro exitoso: $500 para el 01/11/2026. Riesgo: Baja." {
		t.Errorf("reply = %q", reply.Text)
	}
}

func TestHandleTurnPromptUsesWindow(t *testing.T) {
	model := &fakeModel{reply: ModelReply{Text: "ok"}}
	a, _, sess := setup(t, model)

	for _, msg := range []string{"uno", "dos", "tres", "cuatro"} {
		if _, err := a.HandleTurn(context.Background(), sess, msg); err != nil {
			t.Fatal(err)
		}
	}

	last := model.prompts[len(model.prompts)-1]
	if strings.Contains(last, "Hola Ana Torres") || strings.Contains(last, "user: uno") {
		t.Errorf("prompt should only carry the last %d messages:\n%s", HistoryWindow, last)
	}
	if !strings.Contains(last, "user: tres") || !strings.Contains(last, "user: cuatro") {
		t.Errorf("prompt missing recent messages:\n%s", last)
	}
	if !strings.Contains(last, "SALDO: 1000") || !strings.Contains(last, "lunes, 19 de octubre de 2026") {
		t.Errorf("prompt missing balance or date:\n%s", last)
	}
}

func TestHandleTurnErrors(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
		input string
		want  error
	}{
		{"empty input", &fakeModel{}, "   ", ErrEmptyInput},
		{"no reply", &fakeModel{}, "hola", ErrNoReply},
		{"missing monto", &fakeModel{reply: ModelReply{Calls: []ToolCall{promiseCall(nil, "24/10/2026")}}}, "x", ErrBadToolCall},
		{"bad monto", &fakeModel{reply: ModelReply{Calls: []ToolCall{promiseCall("mucho", "24/10/2026")}}}, "x", ErrBadToolCall},
		{"missing fecha", &fakeModel{reply: ModelReply{Calls: []ToolCall{promiseCall(float64(10), nil)}}}, "x", ErrBadToolCall},
		{"negative monto", &fakeModel{reply: ModelReply{Calls: []ToolCall{promiseCall(float64(-5), "24/10/2026")}}}, "x", ledger.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, sess := setup(t, tt.model)
			if _, err := a.HandleTurn(context.Background(), sess, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("HandleTurn() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandleTurnUnknownCustomer(t *testing.T) {
	model := &fakeModel{reply: ModelReply{Text: "ok"}}
	a, _, _ := setup(t, model)
	ghost := session.NewStore().Open(ledger.Customer{ID: 99, Name: "Nadie"})

	if _, err := a.HandleTurn(context.Background(), ghost, "hola"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("HandleTurn() error = %v, want ErrNotFound", err)
	}
}

func TestHandleAudio(t *testing.T) {
	model := &fakeModel{
		transcript: "pago 450 el viernes. Tono: tranquilo.",
		reply:      ModelReply{Text: "Entendido"},
	}
	a, _, sess := setup(t, model)

	reply, err := a.HandleAudio(context.Background(), sess, []byte("ogg"), "audio/ogg", "voice-1")
	if err != nil {
		t.Fatalf("HandleAudio() error = %v", err)
	}
	if reply.Transcript != "pago 450 el viernes. Tono: tranquilo." {
		t.Errorf("transcript = %q", reply.Transcript)
	}
	msgs := sess.Messages()
	if got := msgs[1].Content; got != "AUDIO_TRANSCRIPCIÓN: pago 450 el viernes. Tono: tranquilo." {
		t.Errorf("user message = %q", got)
	}

	if _, err := a.HandleAudio(context.Background(), sess, []byte("ogg"), "audio/ogg", "voice-1"); !errors.Is(err, ErrDuplicateAudio) {
		t.Errorf("duplicate audio error = %v, want ErrDuplicateAudio", err)
	}
	if model.audioCalls != 1 {
		t.Errorf("duplicate audio should not be transcribed, got %d calls", model.audioCalls)
	}
}

func TestHandleAudioRetryAfterFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("unavailable")}
	a, _, sess := setup(t, model)

	if _, err := a.HandleAudio(context.Background(), sess, []byte("ogg"), "audio/ogg", "voice-1"); err == nil {
		t.Fatal("expected transcription error")
	}

	model.err = nil
	model.transcript = "hola"
	model.reply = ModelReply{Text: "ok"}
	if _, err := a.HandleAudio(context.Background(), sess, []byte("ogg"), "audio/ogg", "voice-1"); err != nil {
		t.Errorf("retry after failure error = %v", err)
	}
}

func TestHandleTurnBadCallRecordsNothing(t *testing.T) {
	model := &fakeModel{
		reply: ModelReply{Calls: []ToolCall{
			promiseCall(float64(400), "24/10/2026"),
			promiseCall("mucho", "25/10/2026"),
		}},
		advice: "ok",
	}
	a, l, sess := setup(t, model)

	if _, err := a.HandleTurn(context.Background(), sess, "pago 400"); !errors.Is(err, ErrBadToolCall) {
		t.Fatalf("HandleTurn() error = %v, want ErrBadToolCall", err)
	}

	c, err := l.Get(context.Background(), sess.CustomerID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.PromisedAmount.IsZero() || c.PromiseDate != "" {
		t.Errorf("first promise was saved despite the failed turn: %+v", c)
	}
}
