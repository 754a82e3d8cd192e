package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paypromise/internal/ai"
	"paypromise/internal/convlog"
	"paypromise/internal/ledger"
	"paypromise/internal/metrics"
	"paypromise/internal/session"
)

// HistoryWindow is how many recent messages the model sees each turn.
const HistoryWindow = 5

const audioPrefix = "AUDIO_TRANSCRIPCIÓN: "

var (
	ErrBadToolCall    = errors.New("malformed promise tool call")
	ErrDuplicateAudio = errors.New("audio already processed")
	ErrEmptyInput     = errors.New("empty message")
	ErrNoReply        = errors.New("model returned no reply")
)

type ToolCall struct {
	Name string
	Args map[string]any
}

type ModelReply struct {
	Text  string
	Calls []ToolCall
}

type Model interface {
	Negotiate(ctx context.Context, prompt string) (ModelReply, error)
	Generate(ctx context.Context, prompt string) (string, error)
	Transcribe(ctx context.Context, audio []byte, mimeType, prompt string) (string, error)
}

type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type Notifier interface {
	HighRisk(ctx context.Context, c ledger.Customer, amount decimal.Decimal, date string) error
}

type Transcript interface {
	Log(role, customer, message string) error
}

type Ledger interface {
	Get(ctx context.Context, id int64) (ledger.Customer, error)
	RecordPromise(ctx context.Context, id int64, amount decimal.Decimal, date string) (ledger.Risk, error)
}

type Promise struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

type Reply struct {
	Text       string      `json:"text"`
	Transcript string      `json:"transcript,omitempty"`
	Audio      []byte      `json:"audio,omitempty"`
	Risk       ledger.Risk `json:"risk,omitempty"`
	Promise    *Promise    `json:"promise,omitempty"`
}

type Agent struct {
	ledger     Ledger
	model      Model
	speaker    Speaker
	notifier   Notifier
	transcript Transcript
	now        func() time.Time
}

type Option func(*Agent)

func WithSpeaker(s Speaker) Option { return func(a *Agent) { a.speaker = s } }
func WithNotifier(n Notifier) Option { return func(a *Agent) { a.notifier = n } }
func WithTranscript(t Transcript) Option { return func(a *Agent) { a.transcript = t } }
func WithClock(now func() time.Time) Option { return func(a *Agent) { a.now = now } }

func New(l Ledger, m Model, opts ...Option) *Agent {
	a := &Agent{ledger: l, model: m, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandleTurn runs one negotiation turn for a text message.
func (a *Agent) HandleTurn(ctx context.Context, sess *session.Session, input string) (Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Reply{}, ErrEmptyInput
	}

	customer, err := a.ledger.Get(ctx, sess.CustomerID)
	if err != nil {
		return Reply{}, err
	}

	sess.Append(session.RoleUser, input)
	a.log(convlog.RoleCustomer, customer.Name, input)

	systemPrompt := ai.GetSystemPrompt(a.now())
	prompt, err := ai.GenerateTurnPrompt(systemPrompt, customer.Name, customer.Outstanding().String(), history(sess))
	if err != nil {
		return Reply{}, err
	}

	mr, err := a.model.Negotiate(ctx, prompt)
	metrics.ModelCalls.WithLabelValues("negotiate", metrics.Outcome(err)).Inc()
	if err != nil {
		return Reply{}, fmt.Errorf("negotiate: %w", err)
	}

	// Every call is validated before any is recorded so a bad call cannot
	// leave earlier promises saved behind a failed turn.
	var promises []Promise
	for _, call := range mr.Calls {
		if call.Name != ai.PromiseToolName {
			zap.L().Warn("ignoring unknown tool call", zap.String("name", call.Name))
			continue
		}

		amount, date, err := parsePromiseArgs(call.Args)
		if err != nil {
			return Reply{}, err
		}
		if amount.IsNegative() {
			return Reply{}, fmt.Errorf("record promise: %w: monto %s", ledger.ErrInvalidInput, amount)
		}
		promises = append(promises, Promise{Amount: amount, Date: date})
	}

	var reply Reply
	var confirmations []string
	for _, p := range promises {
		amount, date := p.Amount, p.Date

		risk, err := a.ledger.RecordPromise(ctx, customer.ID, amount, date)
		if err != nil {
			return Reply{}, fmt.Errorf("record promise: %w", err)
		}
		metrics.PromisesRecorded.WithLabelValues(string(risk)).Inc()
		zap.L().Info("promise recorded",
			zap.Int64("customer_id", customer.ID),
			zap.String("amount", amount.String()),
			zap.String("date", date),
			zap.String("risk", string(risk)),
		)

		if risk == ledger.RiskHigh && a.notifier != nil {
			if err := a.notifier.HighRisk(ctx, customer, amount, date); err != nil {
				zap.L().Warn("high risk alert failed", zap.Error(err))
			}
		}

		confirmations = append(confirmations, a.confirm(ctx, systemPrompt, amount, date, risk))
		reply.Risk = risk
		reply.Promise = &Promise{Amount: amount, Date: date}
	}

	switch {
	case len(confirmations) > 0:
		reply.Text = strings.Join(confirmations, "\n")
	case strings.TrimSpace(mr.Text) != "":
		reply.Text = strings.TrimSpace(mr.Text)
	default:
		return Reply{}, ErrNoReply
	}

	if a.speaker != nil {
		audio, err := a.speaker.Synthesize(ctx, reply.Text)
		if err != nil {
			zap.L().Warn("speech synthesis failed", zap.Error(err))
		} else {
			reply.Audio = audio
		}
	}

	sess.Append(session.RoleAssistant, reply.Text)
	a.log(convlog.RoleAgent, customer.Name, reply.Text)

	return reply, nil
}

// HandleAudio transcribes a voice note and feeds it into HandleTurn.
// A voice note with the same id as the last one processed is rejected.
func (a *Agent) HandleAudio(ctx context.Context, sess *session.Session, audio []byte, mimeType, audioID string) (Reply, error) {
	if len(audio) == 0 {
		return Reply{}, ErrEmptyInput
	}
	if !sess.MarkAudio(audioID) {
		return Reply{}, ErrDuplicateAudio
	}

	text, err := a.model.Transcribe(ctx, audio, mimeType, ai.GenerateTranscriptionPrompt(ai.ShortDate(a.now())))
	metrics.ModelCalls.WithLabelValues("transcribe", metrics.Outcome(err)).Inc()
	if err != nil {
		sess.ForgetAudio(audioID)
		return Reply{}, fmt.Errorf("transcribe: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		sess.ForgetAudio(audioID)
		return Reply{}, ErrNoReply
	}

	reply, err := a.HandleTurn(ctx, sess, audioPrefix+text)
	if err != nil {
		return Reply{}, err
	}
	reply.Transcript = text
	return reply, nil
}

// confirm builds the confirmation line and appends the model's advice.
// Missing advice does not fail the turn since the promise is already saved.
func (a *Agent) confirm(ctx context.Context, systemPrompt string, amount decimal.Decimal, date string, risk ledger.Risk) string {
	text := fmt.Sprintf("Registro exitoso: $%s para el %s. Riesgo: %s. ", amount.String(), date, risk)

	advice, err := a.model.Generate(ctx, ai.GenerateAdvicePrompt(systemPrompt, date, amount.String()))
	metrics.ModelCalls.WithLabelValues("advice", metrics.Outcome(err)).Inc()
	if err != nil {
		zap.L().Warn("advice generation failed", zap.Error(err))
		return strings.TrimSpace(text)
	}
	return text + strings.TrimSpace(advice)
}

func (a *Agent) log(role, customer, message string) {
	if a.transcript == nil {
		return
	}
	if err := a.transcript.Log(role, customer, message); err != nil {
		zap.L().Warn("conversation log failed", zap.Error(err))
	}
}

func history(sess *session.Session) []ai.HistoryLine {
	msgs := sess.Window(HistoryWindow)
	lines := make([]ai.HistoryLine, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, ai.HistoryLine{Role: m.Role, Content: m.Content})
	}
	return lines
}
